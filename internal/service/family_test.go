package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

type familyFixture struct {
	svc      *FamilyService
	wallets  *fakeWalletRepo
	requests *mockAccessRequestRepo
	children *mockChildRepo
	bindings *mockBindingRepo
	sessions *mockSessionRepo
	repos    *repository.Repos
}

func newFamilyFixture() *familyFixture {
	wallets := newFakeWalletRepo()
	requests := new(mockAccessRequestRepo)
	children := new(mockChildRepo)
	bindings := new(mockBindingRepo)
	sessions := new(mockSessionRepo)
	repos := &repository.Repos{
		Wallets:        wallets,
		AccessRequests: requests,
		Children:       children,
		Bindings:       bindings,
		Sessions:       sessions,
	}
	svc := &FamilyService{
		repos:    repos,
		inTx:     stubTx(repos),
		notifier: notify.Noop{},
	}
	return &familyFixture{svc: svc, wallets: wallets, requests: requests, children: children, bindings: bindings, sessions: sessions, repos: repos}
}

func pendingRequest() *model.AccessRequest {
	return &model.AccessRequest{
		ID:           "req-1",
		FamilyID:     "fam-1",
		FirstName:    "Mila",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
		Status:       model.AccessRequestPending,
	}
}

func TestApproveAccessRequestCreatesFullCascade(t *testing.T) {
	f := newFamilyFixture()
	ctx := context.Background()

	f.requests.On("FindByID", mock.Anything, "req-1").Return(pendingRequest(), nil)
	f.children.On("Create", mock.Anything, model.CreateChildParams{
		FamilyID: "fam-1", FirstName: "Mila",
	}).Return(&model.Child{ID: "child-1", FamilyID: "fam-1", FirstName: "Mila", IsActive: true}, nil)
	f.bindings.On("Create", mock.Anything, model.CreateDeviceBindingParams{
		FamilyID: "fam-1", ChildID: "child-1", DeviceID: "device-1", DeviceSecret: "secret-1",
	}).Return(&model.DeviceBinding{ID: "bind-1", ChildID: "child-1", DeviceID: "device-1", IsActive: true}, nil)
	f.sessions.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateChildSessionParams) bool {
		return p.FamilyID == "fam-1" && p.ChildID == "child-1" && p.BindingID == "bind-1" && p.Token != ""
	})).Return(&model.ChildSession{ID: "sess-1", Token: "tok-1", IsActive: true}, nil)
	childID := "child-1"
	f.requests.On("MarkDecided", mock.Anything, "req-1", model.AccessRequestApproved, "user-1", &childID).Return(true, nil)

	result, err := f.svc.ApproveAccessRequest(ctx, parentPrincipal(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "child-1", result.Child.ID)
	assert.Equal(t, int64(0), result.Wallet.Balance)
	assert.Equal(t, "bind-1", result.Binding.ID)
	assert.NotEmpty(t, result.SessionToken)
}

func TestApproveAccessRequestAlreadyDecided(t *testing.T) {
	f := newFamilyFixture()
	req := pendingRequest()
	req.Status = model.AccessRequestRejected
	f.requests.On("FindByID", mock.Anything, "req-1").Return(req, nil)

	_, err := f.svc.ApproveAccessRequest(context.Background(), parentPrincipal(), "req-1")
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
	f.children.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApproveAccessRequestConcurrentDecision(t *testing.T) {
	f := newFamilyFixture()

	f.requests.On("FindByID", mock.Anything, "req-1").Return(pendingRequest(), nil)
	f.children.On("Create", mock.Anything, mock.Anything).Return(&model.Child{ID: "child-1", FamilyID: "fam-1"}, nil)
	f.bindings.On("Create", mock.Anything, mock.Anything).Return(&model.DeviceBinding{ID: "bind-1"}, nil)
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(&model.ChildSession{ID: "sess-1", Token: "tok-1"}, nil)
	// Another parent decided between the read and the flip; the cascade
	// must fail so the surrounding transaction rolls it back.
	f.requests.On("MarkDecided", mock.Anything, "req-1", model.AccessRequestApproved, "user-1", mock.Anything).Return(false, nil)

	_, err := f.svc.ApproveAccessRequest(context.Background(), parentPrincipal(), "req-1")
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
}

func TestApproveAccessRequestCrossFamily(t *testing.T) {
	f := newFamilyFixture()
	req := pendingRequest()
	req.FamilyID = "fam-2"
	f.requests.On("FindByID", mock.Anything, "req-1").Return(req, nil)

	_, err := f.svc.ApproveAccessRequest(context.Background(), parentPrincipal(), "req-1")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestApproveAccessRequestChildForbidden(t *testing.T) {
	f := newFamilyFixture()

	_, err := f.svc.ApproveAccessRequest(context.Background(), childPrincipal(), "req-1")
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestRejectAccessRequest(t *testing.T) {
	f := newFamilyFixture()

	f.requests.On("FindByID", mock.Anything, "req-1").Return(pendingRequest(), nil)
	f.requests.On("MarkDecided", mock.Anything, "req-1", model.AccessRequestRejected, "user-1", (*string)(nil)).Return(true, nil)

	err := f.svc.RejectAccessRequest(context.Background(), parentPrincipal(), "req-1")
	require.NoError(t, err)
	f.children.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRevokeChildDevicesOrdersSessionsFirst(t *testing.T) {
	f := newFamilyFixture()
	var order []string

	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{ID: "child-1", FamilyID: "fam-1", IsActive: true}, nil)
	f.sessions.On("RevokeActiveByChildID", mock.Anything, "child-1", "user-1").Run(func(mock.Arguments) {
		order = append(order, "sessions")
	}).Return(int64(2), nil)
	f.bindings.On("RevokeActiveByChildID", mock.Anything, "child-1", "user-1").Run(func(mock.Arguments) {
		order = append(order, "bindings")
	}).Return(int64(1), nil)

	result, err := f.svc.RevokeChildDevices(context.Background(), parentPrincipal(), "child-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.SessionsRevoked)
	assert.Equal(t, int64(1), result.BindingsRevoked)
	assert.Equal(t, []string{"sessions", "bindings"}, order)
}

func TestRevokeChildDevicesCrossFamily(t *testing.T) {
	f := newFamilyFixture()

	f.children.On("FindByID", mock.Anything, "child-9").Return(&model.Child{ID: "child-9", FamilyID: "fam-2"}, nil)

	_, err := f.svc.RevokeChildDevices(context.Background(), parentPrincipal(), "child-9")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestDeactivateChildRevokesAccess(t *testing.T) {
	f := newFamilyFixture()

	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{ID: "child-1", FamilyID: "fam-1", IsActive: true}, nil)
	f.children.On("Deactivate", mock.Anything, "child-1", mock.Anything).Return(nil)
	f.sessions.On("RevokeActiveByChildID", mock.Anything, "child-1", "user-1").Return(int64(1), nil)
	f.bindings.On("RevokeActiveByChildID", mock.Anything, "child-1", "user-1").Return(int64(1), nil)

	err := f.svc.DeactivateChild(context.Background(), parentPrincipal(), "child-1")
	require.NoError(t, err)
	f.sessions.AssertExpectations(t)
	f.bindings.AssertExpectations(t)
}

func TestDeactivateChildAlreadyInactive(t *testing.T) {
	f := newFamilyFixture()

	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{ID: "child-1", FamilyID: "fam-1", IsActive: false}, nil)

	err := f.svc.DeactivateChild(context.Background(), parentPrincipal(), "child-1")
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
}

func TestGrantAdmin(t *testing.T) {
	f := newFamilyFixture()
	profiles := new(mockProfileRepo)
	f.repos.Profiles = profiles

	profiles.On("FindByUserID", mock.Anything, "user-2").Return(&model.Profile{
		UserID: "user-2", FamilyID: "fam-1", Role: model.RoleParent,
	}, nil)
	profiles.On("UpdateRole", mock.Anything, "user-2", model.RoleAdmin).Return(nil)

	admin := &model.Principal{Role: model.RoleAdmin, UserID: "user-1", FamilyID: "fam-1"}
	require.NoError(t, f.svc.GrantAdmin(context.Background(), admin, "user-2"))
	profiles.AssertExpectations(t)
}

func TestGrantAdminParentForbidden(t *testing.T) {
	f := newFamilyFixture()

	err := f.svc.GrantAdmin(context.Background(), parentPrincipal(), "user-2")
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestGrantAdminCrossFamily(t *testing.T) {
	f := newFamilyFixture()
	profiles := new(mockProfileRepo)
	f.repos.Profiles = profiles

	profiles.On("FindByUserID", mock.Anything, "user-2").Return(&model.Profile{
		UserID: "user-2", FamilyID: "fam-2", Role: model.RoleParent,
	}, nil)

	admin := &model.Principal{Role: model.RoleAdmin, UserID: "user-1", FamilyID: "fam-1"}
	err := f.svc.GrantAdmin(context.Background(), admin, "user-2")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}
