package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

type pairingFixture struct {
	svc      *PairingService
	families *mockFamilyRepo
	requests *mockAccessRequestRepo
	sessions *mockSessionRepo
	children *mockChildRepo
}

func newPairingFixture() *pairingFixture {
	families := new(mockFamilyRepo)
	requests := new(mockAccessRequestRepo)
	sessions := new(mockSessionRepo)
	children := new(mockChildRepo)
	repos := &repository.Repos{
		Families:       families,
		AccessRequests: requests,
		Sessions:       sessions,
		Children:       children,
	}
	auth := &AuthService{
		repos:     repos,
		inTx:      stubTx(repos),
		jwtSecret: []byte("test-secret"),
		tokenTTL:  time.Hour,
	}
	svc := &PairingService{
		repos:    repos,
		auth:     auth,
		notifier: notify.Noop{},
	}
	return &pairingFixture{svc: svc, families: families, requests: requests, sessions: sessions, children: children}
}

func TestSubmitAccessRequest(t *testing.T) {
	f := newPairingFixture()

	f.families.On("FindByCode", mock.Anything, "ABCD2345").Return(&model.Family{ID: "fam-1", FamilyCode: "ABCD2345"}, nil)
	f.requests.On("Create", mock.Anything, model.CreateAccessRequestParams{
		FamilyID: "fam-1", FirstName: "Mila", DeviceID: "device-1", DeviceSecret: "secret-1",
	}).Return(&model.AccessRequest{ID: "req-1", FamilyID: "fam-1", FirstName: "Mila", Status: model.AccessRequestPending}, nil)

	result, err := f.svc.SubmitAccessRequest(context.Background(), SubmitAccessRequestInput{
		FamilyCode:   " abcd2345 ",
		FirstName:    " Mila ",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, model.AccessRequestPending, result.Status)
}

func TestSubmitAccessRequestUnknownCode(t *testing.T) {
	f := newPairingFixture()

	f.families.On("FindByCode", mock.Anything, "NOPE2345").Return((*model.Family)(nil), nil)

	_, err := f.svc.SubmitAccessRequest(context.Background(), SubmitAccessRequestInput{
		FamilyCode:   "NOPE2345",
		FirstName:    "Mila",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestSubmitAccessRequestMissingFields(t *testing.T) {
	f := newPairingFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitAccessRequest(ctx, SubmitAccessRequestInput{FirstName: "Mila", DeviceID: "d", DeviceSecret: "s"})
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

	_, err = f.svc.SubmitAccessRequest(ctx, SubmitAccessRequestInput{FamilyCode: "ABCD2345", DeviceID: "d", DeviceSecret: "s"})
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

	_, err = f.svc.SubmitAccessRequest(ctx, SubmitAccessRequestInput{FamilyCode: "ABCD2345", FirstName: "Mila"})
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
}

func TestPollPendingReturnsStatusOnly(t *testing.T) {
	f := newPairingFixture()

	f.requests.On("FindByID", mock.Anything, "req-1").Return(&model.AccessRequest{
		ID: "req-1", DeviceID: "device-1", DeviceSecret: "secret-1", Status: model.AccessRequestPending,
	}, nil)

	result, err := f.svc.PollAccessRequest(context.Background(), "req-1", "device-1", "secret-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessRequestPending, result.Status)
	assert.False(t, result.Ready)
	assert.Empty(t, result.AccessToken)
}

func TestPollWrongDeviceForbidden(t *testing.T) {
	f := newPairingFixture()

	f.requests.On("FindByID", mock.Anything, "req-1").Return(&model.AccessRequest{
		ID: "req-1", DeviceID: "device-1", DeviceSecret: "secret-1", Status: model.AccessRequestApproved,
	}, nil)

	_, err := f.svc.PollAccessRequest(context.Background(), "req-1", "device-1", "wrong-secret")
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestPollApprovedIssuesToken(t *testing.T) {
	f := newPairingFixture()
	childID := "child-1"

	f.requests.On("FindByID", mock.Anything, "req-1").Return(&model.AccessRequest{
		ID: "req-1", FamilyID: "fam-1", DeviceID: "device-1", DeviceSecret: "secret-1",
		Status: model.AccessRequestApproved, ChildID: &childID,
	}, nil)
	f.sessions.On("FindActiveByDeviceID", mock.Anything, "device-1").Return([]model.SessionWithBinding{
		*activeSessionWithBinding(),
	}, nil)
	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{
		ID: "child-1", FamilyID: "fam-1", FirstName: "Mila", IsActive: true,
	}, nil)

	result, err := f.svc.PollAccessRequest(context.Background(), "req-1", "device-1", "secret-1")
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "child-1", result.ChildID)
	assert.Equal(t, "Mila", result.ChildName)
}

func TestPollApprovedWithoutSessionNotReady(t *testing.T) {
	f := newPairingFixture()
	childID := "child-1"

	f.requests.On("FindByID", mock.Anything, "req-1").Return(&model.AccessRequest{
		ID: "req-1", FamilyID: "fam-1", DeviceID: "device-1", DeviceSecret: "secret-1",
		Status: model.AccessRequestApproved, ChildID: &childID,
	}, nil)
	f.sessions.On("FindActiveByDeviceID", mock.Anything, "device-1").Return([]model.SessionWithBinding{}, nil)

	result, err := f.svc.PollAccessRequest(context.Background(), "req-1", "device-1", "secret-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessRequestApproved, result.Status)
	assert.False(t, result.Ready)
}

func TestRestoreSessionByToken(t *testing.T) {
	f := newPairingFixture()

	f.sessions.On("FindByToken", mock.Anything, "session-token").Return(activeSessionWithBinding(), nil)
	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{
		ID: "child-1", FamilyID: "fam-1", FirstName: "Mila", IsActive: true,
	}, nil)

	result, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		SessionToken: "session-token",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.NotEmpty(t, result.AccessToken)
}

func TestRestoreSessionByDeviceOnly(t *testing.T) {
	f := newPairingFixture()

	f.sessions.On("FindActiveByDeviceID", mock.Anything, "device-1").Return([]model.SessionWithBinding{
		*activeSessionWithBinding(),
	}, nil)
	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{
		ID: "child-1", FamilyID: "fam-1", FirstName: "Mila", IsActive: true,
	}, nil)

	result, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Ready)
}

func TestRestoreSessionDeviceMismatch(t *testing.T) {
	f := newPairingFixture()

	f.sessions.On("FindByToken", mock.Anything, "session-token").Return(activeSessionWithBinding(), nil)

	_, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		SessionToken: "session-token",
		DeviceID:     "device-2",
		DeviceSecret: "secret-1",
	})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestRestoreSessionRevokedBinding(t *testing.T) {
	f := newPairingFixture()

	revoked := activeSessionWithBinding()
	revoked.BindingIsActive = false
	f.sessions.On("FindByToken", mock.Anything, "session-token").Return(revoked, nil)

	_, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		SessionToken: "session-token",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestRestoreSessionRevokedSession(t *testing.T) {
	f := newPairingFixture()

	revoked := activeSessionWithBinding()
	revoked.IsActive = false
	f.sessions.On("FindByToken", mock.Anything, "session-token").Return(revoked, nil)

	_, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		SessionToken: "session-token",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestRestoreSessionDeactivatedChild(t *testing.T) {
	f := newPairingFixture()

	f.sessions.On("FindByToken", mock.Anything, "session-token").Return(activeSessionWithBinding(), nil)
	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{
		ID: "child-1", FamilyID: "fam-1", IsActive: false,
	}, nil)

	_, err := f.svc.RestoreSession(context.Background(), RestoreSessionInput{
		SessionToken: "session-token",
		DeviceID:     "device-1",
		DeviceSecret: "secret-1",
	})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}
