package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/audit"
	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

// FamilyService covers the parent-facing family surface: membership, access
// request decisions, device revocation, and child lifecycle.
type FamilyService struct {
	repos    *repository.Repos
	inTx     txRunner
	notifier notify.Sink
}

func NewFamilyService(db *database.DB, notifier notify.Sink) *FamilyService {
	return &FamilyService{
		repos:    repository.NewRepos(db),
		inTx:     newTxRunner(db),
		notifier: notifier,
	}
}

// FamilyContext is the family overview an adult sees after sign-in.
type FamilyContext struct {
	Family   *model.Family   `json:"family"`
	Members  []model.Profile `json:"members"`
	Children []model.Child   `json:"children"`
}

func (s *FamilyService) GetFamilyContext(ctx context.Context, actor *model.Principal) (*FamilyContext, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}

	family, err := s.repos.Families.FindByID(ctx, actor.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if family == nil {
		return nil, apperrors.NotFound("Family")
	}

	members, err := s.repos.Profiles.FindAdultsByFamilyID(ctx, actor.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	children, err := s.repos.Children.FindByFamilyID(ctx, actor.FamilyID, false)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &FamilyContext{Family: family, Members: members, Children: children}, nil
}

func (s *FamilyService) ListParentMembers(ctx context.Context, actor *model.Principal) ([]model.Profile, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	members, err := s.repos.Profiles.FindAdultsByFamilyID(ctx, actor.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return members, nil
}

func (s *FamilyService) ListChildren(ctx context.Context, actor *model.Principal, activeOnly bool) ([]model.Child, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	children, err := s.repos.Children.FindByFamilyID(ctx, actor.FamilyID, activeOnly)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return children, nil
}

func (s *FamilyService) ListAccessRequests(ctx context.Context, actor *model.Principal) ([]model.AccessRequest, error) {
	if !actor.Role.Can(model.CapDecideAccessRequest) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	reqs, err := s.repos.AccessRequests.FindPendingByFamilyID(ctx, actor.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return reqs, nil
}

// ApproveResult reports everything the approval cascade created.
type ApproveResult struct {
	Child        *model.Child         `json:"child"`
	Wallet       *model.Wallet        `json:"wallet"`
	Binding      *model.DeviceBinding `json:"binding"`
	SessionToken string               `json:"-"`
}

// ApproveAccessRequest turns a pending request into a working child account:
// child, zero-balance wallet, device binding, and active session are created
// and the request is flipped to approved, all in one transaction. A concurrent
// decision on the same request rolls the whole cascade back.
func (s *FamilyService) ApproveAccessRequest(ctx context.Context, actor *model.Principal, requestID string) (*ApproveResult, error) {
	req, err := s.decidableRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	result := &ApproveResult{}
	err = s.inTx(ctx, func(r *repository.Repos) error {
		child, err := r.Children.Create(ctx, model.CreateChildParams{
			FamilyID:  req.FamilyID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		wallet, err := r.Wallets.GetOrCreate(ctx, child.ID, req.FamilyID)
		if err != nil {
			return apperrors.Database(err)
		}

		binding, err := r.Bindings.Create(ctx, model.CreateDeviceBindingParams{
			FamilyID:     req.FamilyID,
			ChildID:      child.ID,
			DeviceID:     req.DeviceID,
			DeviceSecret: req.DeviceSecret,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		session, err := r.Sessions.Create(ctx, model.CreateChildSessionParams{
			FamilyID:  req.FamilyID,
			ChildID:   child.ID,
			BindingID: binding.ID,
			Token:     uuid.NewString(),
		})
		if err != nil {
			return apperrors.Database(err)
		}

		decided, err := r.AccessRequests.MarkDecided(ctx, req.ID, model.AccessRequestApproved, actor.UserID, &child.ID)
		if err != nil {
			return apperrors.Database(err)
		}
		if !decided {
			return apperrors.InvalidState("Access request already decided")
		}

		result.Child = child
		result.Wallet = wallet
		result.Binding = binding
		result.SessionToken = session.Token
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventAccessApprove,
		UserID:   actor.UserID,
		FamilyID: req.FamilyID,
		ChildID:  result.Child.ID,
		Details:  map[string]interface{}{"request_id": req.ID},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyAccessDecided,
		FamilyID: req.FamilyID,
		Payload: map[string]any{
			"requestId": req.ID,
			"status":    string(model.AccessRequestApproved),
			"childId":   result.Child.ID,
		},
	})

	return result, nil
}

// RejectAccessRequest flips a pending request to rejected. Nothing else is
// created.
func (s *FamilyService) RejectAccessRequest(ctx context.Context, actor *model.Principal, requestID string) error {
	req, err := s.decidableRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	decided, err := s.repos.AccessRequests.MarkDecided(ctx, req.ID, model.AccessRequestRejected, actor.UserID, nil)
	if err != nil {
		return apperrors.Database(err)
	}
	if !decided {
		return apperrors.InvalidState("Access request already decided")
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventAccessReject,
		UserID:   actor.UserID,
		FamilyID: req.FamilyID,
		Details:  map[string]interface{}{"request_id": req.ID},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyAccessDecided,
		FamilyID: req.FamilyID,
		Payload: map[string]any{
			"requestId": req.ID,
			"status":    string(model.AccessRequestRejected),
		},
	})

	return nil
}

// RevokeResult counts what a revocation touched.
type RevokeResult struct {
	SessionsRevoked int64 `json:"sessionsRevoked"`
	BindingsRevoked int64 `json:"bindingsRevoked"`
}

// RevokeChildDevices kills every active session and binding for a child.
// Sessions are revoked first: the session query walks active bindings, so the
// reverse order would strand sessions on already-revoked bindings.
func (s *FamilyService) RevokeChildDevices(ctx context.Context, actor *model.Principal, childID string) (*RevokeResult, error) {
	if !actor.Role.Can(model.CapRevokeDevices) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}

	child, err := s.familyChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}

	result := &RevokeResult{}
	err = s.inTx(ctx, func(r *repository.Repos) error {
		sessions, err := r.Sessions.RevokeActiveByChildID(ctx, child.ID, actor.UserID)
		if err != nil {
			return apperrors.Database(err)
		}
		bindings, err := r.Bindings.RevokeActiveByChildID(ctx, child.ID, actor.UserID)
		if err != nil {
			return apperrors.Database(err)
		}
		result.SessionsRevoked = sessions
		result.BindingsRevoked = bindings
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventDeviceRevoke,
		UserID:   actor.UserID,
		FamilyID: child.FamilyID,
		ChildID:  child.ID,
		Details: map[string]interface{}{
			"sessions": result.SessionsRevoked,
			"bindings": result.BindingsRevoked,
		},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyDeviceRevoked,
		FamilyID: child.FamilyID,
		Payload:  map[string]any{"childId": child.ID},
	})

	return result, nil
}

// DeactivateChild flags the child inactive and then revokes all their device
// access. Both steps complete before the call returns.
func (s *FamilyService) DeactivateChild(ctx context.Context, actor *model.Principal, childID string) error {
	if !actor.Role.Can(model.CapDeactivateChild) {
		return apperrors.Forbidden("Insufficient permissions")
	}

	child, err := s.familyChild(ctx, actor, childID)
	if err != nil {
		return err
	}
	if !child.IsActive {
		return apperrors.InvalidState("Child is already deactivated")
	}

	if err := s.repos.Children.Deactivate(ctx, child.ID, time.Now()); err != nil {
		return apperrors.Database(err)
	}

	if _, err := s.RevokeChildDevices(ctx, actor, child.ID); err != nil {
		return err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventChildDeactivate,
		UserID:   actor.UserID,
		FamilyID: child.FamilyID,
		ChildID:  child.ID,
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyChildDeactivated,
		FamilyID: child.FamilyID,
		Payload:  map[string]any{"childId": child.ID},
	})

	return nil
}

// GrantAdmin upgrades a same-family parent to admin.
func (s *FamilyService) GrantAdmin(ctx context.Context, actor *model.Principal, targetUserID string) error {
	if !actor.Role.Can(model.CapGrantAdmin) {
		return apperrors.Forbidden("Insufficient permissions")
	}

	target, err := s.repos.Profiles.FindByUserID(ctx, targetUserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if target == nil || target.FamilyID != actor.FamilyID {
		return apperrors.NotFound("User")
	}
	if target.Role == model.RoleAdmin {
		return apperrors.InvalidState("User is already an admin")
	}

	if err := s.repos.Profiles.UpdateRole(ctx, targetUserID, model.RoleAdmin); err != nil {
		return apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventAdminGrant,
		UserID:   actor.UserID,
		FamilyID: actor.FamilyID,
		Details:  map[string]interface{}{"target_user_id": targetUserID},
	})

	log.Info().
		Str("actor_id", actor.UserID).
		Str("target_user_id", targetUserID).
		Msg("admin role granted")

	return nil
}

func (s *FamilyService) decidableRequest(ctx context.Context, actor *model.Principal, requestID string) (*model.AccessRequest, error) {
	if !actor.Role.Can(model.CapDecideAccessRequest) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}

	req, err := s.repos.AccessRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil || req.FamilyID != actor.FamilyID {
		return nil, apperrors.NotFound("Access request")
	}
	if req.Status != model.AccessRequestPending {
		return nil, apperrors.InvalidState("Access request already decided")
	}
	return req, nil
}

func (s *FamilyService) familyChild(ctx context.Context, actor *model.Principal, childID string) (*model.Child, error) {
	child, err := s.repos.Children.FindByID(ctx, childID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if child == nil || child.FamilyID != actor.FamilyID {
		return nil, apperrors.NotFound("Child")
	}
	return child, nil
}

func requireFamily(actor *model.Principal) error {
	if actor.FamilyID == "" {
		return apperrors.Forbidden("No family context")
	}
	return nil
}
