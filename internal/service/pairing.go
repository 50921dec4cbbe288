package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
	"github.com/famquest/family-server-go/internal/util"
)

// PairingService handles the unauthenticated side of device pairing: a child
// device submits a request against a family code, polls for the decision, and
// restores its session on later launches. The device proves its identity with
// the device id/secret pair it generated at submit time.
type PairingService struct {
	repos    *repository.Repos
	auth     *AuthService
	notifier notify.Sink
}

func NewPairingService(db *database.DB, auth *AuthService, notifier notify.Sink) *PairingService {
	return &PairingService{
		repos:    repository.NewRepos(db),
		auth:     auth,
		notifier: notifier,
	}
}

type SubmitAccessRequestInput struct {
	FamilyCode   string  `json:"familyCode"`
	FirstName    string  `json:"firstName"`
	LastName     *string `json:"lastName,omitempty"`
	DeviceID     string  `json:"deviceId"`
	DeviceSecret string  `json:"deviceKey"`
}

type SubmitAccessRequestResult struct {
	RequestID string                    `json:"requestId"`
	Status    model.AccessRequestStatus `json:"status"`
}

// SubmitAccessRequest creates a pending pairing request for the family that
// owns the given code.
func (s *PairingService) SubmitAccessRequest(ctx context.Context, input SubmitAccessRequestInput) (*SubmitAccessRequestResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.FamilyCode))
	firstName := strings.TrimSpace(input.FirstName)
	if code == "" {
		return nil, apperrors.MissingRequired("familyCode")
	}
	if firstName == "" {
		return nil, apperrors.MissingRequired("firstName")
	}
	if input.DeviceID == "" || input.DeviceSecret == "" {
		return nil, apperrors.MissingRequired("deviceId and deviceKey")
	}

	family, err := s.repos.Families.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if family == nil {
		return nil, apperrors.NotFound("Family")
	}

	req, err := s.repos.AccessRequests.Create(ctx, model.CreateAccessRequestParams{
		FamilyID:     family.ID,
		FirstName:    firstName,
		LastName:     input.LastName,
		DeviceID:     input.DeviceID,
		DeviceSecret: input.DeviceSecret,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("request_id", req.ID).
		Str("family_id", family.ID).
		Msg("access request submitted")

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyAccessRequested,
		FamilyID: family.ID,
		Payload: map[string]any{
			"requestId": req.ID,
			"firstName": req.FirstName,
		},
	})

	return &SubmitAccessRequestResult{RequestID: req.ID, Status: req.Status}, nil
}

type PollResult struct {
	Status      model.AccessRequestStatus `json:"status"`
	Ready       bool                      `json:"ready"`
	AccessToken string                    `json:"accessToken,omitempty"`
	ChildID     string                    `json:"childId,omitempty"`
	ChildName   string                    `json:"childName,omitempty"`
	FamilyID    string                    `json:"familyId,omitempty"`
}

// PollAccessRequest reports the decision state of a request. Once approved it
// returns the child's bearer token, but only to the device that submitted the
// request.
func (s *PairingService) PollAccessRequest(ctx context.Context, requestID, deviceID, deviceSecret string) (*PollResult, error) {
	if deviceID == "" || deviceSecret == "" {
		return nil, apperrors.MissingRequired("deviceId and deviceKey")
	}

	req, err := s.repos.AccessRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}

	sameDevice := util.ConstantTimeEqual(req.DeviceID, deviceID)
	sameSecret := util.ConstantTimeEqual(req.DeviceSecret, deviceSecret)
	if !sameDevice || !sameSecret {
		return nil, apperrors.Forbidden("Device does not match this request")
	}

	if req.Status != model.AccessRequestApproved {
		return &PollResult{Status: req.Status}, nil
	}
	if req.ChildID == nil {
		return &PollResult{Status: req.Status}, nil
	}

	session, err := s.activeSessionForDevice(ctx, deviceID, deviceSecret)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ChildID != *req.ChildID {
		return &PollResult{Status: req.Status}, nil
	}

	return s.sessionResult(ctx, req.Status, session)
}

type RestoreSessionInput struct {
	SessionToken string `json:"sessionToken,omitempty"`
	DeviceID     string `json:"deviceId"`
	DeviceSecret string `json:"deviceKey"`
}

// RestoreSession re-issues a bearer token for a previously approved device,
// either by its stored session token or by device identity alone.
func (s *PairingService) RestoreSession(ctx context.Context, input RestoreSessionInput) (*PollResult, error) {
	if input.DeviceID == "" || input.DeviceSecret == "" {
		return nil, apperrors.MissingRequired("deviceId and deviceKey")
	}

	var session *model.SessionWithBinding
	var err error
	if input.SessionToken != "" {
		session, err = s.repos.Sessions.FindByToken(ctx, input.SessionToken)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if session != nil {
			sameDevice := util.ConstantTimeEqual(session.BindingDeviceID, input.DeviceID)
			sameSecret := util.ConstantTimeEqual(session.BindingDeviceSecret, input.DeviceSecret)
			if !sameDevice || !sameSecret {
				return nil, apperrors.Forbidden("Device does not match this session")
			}
		}
	} else {
		session, err = s.activeSessionForDevice(ctx, input.DeviceID, input.DeviceSecret)
		if err != nil {
			return nil, err
		}
	}

	if session == nil || !session.IsActive {
		return nil, apperrors.Forbidden("Session is no longer valid")
	}
	if !session.BindingIsActive {
		return nil, apperrors.Forbidden("Device access has been revoked")
	}

	return s.sessionResult(ctx, model.AccessRequestApproved, session)
}

// activeSessionForDevice finds the newest active session whose binding matches
// the device credentials. The lookup is by device id alone; the secret is
// compared here in constant time.
func (s *PairingService) activeSessionForDevice(ctx context.Context, deviceID, deviceSecret string) (*model.SessionWithBinding, error) {
	sessions, err := s.repos.Sessions.FindActiveByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	for i := range sessions {
		if util.ConstantTimeEqual(sessions[i].BindingDeviceSecret, deviceSecret) {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

func (s *PairingService) sessionResult(ctx context.Context, status model.AccessRequestStatus, session *model.SessionWithBinding) (*PollResult, error) {
	child, err := s.repos.Children.FindByID(ctx, session.ChildID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if child == nil || !child.IsActive {
		return nil, apperrors.Forbidden("Child account is deactivated")
	}

	accessToken, err := s.auth.SignChildToken(session.FamilyID, session.ChildID, session.Token)
	if err != nil {
		return nil, err
	}

	return &PollResult{
		Status:      status,
		Ready:       true,
		AccessToken: accessToken,
		ChildID:     child.ID,
		ChildName:   util.DisplayName(child.FirstName, child.LastName),
		FamilyID:    session.FamilyID,
	}, nil
}
