package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

const sessionWithBindingColumns = `
	s.*,
	b.device_id AS binding_device_id,
	b.device_secret AS binding_device_secret,
	b.is_active AS binding_is_active
`

type ChildSessionRepository interface {
	FindByToken(ctx context.Context, token string) (*model.SessionWithBinding, error)
	// FindActiveByDeviceID returns active sessions whose active binding carries
	// the given device id, newest first. The caller verifies the device secret.
	FindActiveByDeviceID(ctx context.Context, deviceID string) ([]model.SessionWithBinding, error)
	Create(ctx context.Context, params model.CreateChildSessionParams) (*model.ChildSession, error)
	// RevokeActiveByChildID deactivates every active session built on any of
	// the child's bindings.
	RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error)
}

type childSessionRepo struct {
	db database.DBTX
}

func NewChildSessionRepository(db database.DBTX) ChildSessionRepository {
	return &childSessionRepo{db: db}
}

func (r *childSessionRepo) FindByToken(ctx context.Context, token string) (*model.SessionWithBinding, error) {
	var s model.SessionWithBinding
	err := r.db.GetContext(ctx, &s, `
		SELECT `+sessionWithBindingColumns+`
		FROM child_sessions s
		JOIN device_bindings b ON b.id = s.binding_id
		WHERE s.token = $1
	`, token)
	return HandleNotFound(&s, err)
}

func (r *childSessionRepo) FindActiveByDeviceID(ctx context.Context, deviceID string) ([]model.SessionWithBinding, error) {
	var sessions []model.SessionWithBinding
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionWithBindingColumns+`
		FROM child_sessions s
		JOIN device_bindings b ON b.id = s.binding_id
		WHERE s.is_active = TRUE AND b.is_active = TRUE AND b.device_id = $1
		ORDER BY s.created_at DESC
	`, deviceID)
	return sessions, err
}

func (r *childSessionRepo) Create(ctx context.Context, params model.CreateChildSessionParams) (*model.ChildSession, error) {
	var s model.ChildSession
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO child_sessions (family_id, child_id, binding_id, token, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING *
	`, params.FamilyID, params.ChildID, params.BindingID, params.Token)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *childSessionRepo) RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE child_sessions SET
			is_active = FALSE,
			revoked_at = NOW(),
			revoked_by = $2
		WHERE is_active = TRUE AND binding_id IN (
			SELECT id FROM device_bindings WHERE child_id = $1 AND is_active = TRUE
		)
	`, childID, revokedBy)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
