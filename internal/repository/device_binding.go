package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type DeviceBindingRepository interface {
	FindByID(ctx context.Context, id string) (*model.DeviceBinding, error)
	FindActiveByChildID(ctx context.Context, childID string) ([]model.DeviceBinding, error)
	Create(ctx context.Context, params model.CreateDeviceBindingParams) (*model.DeviceBinding, error)
	// RevokeActiveByChildID deactivates every active binding of the child and
	// returns how many were revoked.
	RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error)
}

type deviceBindingRepo struct {
	db database.DBTX
}

func NewDeviceBindingRepository(db database.DBTX) DeviceBindingRepository {
	return &deviceBindingRepo{db: db}
}

func (r *deviceBindingRepo) FindByID(ctx context.Context, id string) (*model.DeviceBinding, error) {
	var b model.DeviceBinding
	err := r.db.GetContext(ctx, &b, `SELECT * FROM device_bindings WHERE id = $1`, id)
	return HandleNotFound(&b, err)
}

func (r *deviceBindingRepo) FindActiveByChildID(ctx context.Context, childID string) ([]model.DeviceBinding, error) {
	var bindings []model.DeviceBinding
	err := r.db.SelectContext(ctx, &bindings, `
		SELECT * FROM device_bindings
		WHERE child_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
	`, childID)
	return bindings, err
}

func (r *deviceBindingRepo) Create(ctx context.Context, params model.CreateDeviceBindingParams) (*model.DeviceBinding, error) {
	var b model.DeviceBinding
	err := r.db.GetContext(ctx, &b, `
		INSERT INTO device_bindings (family_id, child_id, device_id, device_secret, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING *
	`, params.FamilyID, params.ChildID, params.DeviceID, params.DeviceSecret)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *deviceBindingRepo) RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE device_bindings SET
			is_active = FALSE,
			revoked_at = NOW(),
			revoked_by = $2
		WHERE child_id = $1 AND is_active = TRUE
	`, childID, revokedBy)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
