package repository

import (
	"context"
	"time"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type AccessRequestRepository interface {
	FindByID(ctx context.Context, id string) (*model.AccessRequest, error)
	FindPendingByFamilyID(ctx context.Context, familyID string) ([]model.AccessRequest, error)
	Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error)
	// MarkDecided flips a pending request into a terminal status. It reports
	// whether a row was actually updated, so callers can detect a request that
	// was decided concurrently.
	MarkDecided(ctx context.Context, id string, status model.AccessRequestStatus, decidedBy string, childID *string) (bool, error)
	DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error)
	FindAll(ctx context.Context, status string, limit, offset int) ([]model.AccessRequest, error)
}

type accessRequestRepo struct {
	db database.DBTX
}

func NewAccessRequestRepository(db database.DBTX) AccessRequestRepository {
	return &accessRequestRepo{db: db}
}

func (r *accessRequestRepo) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM access_requests WHERE id = $1`, id)
	return HandleNotFound(&req, err)
}

func (r *accessRequestRepo) FindPendingByFamilyID(ctx context.Context, familyID string) ([]model.AccessRequest, error) {
	var requests []model.AccessRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM access_requests
		WHERE family_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`, familyID)
	return requests, err
}

func (r *accessRequestRepo) Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `
		INSERT INTO access_requests (family_id, first_name, last_name, device_id, device_secret, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING *
	`, params.FamilyID, params.FirstName, params.LastName, params.DeviceID, params.DeviceSecret)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *accessRequestRepo) MarkDecided(ctx context.Context, id string, status model.AccessRequestStatus, decidedBy string, childID *string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_requests SET
			status = $2,
			decided_at = NOW(),
			decided_by = $3,
			child_id = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, decidedBy, childID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *accessRequestRepo) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM access_requests
		WHERE status = 'pending' AND created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accessRequestRepo) FindAll(ctx context.Context, status string, limit, offset int) ([]model.AccessRequest, error) {
	var requests []model.AccessRequest
	if status != "" {
		err := r.db.SelectContext(ctx, &requests, `
			SELECT * FROM access_requests
			WHERE status = $1
			ORDER BY created_at ASC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
		return requests, err
	}
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM access_requests
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return requests, err
}
