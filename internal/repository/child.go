package repository

import (
	"context"
	"time"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type ChildRepository interface {
	FindByID(ctx context.Context, id string) (*model.Child, error)
	FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.Child, error)
	Create(ctx context.Context, params model.CreateChildParams) (*model.Child, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
	FindAll(ctx context.Context, limit, offset int) ([]model.Child, error)
}

type childRepo struct {
	db database.DBTX
}

func NewChildRepository(db database.DBTX) ChildRepository {
	return &childRepo{db: db}
}

func (r *childRepo) FindByID(ctx context.Context, id string) (*model.Child, error) {
	var c model.Child
	err := r.db.GetContext(ctx, &c, `SELECT * FROM children WHERE id = $1`, id)
	return HandleNotFound(&c, err)
}

func (r *childRepo) FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.Child, error) {
	var children []model.Child
	query := `SELECT * FROM children WHERE family_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &children, query, familyID)
	return children, err
}

func (r *childRepo) Create(ctx context.Context, params model.CreateChildParams) (*model.Child, error) {
	var c model.Child
	err := r.db.GetContext(ctx, &c, `
		INSERT INTO children (family_id, first_name, last_name, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING *
	`, params.FamilyID, params.FirstName, params.LastName)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *childRepo) Deactivate(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE children SET is_active = FALSE, deactivated_at = $2
		WHERE id = $1
	`, id, at)
	return err
}

func (r *childRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Child, error) {
	var children []model.Child
	err := r.db.SelectContext(ctx, &children, `
		SELECT * FROM children
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return children, err
}
