package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	FindAdultsByFamilyID(ctx context.Context, familyID string) ([]model.Profile, error)
	Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error)
	UpdateRole(ctx context.Context, userID string, role model.Role) error
	FindAll(ctx context.Context, limit, offset int) ([]model.Profile, error)
}

type profileRepo struct {
	db database.DBTX
}

func NewProfileRepository(db database.DBTX) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	return HandleNotFound(&p, err)
}

func (r *profileRepo) FindAdultsByFamilyID(ctx context.Context, familyID string) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		WHERE family_id = $1 AND role IN ('parent', 'admin')
		ORDER BY created_at ASC
	`, familyID)
	return profiles, err
}

func (r *profileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO profiles (user_id, family_id, role, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.UserID, params.FamilyID, params.Role, params.DisplayName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) UpdateRole(ctx context.Context, userID string, role model.Role) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET role = $2 WHERE user_id = $1
	`, userID, role)
	return err
}

func (r *profileRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return profiles, err
}
