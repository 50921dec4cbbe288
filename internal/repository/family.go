package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type FamilyRepository interface {
	FindByID(ctx context.Context, id string) (*model.Family, error)
	FindByCode(ctx context.Context, familyCode string) (*model.Family, error)
	Create(ctx context.Context, params model.CreateFamilyParams) (*model.Family, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Family, error)
}

type familyRepo struct {
	db database.DBTX
}

func NewFamilyRepository(db database.DBTX) FamilyRepository {
	return &familyRepo{db: db}
}

func (r *familyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	var f model.Family
	err := r.db.GetContext(ctx, &f, `SELECT * FROM families WHERE id = $1`, id)
	return HandleNotFound(&f, err)
}

func (r *familyRepo) FindByCode(ctx context.Context, familyCode string) (*model.Family, error) {
	var f model.Family
	err := r.db.GetContext(ctx, &f, `SELECT * FROM families WHERE family_code = $1`, familyCode)
	return HandleNotFound(&f, err)
}

func (r *familyRepo) Create(ctx context.Context, params model.CreateFamilyParams) (*model.Family, error) {
	var f model.Family
	err := r.db.GetContext(ctx, &f, `
		INSERT INTO families (owner_user_id, family_code, clan_name)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.OwnerUserID, params.FamilyCode, params.ClanName)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *familyRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Family, error) {
	var families []model.Family
	err := r.db.SelectContext(ctx, &families, `
		SELECT * FROM families
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return families, err
}
