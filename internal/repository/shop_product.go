package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type ShopProductRepository interface {
	FindByID(ctx context.Context, id string) (*model.ShopProduct, error)
	FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.ShopProduct, error)
	Create(ctx context.Context, params model.CreateShopProductParams) (*model.ShopProduct, error)
	SetActive(ctx context.Context, id string, isActive bool) error
	FindAll(ctx context.Context, limit, offset int) ([]model.ShopProduct, error)
}

type shopProductRepo struct {
	db database.DBTX
}

func NewShopProductRepository(db database.DBTX) ShopProductRepository {
	return &shopProductRepo{db: db}
}

func (r *shopProductRepo) FindByID(ctx context.Context, id string) (*model.ShopProduct, error) {
	var p model.ShopProduct
	err := r.db.GetContext(ctx, &p, `SELECT * FROM shop_products WHERE id = $1`, id)
	return HandleNotFound(&p, err)
}

func (r *shopProductRepo) FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.ShopProduct, error) {
	var products []model.ShopProduct
	query := `SELECT * FROM shop_products WHERE family_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &products, query, familyID)
	return products, err
}

func (r *shopProductRepo) Create(ctx context.Context, params model.CreateShopProductParams) (*model.ShopProduct, error) {
	var p model.ShopProduct
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO shop_products (family_id, title, description, price, image_key, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING *
	`, params.FamilyID, params.Title, params.Description, params.Price, params.ImageKey)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *shopProductRepo) SetActive(ctx context.Context, id string, isActive bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE shop_products SET is_active = $2 WHERE id = $1
	`, id, isActive)
	return err
}

func (r *shopProductRepo) FindAll(ctx context.Context, limit, offset int) ([]model.ShopProduct, error) {
	var products []model.ShopProduct
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM shop_products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return products, err
}
