package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type ShopPurchaseRepository interface {
	FindByID(ctx context.Context, id string) (*model.ShopPurchase, error)
	FindPendingByFamilyID(ctx context.Context, familyID string, limit int) ([]model.PendingPurchase, error)
	Create(ctx context.Context, params model.CreateShopPurchaseParams) (*model.ShopPurchase, error)
	// MarkDecided flips a requested purchase into a terminal status and reports
	// whether a row was updated.
	MarkDecided(ctx context.Context, id string, status model.PurchaseStatus, decidedBy string) (bool, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.ShopPurchase, error)
}

type shopPurchaseRepo struct {
	db database.DBTX
}

func NewShopPurchaseRepository(db database.DBTX) ShopPurchaseRepository {
	return &shopPurchaseRepo{db: db}
}

func (r *shopPurchaseRepo) FindByID(ctx context.Context, id string) (*model.ShopPurchase, error) {
	var p model.ShopPurchase
	err := r.db.GetContext(ctx, &p, `SELECT * FROM shop_purchases WHERE id = $1`, id)
	return HandleNotFound(&p, err)
}

func (r *shopPurchaseRepo) FindPendingByFamilyID(ctx context.Context, familyID string, limit int) ([]model.PendingPurchase, error) {
	var purchases []model.PendingPurchase
	err := r.db.SelectContext(ctx, &purchases, `
		SELECT
			sp.id,
			sp.status,
			sp.total_price,
			sp.quantity,
			sp.child_id,
			sp.created_at,
			p.title AS product_title,
			TRIM(c.first_name || ' ' || COALESCE(c.last_name, '')) AS child_name
		FROM shop_purchases sp
		JOIN shop_products p ON p.id = sp.product_id
		JOIN children c ON c.id = sp.child_id
		WHERE sp.family_id = $1 AND sp.status = 'requested'
		ORDER BY sp.created_at DESC
		LIMIT $2
	`, familyID, limit)
	return purchases, err
}

func (r *shopPurchaseRepo) Create(ctx context.Context, params model.CreateShopPurchaseParams) (*model.ShopPurchase, error) {
	var p model.ShopPurchase
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO shop_purchases (family_id, child_id, product_id, quantity, total_price, frozen_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'requested')
		RETURNING *
	`, params.FamilyID, params.ChildID, params.ProductID, params.Quantity, params.TotalPrice, params.FrozenAmount)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *shopPurchaseRepo) MarkDecided(ctx context.Context, id string, status model.PurchaseStatus, decidedBy string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE shop_purchases SET
			status = $2,
			decided_at = NOW(),
			decided_by = $3
		WHERE id = $1 AND status = 'requested'
	`, id, status, decidedBy)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *shopPurchaseRepo) FindAll(ctx context.Context, limit, offset int) ([]model.ShopPurchase, error) {
	var purchases []model.ShopPurchase
	err := r.db.SelectContext(ctx, &purchases, `
		SELECT * FROM shop_purchases
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return purchases, err
}
