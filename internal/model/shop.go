package model

import "time"

type ShopProduct struct {
	ID          string    `db:"id" json:"id"`
	FamilyID    string    `db:"family_id" json:"familyId"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       int64     `db:"price" json:"price"`
	ImageKey    *string   `db:"image_key" json:"imageKey,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateShopProductParams struct {
	FamilyID    string
	Title       string
	Description *string
	Price       int64
	ImageKey    *string
}

// ShopPurchase escrows FrozenAmount at request time. Rejection refunds exactly
// FrozenAmount; approval leaves the funds spent.
type ShopPurchase struct {
	ID           string         `db:"id" json:"id"`
	FamilyID     string         `db:"family_id" json:"familyId"`
	ChildID      string         `db:"child_id" json:"childId"`
	ProductID    string         `db:"product_id" json:"productId"`
	Quantity     int            `db:"quantity" json:"quantity"`
	TotalPrice   int64          `db:"total_price" json:"totalPrice"`
	FrozenAmount int64          `db:"frozen_amount" json:"frozenAmount"`
	Status       PurchaseStatus `db:"status" json:"status"`
	DecidedAt    *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy    *string        `db:"decided_by" json:"decidedBy,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

type CreateShopPurchaseParams struct {
	FamilyID     string
	ChildID      string
	ProductID    string
	Quantity     int
	TotalPrice   int64
	FrozenAmount int64
}

// PendingPurchase is the parent review-queue projection.
type PendingPurchase struct {
	ID           string         `db:"id" json:"id"`
	Status       PurchaseStatus `db:"status" json:"status"`
	TotalPrice   int64          `db:"total_price" json:"totalPrice"`
	Quantity     int            `db:"quantity" json:"quantity"`
	ProductTitle string         `db:"product_title" json:"productTitle"`
	ChildID      string         `db:"child_id" json:"childId"`
	ChildName    string         `db:"child_name" json:"childName"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}
