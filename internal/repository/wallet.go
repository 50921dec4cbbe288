package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type WalletRepository interface {
	FindByID(ctx context.Context, id string) (*model.Wallet, error)
	FindByChildID(ctx context.Context, childID string) (*model.Wallet, error)
	// GetOrCreate returns the child's wallet, creating a zero-balance one if
	// missing. The upsert is keyed by child id so concurrent first accesses
	// cannot produce duplicate wallets.
	GetOrCreate(ctx context.Context, childID, familyID string) (*model.Wallet, error)
	// AddBalance applies a signed delta and returns the new balance. When
	// guarded is true, the update only applies if the resulting balance stays
	// non-negative; applied reports whether the row changed.
	AddBalance(ctx context.Context, walletID string, delta int64, guarded bool) (newBalance int64, applied bool, err error)
	AddTransaction(ctx context.Context, params model.CreateWalletTransactionParams) (*model.WalletTransaction, error)
	FindTransactions(ctx context.Context, walletID string, limit int) ([]model.WalletTransaction, error)
}

type walletRepo struct {
	db database.DBTX
}

func NewWalletRepository(db database.DBTX) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) FindByID(ctx context.Context, id string) (*model.Wallet, error) {
	var w model.Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE id = $1`, id)
	return HandleNotFound(&w, err)
}

func (r *walletRepo) FindByChildID(ctx context.Context, childID string) (*model.Wallet, error) {
	var w model.Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE child_id = $1`, childID)
	return HandleNotFound(&w, err)
}

func (r *walletRepo) GetOrCreate(ctx context.Context, childID, familyID string) (*model.Wallet, error) {
	var w model.Wallet
	err := r.db.GetContext(ctx, &w, `
		INSERT INTO wallets (child_id, family_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (child_id) DO UPDATE SET child_id = EXCLUDED.child_id
		RETURNING *
	`, childID, familyID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *walletRepo) AddBalance(ctx context.Context, walletID string, delta int64, guarded bool) (int64, bool, error) {
	query := `
		UPDATE wallets SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`
	if guarded {
		query += ` AND balance + $2 >= 0`
	}
	query += ` RETURNING balance`

	var balance int64
	err := r.db.GetContext(ctx, &balance, query, walletID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (r *walletRepo) AddTransaction(ctx context.Context, params model.CreateWalletTransactionParams) (*model.WalletTransaction, error) {
	var wt model.WalletTransaction
	err := r.db.GetContext(ctx, &wt, `
		INSERT INTO wallet_transactions (wallet_id, amount, tx_type, reason, note, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.WalletID, params.Amount, params.TxType, params.Reason, params.Note, params.Meta)
	if err != nil {
		return nil, err
	}
	return &wt, nil
}

func (r *walletRepo) FindTransactions(ctx context.Context, walletID string, limit int) ([]model.WalletTransaction, error) {
	var txs []model.WalletTransaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT * FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, walletID, limit)
	return txs, err
}
