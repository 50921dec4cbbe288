package service

import (
	"context"
	"encoding/json"

	"github.com/famquest/family-server-go/internal/audit"
	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

// LedgerService owns wallet balances and the append-only transaction ledger.
// The Credit/Debit/Adjust primitives take the caller's repository bundle so a
// ledger write always lands in the same transaction as the state change that
// caused it.
type LedgerService struct {
	repos    *repository.Repos
	inTx     txRunner
	notifier notify.Sink
}

func NewLedgerService(db *database.DB, notifier notify.Sink) *LedgerService {
	return &LedgerService{
		repos:    repository.NewRepos(db),
		inTx:     newTxRunner(db),
		notifier: notifier,
	}
}

// Credit adds amount to the wallet and records the matching ledger entry.
// Returns the balance after the credit.
func (s *LedgerService) Credit(ctx context.Context, r *repository.Repos, walletID string, amount int64, txType model.TransactionType, reason string, note *string, meta map[string]any) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.InvalidInput("amount", "must be positive")
	}
	return s.apply(ctx, r, walletID, amount, false, txType, reason, note, meta)
}

// Debit subtracts amount from the wallet. The balance check and the update are
// one guarded statement, so two concurrent debits can never take the balance
// below zero.
func (s *LedgerService) Debit(ctx context.Context, r *repository.Repos, walletID string, amount int64, txType model.TransactionType, reason string, note *string, meta map[string]any) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.InvalidInput("amount", "must be positive")
	}
	return s.apply(ctx, r, walletID, -amount, true, txType, reason, note, meta)
}

// Adjust applies a signed manual correction. Negative adjustments are guarded
// the same way debits are.
func (s *LedgerService) Adjust(ctx context.Context, r *repository.Repos, walletID string, amount int64, note *string) (int64, error) {
	if amount == 0 {
		return 0, apperrors.InvalidInput("amount", "must be non-zero")
	}
	return s.apply(ctx, r, walletID, amount, amount < 0, model.TxAdjustment, "adjustment", note, nil)
}

func (s *LedgerService) apply(ctx context.Context, r *repository.Repos, walletID string, delta int64, guarded bool, txType model.TransactionType, reason string, note *string, meta map[string]any) (int64, error) {
	balance, applied, err := r.Wallets.AddBalance(ctx, walletID, delta, guarded)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if !applied {
		wallet, err := r.Wallets.FindByID(ctx, walletID)
		if err != nil {
			return 0, apperrors.Database(err)
		}
		if wallet == nil {
			return 0, apperrors.NotFound("Wallet")
		}
		return 0, apperrors.InsufficientFunds()
	}

	if _, err := r.Wallets.AddTransaction(ctx, model.CreateWalletTransactionParams{
		WalletID: walletID,
		Amount:   delta,
		TxType:   txType,
		Reason:   reason,
		Note:     note,
		Meta:     marshalMeta(meta),
	}); err != nil {
		return 0, apperrors.Database(err)
	}

	return balance, nil
}

// GetChildWallet returns the child's own wallet, creating it on first read.
func (s *LedgerService) GetChildWallet(ctx context.Context, actor *model.Principal) (*model.Wallet, error) {
	if !actor.Role.Can(model.CapReadOwnWallet) {
		return nil, apperrors.Forbidden("Wallet access is for children")
	}

	wallet, err := s.repos.Wallets.GetOrCreate(ctx, actor.ChildID, actor.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return wallet, nil
}

// GetChildTransactions returns the child's own ledger, newest first.
func (s *LedgerService) GetChildTransactions(ctx context.Context, actor *model.Principal, limit int) ([]model.WalletTransaction, error) {
	wallet, err := s.GetChildWallet(ctx, actor)
	if err != nil {
		return nil, err
	}

	txs, err := s.repos.Wallets.FindTransactions(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return txs, nil
}

// FamilyWallet pairs a child with their wallet for the parent overview.
type FamilyWallet struct {
	Child  model.Child  `json:"child"`
	Wallet model.Wallet `json:"wallet"`
}

// GetFamilyWallets returns one wallet per active child of the actor's family.
func (s *LedgerService) GetFamilyWallets(ctx context.Context, actor *model.Principal) ([]FamilyWallet, error) {
	if !actor.Role.Can(model.CapAdjustWallet) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if actor.FamilyID == "" {
		return nil, apperrors.Forbidden("No family")
	}

	children, err := s.repos.Children.FindByFamilyID(ctx, actor.FamilyID, true)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	out := make([]FamilyWallet, 0, len(children))
	for _, child := range children {
		wallet, err := s.repos.Wallets.GetOrCreate(ctx, child.ID, actor.FamilyID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		out = append(out, FamilyWallet{Child: child, Wallet: *wallet})
	}
	return out, nil
}

// GetChildLedger returns a family child's wallet and recent transactions for
// a parent or admin.
func (s *LedgerService) GetChildLedger(ctx context.Context, actor *model.Principal, childID string, limit int) (*model.Wallet, []model.WalletTransaction, error) {
	if !actor.Role.Can(model.CapAdjustWallet) {
		return nil, nil, apperrors.Forbidden("Insufficient permissions")
	}

	child, err := s.familyChild(ctx, actor, childID)
	if err != nil {
		return nil, nil, err
	}

	wallet, err := s.repos.Wallets.GetOrCreate(ctx, child.ID, child.FamilyID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	txs, err := s.repos.Wallets.FindTransactions(ctx, wallet.ID, limit)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	return wallet, txs, nil
}

// AdjustChildWallet applies a parent's manual correction to a child's wallet.
func (s *LedgerService) AdjustChildWallet(ctx context.Context, actor *model.Principal, childID string, amount int64, note *string) (*model.Wallet, error) {
	if !actor.Role.Can(model.CapAdjustWallet) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}

	child, err := s.familyChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}

	if note == nil {
		defaultNote := "Parent adjustment"
		note = &defaultNote
	}

	var wallet *model.Wallet
	err = s.inTx(ctx, func(r *repository.Repos) error {
		w, err := r.Wallets.GetOrCreate(ctx, child.ID, child.FamilyID)
		if err != nil {
			return apperrors.Database(err)
		}
		balance, err := s.Adjust(ctx, r, w.ID, amount, note)
		if err != nil {
			return err
		}
		w.Balance = balance
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventWalletAdjust,
		UserID:   actor.UserID,
		FamilyID: child.FamilyID,
		ChildID:  child.ID,
		Details:  map[string]interface{}{"amount": amount, "balance": wallet.Balance},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyWalletAdjusted,
		FamilyID: child.FamilyID,
		Payload: map[string]any{
			"childId": child.ID,
			"amount":  amount,
			"balance": wallet.Balance,
		},
	})

	return wallet, nil
}

func (s *LedgerService) familyChild(ctx context.Context, actor *model.Principal, childID string) (*model.Child, error) {
	child, err := s.repos.Children.FindByID(ctx, childID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if child == nil || child.FamilyID != actor.FamilyID {
		return nil, apperrors.NotFound("Child")
	}
	return child, nil
}

func marshalMeta(meta map[string]any) json.RawMessage {
	if len(meta) == 0 {
		return nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return data
}
