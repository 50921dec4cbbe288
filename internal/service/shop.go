package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/audit"
	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

// Caps quantity so price*quantity stays far from int64 overflow.
const maxPurchaseQuantity = 1000

// ShopService runs the family shop: parents manage products, children request
// purchases, parents decide them. Requesting a purchase freezes the full price
// out of the child's wallet; rejection refunds exactly the frozen amount.
type ShopService struct {
	repos    *repository.Repos
	inTx     txRunner
	ledger   *LedgerService
	notifier notify.Sink
}

func NewShopService(db *database.DB, ledger *LedgerService, notifier notify.Sink) *ShopService {
	return &ShopService{
		repos:    repository.NewRepos(db),
		inTx:     newTxRunner(db),
		ledger:   ledger,
		notifier: notifier,
	}
}

// ListProducts returns the family catalog. Children only see active products.
func (s *ShopService) ListProducts(ctx context.Context, actor *model.Principal) ([]model.ShopProduct, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	activeOnly := actor.Role == model.RoleChild
	products, err := s.repos.Products.FindByFamilyID(ctx, actor.FamilyID, activeOnly)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return products, nil
}

type CreateProductInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Price       int64   `json:"price"`
	ImageKey    *string `json:"imageKey,omitempty"`
}

func (s *ShopService) CreateProduct(ctx context.Context, actor *model.Principal, input CreateProductInput) (*model.ShopProduct, error) {
	if !actor.Role.Can(model.CapManageProducts) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.MissingRequired("title")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price", "must be positive")
	}

	product, err := s.repos.Products.Create(ctx, model.CreateShopProductParams{
		FamilyID:    actor.FamilyID,
		Title:       title,
		Description: input.Description,
		Price:       input.Price,
		ImageKey:    input.ImageKey,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return product, nil
}

// SetProductActive shows or hides a product from the child catalog. Pending
// purchases of a hidden product are unaffected.
func (s *ShopService) SetProductActive(ctx context.Context, actor *model.Principal, productID string, isActive bool) error {
	if !actor.Role.Can(model.CapManageProducts) {
		return apperrors.Forbidden("Insufficient permissions")
	}

	product, err := s.repos.Products.FindByID(ctx, productID)
	if err != nil {
		return apperrors.Database(err)
	}
	if product == nil || product.FamilyID != actor.FamilyID {
		return apperrors.NotFound("Product")
	}

	if err := s.repos.Products.SetActive(ctx, product.ID, isActive); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// RequestPurchase freezes quantity*price from the child's wallet and records
// the pending purchase. The freeze and the purchase row share one
// transaction, so an insufficient balance leaves no trace.
func (s *ShopService) RequestPurchase(ctx context.Context, actor *model.Principal, productID string, quantity int) (*model.ShopPurchase, error) {
	if !actor.Role.Can(model.CapRequestPurchase) {
		return nil, apperrors.Forbidden("Purchases are requested by children")
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > maxPurchaseQuantity {
		return nil, apperrors.InvalidInput("quantity", fmt.Sprintf("must be at most %d", maxPurchaseQuantity))
	}

	product, err := s.repos.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if product == nil || product.FamilyID != actor.FamilyID || !product.IsActive {
		return nil, apperrors.NotFound("Product")
	}

	total := product.Price * int64(quantity)
	if total/int64(quantity) != product.Price {
		return nil, apperrors.InvalidInput("quantity", "total price is out of range")
	}

	var purchase *model.ShopPurchase
	err = s.inTx(ctx, func(r *repository.Repos) error {
		wallet, err := r.Wallets.GetOrCreate(ctx, actor.ChildID, actor.FamilyID)
		if err != nil {
			return apperrors.Database(err)
		}

		note := fmt.Sprintf("Hold for purchase: %s", product.Title)
		if _, err := s.ledger.Debit(ctx, r, wallet.ID, total, model.TxFreeze, "shop_freeze", &note, map[string]any{
			"productId": product.ID,
			"quantity":  quantity,
		}); err != nil {
			return err
		}

		purchase, err = r.Purchases.Create(ctx, model.CreateShopPurchaseParams{
			FamilyID:     actor.FamilyID,
			ChildID:      actor.ChildID,
			ProductID:    product.ID,
			Quantity:     quantity,
			TotalPrice:   total,
			FrozenAmount: total,
		})
		if err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_id", purchase.ID).
		Str("child_id", actor.ChildID).
		Int64("total", total).
		Msg("purchase requested")

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyPurchaseRequest,
		FamilyID: actor.FamilyID,
		Payload: map[string]any{
			"purchaseId": purchase.ID,
			"childId":    actor.ChildID,
			"title":      product.Title,
			"total":      total,
		},
	})

	return purchase, nil
}

// ListPendingPurchases returns the parent review queue.
func (s *ShopService) ListPendingPurchases(ctx context.Context, actor *model.Principal, limit int) ([]model.PendingPurchase, error) {
	if !actor.Role.Can(model.CapDecidePurchase) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	pending, err := s.repos.Purchases.FindPendingByFamilyID(ctx, actor.FamilyID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return pending, nil
}

// DecidePurchase resolves a requested purchase. Approval spends the frozen
// amount; rejection refunds it in the same transaction as the status flip.
// Either way the purchase can only be decided once.
func (s *ShopService) DecidePurchase(ctx context.Context, actor *model.Principal, purchaseID string, approve bool) (*model.ShopPurchase, error) {
	if !actor.Role.Can(model.CapDecidePurchase) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}

	purchase, err := s.repos.Purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if purchase == nil || purchase.FamilyID != actor.FamilyID {
		return nil, apperrors.NotFound("Purchase")
	}
	if purchase.Status != model.PurchaseRequested {
		return nil, apperrors.InvalidState("Purchase already decided")
	}

	status := model.PurchaseRejected
	if approve {
		status = model.PurchaseApproved
	}

	err = s.inTx(ctx, func(r *repository.Repos) error {
		decided, err := r.Purchases.MarkDecided(ctx, purchase.ID, status, actor.UserID)
		if err != nil {
			return apperrors.Database(err)
		}
		if !decided {
			return apperrors.InvalidState("Purchase already decided")
		}

		if !approve {
			wallet, err := r.Wallets.GetOrCreate(ctx, purchase.ChildID, purchase.FamilyID)
			if err != nil {
				return apperrors.Database(err)
			}
			if _, err := s.ledger.Credit(ctx, r, wallet.ID, purchase.FrozenAmount, model.TxRefund, "shop_refund", nil, map[string]any{
				"purchaseId": purchase.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	purchase.Status = status

	audit.Log(ctx, audit.Event{
		Type:     audit.EventPurchaseDecide,
		UserID:   actor.UserID,
		FamilyID: purchase.FamilyID,
		ChildID:  purchase.ChildID,
		Details: map[string]interface{}{
			"purchase_id": purchase.ID,
			"status":      string(status),
		},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyPurchaseDecided,
		FamilyID: purchase.FamilyID,
		Payload: map[string]any{
			"purchaseId": purchase.ID,
			"childId":    purchase.ChildID,
			"status":     string(status),
		},
	})

	return purchase, nil
}
