package service

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/repository"
)

// AdminService is the platform operator surface: cross-family listings plus
// overrides that act on any family. Overrides re-enter the regular services
// with the target entity's family scope so every invariant still applies.
type AdminService struct {
	repos  *repository.Repos
	family *FamilyService
	shop   *ShopService
}

func NewAdminService(db *database.DB, family *FamilyService, shop *ShopService) *AdminService {
	return &AdminService{
		repos:  repository.NewRepos(db),
		family: family,
		shop:   shop,
	}
}

func (s *AdminService) requirePlatformAdmin(actor *model.Principal) error {
	if !actor.Role.Can(model.CapPlatformAdmin) {
		return apperrors.Forbidden("Platform admin only")
	}
	return nil
}

func (s *AdminService) ListFamilies(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.Family, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	families, err := s.repos.Families.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return families, nil
}

func (s *AdminService) ListProfiles(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.Profile, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	profiles, err := s.repos.Profiles.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return profiles, nil
}

func (s *AdminService) ListChildren(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.Child, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	children, err := s.repos.Children.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return children, nil
}

func (s *AdminService) ListQuests(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.Quest, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	quests, err := s.repos.Quests.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return quests, nil
}

func (s *AdminService) ListProducts(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.ShopProduct, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	products, err := s.repos.Products.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return products, nil
}

func (s *AdminService) ListPurchases(ctx context.Context, actor *model.Principal, limit, offset int) ([]model.ShopPurchase, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	purchases, err := s.repos.Purchases.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return purchases, nil
}

func (s *AdminService) ListAccessRequests(ctx context.Context, actor *model.Principal, status string, limit, offset int) ([]model.AccessRequest, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	reqs, err := s.repos.AccessRequests.FindAll(ctx, status, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return reqs, nil
}

// DecideAccessRequest approves or rejects a pairing request in any family.
func (s *AdminService) DecideAccessRequest(ctx context.Context, actor *model.Principal, requestID string, approve bool) (*ApproveResult, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}

	req, err := s.repos.AccessRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}

	scoped := s.impersonate(actor, req.FamilyID)
	if approve {
		return s.family.ApproveAccessRequest(ctx, scoped, requestID)
	}
	return nil, s.family.RejectAccessRequest(ctx, scoped, requestID)
}

// DeactivateChild deactivates a child in any family.
func (s *AdminService) DeactivateChild(ctx context.Context, actor *model.Principal, childID string) error {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return err
	}

	child, err := s.repos.Children.FindByID(ctx, childID)
	if err != nil {
		return apperrors.Database(err)
	}
	if child == nil {
		return apperrors.NotFound("Child")
	}

	return s.family.DeactivateChild(ctx, s.impersonate(actor, child.FamilyID), childID)
}

// DecidePurchase resolves a purchase in any family.
func (s *AdminService) DecidePurchase(ctx context.Context, actor *model.Principal, purchaseID string, approve bool) (*model.ShopPurchase, error) {
	if err := s.requirePlatformAdmin(actor); err != nil {
		return nil, err
	}

	purchase, err := s.repos.Purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if purchase == nil {
		return nil, apperrors.NotFound("Purchase")
	}

	return s.shop.DecidePurchase(ctx, s.impersonate(actor, purchase.FamilyID), purchaseID, approve)
}

// impersonate scopes the admin principal to the target entity's family while
// keeping their identity for the decision record.
func (s *AdminService) impersonate(actor *model.Principal, familyID string) *model.Principal {
	return &model.Principal{
		Role:     model.RoleAdmin,
		UserID:   actor.UserID,
		FamilyID: familyID,
	}
}
