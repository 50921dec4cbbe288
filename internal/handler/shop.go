package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

type ShopHandler struct {
	shopService *service.ShopService
}

func NewShopHandler(shopService *service.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

func (h *ShopHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Post("/products", h.CreateProduct)
	r.Post("/products/{id}/active", h.SetProductActive)
	r.Post("/purchases", h.RequestPurchase)
	r.Get("/purchases/pending", h.PendingPurchases)
	r.Post("/purchases/{id}/decide", h.DecidePurchase)

	return r
}

// GET /shop/products
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.shopService.ListProducts(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// POST /shop/products
func (h *ShopHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	product, err := h.shopService.CreateProduct(r.Context(), middleware.GetPrincipal(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// POST /shop/products/{id}/active
func (h *ShopHandler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.shopService.SetProductActive(r.Context(), middleware.GetPrincipal(r.Context()), productID, req.IsActive); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /shop/purchases
func (h *ShopHandler) RequestPurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.ProductID == "" {
		writeError(w, apperrors.MissingRequired("productId"))
		return
	}

	purchase, err := h.shopService.RequestPurchase(r.Context(), middleware.GetPrincipal(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// GET /shop/purchases/pending
func (h *ShopHandler) PendingPurchases(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	pending, err := h.shopService.ListPendingPurchases(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": pending})
}

// POST /shop/purchases/{id}/decide
func (h *ShopHandler) DecidePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	purchase, err := h.shopService.DecidePurchase(r.Context(), middleware.GetPrincipal(r.Context()), purchaseID, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}
