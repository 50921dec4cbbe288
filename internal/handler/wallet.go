package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

// WalletHandler serves a child's view of their own wallet.
type WalletHandler struct {
	ledgerService *service.LedgerService
}

func NewWalletHandler(ledgerService *service.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService}
}

func (h *WalletHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Wallet)
	r.Get("/transactions", h.Transactions)

	return r
}

// GET /wallet
func (h *WalletHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.ledgerService.GetChildWallet(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet": wallet})
}

// GET /wallet/transactions
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	txs, err := h.ledgerService.GetChildTransactions(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}
