package handlers

import (
	"net/http"

	"event-booking/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type WalletHandler struct {
	wallets *services.WalletService
}

func NewWalletHandler(wallets *services.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Get returns the caller's wallet, creating an empty one on first access.
func (h *WalletHandler) Get(e *core.RequestEvent) error {
	wallet, err := h.wallets.Get(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, wallet)
}

// Transactions returns the caller's ledger entries, newest first.
func (h *WalletHandler) Transactions(e *core.RequestEvent) error {
	page, perPage := pageQuery(e)

	txns, err := h.wallets.Transactions(e.Request.Context(), e.Auth.Id, page, perPage)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, txns)
}
