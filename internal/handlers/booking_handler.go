package handlers

import (
	"net/http"

	"event-booking/internal/services"
	"event-booking/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	bookings *services.BookingService
	currency string
}

func NewBookingHandler(bookings *services.BookingService, currency string) *BookingHandler {
	return &BookingHandler{bookings: bookings, currency: currency}
}

// CreateOrder opens a gateway payment order for the authenticated user.
func (h *BookingHandler) CreateOrder(e *core.RequestEvent) error {
	var req models.OrderRequest
	if err := bindJSON(e, &req); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	orderID, err := h.bookings.CreateOrder(e.Request.Context(), e.Auth.Id, req.TotalAmount)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order_id": orderID,
		"amount":   req.TotalAmount,
		"currency": h.currency,
	})
}

// VerifyPayment confirms a gateway payment and creates the booking.
func (h *BookingHandler) VerifyPayment(e *core.RequestEvent) error {
	var req models.VerifyPaymentRequest
	if err := bindJSON(e, &req); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	booking, err := h.bookings.ConfirmGatewayBooking(e.Request.Context(), e.Auth.Id, &req)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, booking)
}

// CreateWalletBooking books tickets paid directly from the wallet balance.
func (h *BookingHandler) CreateWalletBooking(e *core.RequestEvent) error {
	var req models.WalletBookingRequest
	if err := bindJSON(e, &req); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}
	if req.PaymentMethod != models.MethodWallet {
		return apis.NewBadRequestError("payment_method must be wallet", nil)
	}

	booking, err := h.bookings.CreateWalletBooking(e.Request.Context(), e.Auth.Id, &req)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusCreated, booking)
}

// Cancel cancels the caller's booking and refunds the wallet.
func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	bookingID := e.Request.PathValue("id")

	var req models.CancelRequest
	if err := bindJSON(e, &req); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	booking, err := h.bookings.Cancel(e.Request.Context(), e.Auth.Id, bookingID, req.Reason, false)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, booking)
}

// ListMine returns the caller's bookings, newest first.
func (h *BookingHandler) ListMine(e *core.RequestEvent) error {
	page, perPage := pageQuery(e)

	bookings, err := h.bookings.ListUserBookings(e.Request.Context(), e.Auth.Id, page, perPage)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, bookings)
}
