package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"event-booking/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// bindJSON decodes the request body into dst and rejects payloads carrying
// fields the target struct does not declare. An empty body binds as an
// empty request; all request fields are optional at this layer.
func bindJSON(e *core.RequestEvent, dst any) error {
	dec := json.NewDecoder(e.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// apiError translates service errors into HTTP responses with a stable
// machine-readable code alongside the message.
func apiError(e *core.RequestEvent, err error) error {
	switch {
	case errors.Is(err, status.ErrPaymentVerificationFailed):
		return e.JSON(http.StatusBadRequest, errorBody("payment_verification_failed", err))
	case errors.Is(err, status.ErrInsufficientFunds):
		return e.JSON(http.StatusBadRequest, errorBody("insufficient_funds", err))
	case errors.Is(err, status.ErrInsufficientStock):
		return e.JSON(http.StatusConflict, errorBody("insufficient_stock", err))
	case errors.Is(err, status.ErrCouponRejected):
		return e.JSON(http.StatusBadRequest, errorBody("coupon_rejected", err))
	case errors.Is(err, status.ErrAmountMismatch):
		return e.JSON(http.StatusBadRequest, errorBody("amount_mismatch", err))
	case errors.Is(err, status.ErrInvalidState):
		return e.JSON(http.StatusConflict, errorBody("invalid_state", err))
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("resource not found", nil)
	case errors.Is(err, status.ErrGatewayUnavailable):
		return apis.NewApiError(http.StatusServiceUnavailable, "payment gateway unavailable", nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "something went wrong", nil)
	}
}

func errorBody(code string, err error) map[string]string {
	return map[string]string{
		"code":    code,
		"message": err.Error(),
	}
}

// pageQuery reads the page and perPage query parameters, zero when absent.
func pageQuery(e *core.RequestEvent) (int, int) {
	q := e.Request.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	return page, perPage
}
