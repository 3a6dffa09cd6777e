package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"event-booking/internal/status"
	"event-booking/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestEvent(body string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	e.Response = rec
	return e, rec
}

func TestBindJSON(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		e, _ := newRequestEvent(`{"reason":"plans changed"}`)

		var req models.CancelRequest
		require.NoError(t, bindJSON(e, &req))
		assert.Equal(t, "plans changed", req.Reason)
	})

	t.Run("empty body binds as empty request", func(t *testing.T) {
		e, _ := newRequestEvent("")

		var req models.CancelRequest
		require.NoError(t, bindJSON(e, &req))
		assert.Empty(t, req.Reason)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		e, _ := newRequestEvent(`{"reason":"x","admin":true}`)

		var req models.CancelRequest
		err := bindJSON(e, &req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin")
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		e, _ := newRequestEvent(`{"reason":`)

		var req models.CancelRequest
		assert.Error(t, bindJSON(e, &req))
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		e, _ := newRequestEvent(`{"reason":"x"}{"reason":"y"}`)

		var req models.CancelRequest
		assert.Error(t, bindJSON(e, &req))
	})
}

func TestAPIErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{status.ErrPaymentVerificationFailed, http.StatusBadRequest, "payment_verification_failed"},
		{status.ErrInsufficientFunds, http.StatusBadRequest, "insufficient_funds"},
		{status.ErrCouponRejected, http.StatusBadRequest, "coupon_rejected"},
		{status.ErrAmountMismatch, http.StatusBadRequest, "amount_mismatch"},
		{status.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
		{status.ErrInvalidState, http.StatusConflict, "invalid_state"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			e, rec := newRequestEvent("")

			// wrapped errors must map the same as bare sentinels
			require.NoError(t, apiError(e, fmt.Errorf("context: %w", tc.err)))

			assert.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestAPIErrorStockDetail(t *testing.T) {
	e, rec := newRequestEvent("")

	stockErr := &status.InsufficientStockError{TicketType: "vip"}
	require.NoError(t, apiError(e, stockErr))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "vip")
}
