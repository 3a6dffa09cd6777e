package status

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentVerificationFailed means the gateway signature did not match.
	// No booking exists and no side effects happened.
	ErrPaymentVerificationFailed = errors.New("payment: signature verification failed")

	// ErrInsufficientFunds means a wallet debit would overdraw the balance.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrInsufficientStock is the errors.Is target for InsufficientStockError.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")

	// ErrInvalidState rejects a transition the booking state machine does not
	// allow, e.g. cancelling a booking that is not confirmed.
	ErrInvalidState = errors.New("booking: invalid state for requested operation")

	// ErrNotFound covers missing bookings, events, ticket types and wallets.
	ErrNotFound = errors.New("resource not found")

	// ErrGatewayUnavailable means the payment provider could not be reached
	// or answered with a server error. The caller decides whether to retry.
	ErrGatewayUnavailable = errors.New("payment: gateway unavailable")

	// ErrCouponRejected means the coupon validator reported the code as not
	// applicable to this order. The booking attempt fails instead of
	// silently dropping the discount.
	ErrCouponRejected = errors.New("coupon: not applicable to this order")

	// ErrAmountMismatch means the client-supplied amounts do not match the
	// server-side recomputation from ticket prices and coupon discount.
	ErrAmountMismatch = errors.New("booking: submitted amount does not match computed amount")
)

// InsufficientStockError names the first ticket type that could not be
// reserved. It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	TicketType string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for ticket type %q", e.TicketType)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
