package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event-booking/config"
	"event-booking/internal/gateway"
	"event-booking/internal/notify"
	"event-booking/internal/status"
	"event-booking/models"
	"event-booking/monitoring"
	"event-booking/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// errConfirmInFlight means another request is currently confirming the same
// payment id. Internal to the idempotency guard.
var errConfirmInFlight = errors.New("confirmation already in flight")

// BookingService is the orchestrator: it drives both payment protocols,
// owns every booking status transition and performs the compensating
// actions on cancellation. The gateway and notifier are injected so tests
// can substitute fakes.
type BookingService struct {
	app      core.App
	gateway  gateway.PaymentGateway
	coupons  *CouponService
	notifier notify.Notifier
	redis    *redis.Client
	cfg      *config.Config
}

func NewBookingService(
	app core.App,
	gw gateway.PaymentGateway,
	coupons *CouponService,
	notifier notify.Notifier,
	redisClient *redis.Client,
	cfg *config.Config,
) *BookingService {
	return &BookingService{
		app:      app,
		gateway:  gw,
		coupons:  coupons,
		notifier: notifier,
		redis:    redisClient,
		cfg:      cfg,
	}
}

// CreateOrder starts the gateway payment flow. No booking record exists
// until the payment comes back verified.
func (s *BookingService) CreateOrder(ctx context.Context, userID string, totalAmount decimal.Decimal) (string, error) {
	if !totalAmount.IsPositive() {
		return "", fmt.Errorf("order amount must be positive: %w", status.ErrAmountMismatch)
	}

	receipt, err := utils.ReceiptCode()
	if err != nil {
		return "", fmt.Errorf("createOrder: %w", err)
	}

	orderID, err := s.gateway.CreateOrder(ctx, totalAmount, s.cfg.Currency, receipt)
	if err != nil {
		monitoring.RecordGatewayOrder("error")
		return "", err
	}

	monitoring.RecordGatewayOrder("created")
	slog.Info("gateway order created", "order_id", orderID, "user_id", userID, "amount", totalAmount)

	return orderID, nil
}

// ConfirmGatewayBooking completes the gateway flow: it verifies the payment
// signature, re-validates inventory at confirmation time and persists the
// booking. Confirmation is idempotent per payment id: a replay returns the
// already-created booking untouched.
func (s *BookingService) ConfirmGatewayBooking(ctx context.Context, userID string, req *models.VerifyPaymentRequest) (*models.Booking, error) {
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		monitoring.RecordVerificationFailure()
		monitoring.RecordBooking(models.MethodGateway, "verification_failed")
		return nil, status.ErrPaymentVerificationFailed
	}

	if existing, err := s.findByPaymentID(ctx, req.PaymentID); err == nil {
		return existing, nil
	}

	release, err := s.acquireConfirmGuard(ctx, req.PaymentID)
	if errors.Is(err, errConfirmInFlight) {
		// a concurrent request holds the guard; if it already committed,
		// hand back its booking, otherwise fall through and let the unique
		// payment_id index arbitrate
		if existing, lookupErr := s.findByPaymentID(ctx, req.PaymentID); lookupErr == nil {
			return existing, nil
		}
	} else if err == nil {
		defer release()
	}

	lines, discounted, err := s.priceAndValidate(ctx, userID, req.EventID, req.Tickets, req.CouponID, req.TotalAmount, req.DiscountedAmount)
	if err != nil {
		return nil, err
	}

	var rec *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		inv := NewInventoryService(txApp)
		if err := inv.Reserve(ctx, req.EventID, req.Tickets); err != nil {
			return err
		}

		var saveErr error
		rec, saveErr = s.createBookingRecord(ctx, txApp, &bookingParams{
			userID:        userID,
			eventID:       req.EventID,
			lines:         lines,
			couponID:      req.CouponID,
			total:         req.TotalAmount,
			discounted:    discounted,
			paymentMethod: models.MethodGateway,
			paymentID:     req.PaymentID,
			orderID:       req.OrderID,
		})
		return saveErr
	})
	if txErr != nil {
		var stockErr *status.InsufficientStockError
		if errors.As(txErr, &stockErr) {
			// the external charge is already captured; surface the failure
			// and leave a trace for manual reconciliation instead of
			// swallowing it
			slog.Warn("captured payment has no booking, needs reconciliation",
				"payment_id", req.PaymentID,
				"order_id", req.OrderID,
				"ticket_type", stockErr.TicketType,
			)
			monitoring.RecordBooking(models.MethodGateway, "insufficient_stock")
			return nil, txErr
		}
		// a concurrent confirmation may have won the unique payment_id index
		if existing, lookupErr := s.findByPaymentID(ctx, req.PaymentID); lookupErr == nil {
			return existing, nil
		}
		return nil, txErr
	}

	booking := models.BookingFromRecord(rec)
	monitoring.RecordBooking(models.MethodGateway, "confirmed")
	monitoring.RecordBookingAmount(discounted.InexactFloat64())
	s.notifier.BookingConfirmed(ctx, booking)

	return booking, nil
}

// CreateWalletBooking runs the direct wallet protocol. Reservation and debit
// share one transaction, reserve first: a failed debit rolls the reserved
// stock back with the transaction, so no compensating credit is ever needed.
func (s *BookingService) CreateWalletBooking(ctx context.Context, userID string, req *models.WalletBookingRequest) (*models.Booking, error) {
	lines, discounted, err := s.priceAndValidate(ctx, userID, req.EventID, req.Tickets, req.CouponID, req.TotalAmount, req.DiscountedAmount)
	if err != nil {
		return nil, err
	}

	// cheap pre-check before opening the transaction; the conditional
	// decrement inside it remains the authority under concurrency
	if err := NewInventoryService(s.app).CheckAvailability(ctx, req.EventID, req.Tickets); err != nil {
		if errors.Is(err, status.ErrInsufficientStock) {
			monitoring.RecordBooking(models.MethodWallet, "insufficient_stock")
		}
		return nil, err
	}

	paymentID, err := utils.WalletPaymentID()
	if err != nil {
		return nil, fmt.Errorf("walletBooking: %w", err)
	}

	var rec *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		inv := NewInventoryService(txApp)
		if err := inv.Reserve(ctx, req.EventID, req.Tickets); err != nil {
			return err
		}

		wallet := NewWalletService(txApp)
		description := fmt.Sprintf("ticket purchase for event %s", req.EventID)
		if err := wallet.Debit(ctx, userID, discounted, paymentID, description); err != nil {
			return err
		}

		var saveErr error
		rec, saveErr = s.createBookingRecord(ctx, txApp, &bookingParams{
			userID:        userID,
			eventID:       req.EventID,
			lines:         lines,
			couponID:      req.CouponID,
			total:         req.TotalAmount,
			discounted:    discounted,
			paymentMethod: models.MethodWallet,
			paymentID:     paymentID,
		})
		return saveErr
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, status.ErrInsufficientFunds):
			monitoring.RecordBooking(models.MethodWallet, "insufficient_funds")
		case errors.Is(txErr, status.ErrInsufficientStock):
			monitoring.RecordBooking(models.MethodWallet, "insufficient_stock")
		}
		return nil, txErr
	}

	booking := models.BookingFromRecord(rec)
	monitoring.RecordBooking(models.MethodWallet, "confirmed")
	monitoring.RecordBookingAmount(discounted.InexactFloat64())
	s.notifier.BookingConfirmed(ctx, booking)

	return booking, nil
}

// Cancel moves a confirmed booking to its terminal cancelled state,
// releases its inventory and refunds the full amount to the user's wallet,
// regardless of the original payment method. The status transition is a
// compare-and-swap from confirmed, so a concurrent second cancellation gets
// ErrInvalidState and produces no second release or credit.
func (s *BookingService) Cancel(ctx context.Context, callerID, bookingID, reason string, byHost bool) (*models.Booking, error) {
	var rec *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		rec, err = txApp.FindRecordById("bookings", bookingID)
		if err != nil {
			return status.ErrNotFound
		}

		if byHost {
			event, err := txApp.FindRecordById("events", rec.GetString("event"))
			if err != nil || event.GetString("host") != callerID {
				return status.ErrNotFound
			}
		} else if rec.GetString("user") != callerID {
			// a foreign booking is indistinguishable from a missing one
			return status.ErrNotFound
		}

		res, err := txApp.DB().
			NewQuery("UPDATE bookings SET status = {:to} WHERE id = {:id} AND status = {:from}").
			Bind(dbx.Params{
				"to":   models.BookingCancelled,
				"id":   rec.Id,
				"from": models.BookingConfirmed,
			}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
		if affected == 0 {
			return status.ErrInvalidState
		}

		var lines []models.TicketLine
		if err := rec.UnmarshalJSONField("tickets", &lines); err != nil {
			return fmt.Errorf("cancel: tickets field: %w", err)
		}

		inv := NewInventoryService(txApp)
		if err := inv.Release(ctx, rec.GetString("event"), lines); err != nil {
			return err
		}

		wallet := NewWalletService(txApp)
		refund := decimal.NewFromFloat(rec.GetFloat("total_amount"))
		description := fmt.Sprintf("refund for booking %s", rec.Id)
		if err := wallet.Credit(ctx, rec.GetString("user"), refund, rec.GetString("payment_id"), description); err != nil {
			return err
		}

		cancelledBy := models.CancelledByUser
		if byHost {
			cancelledBy = models.CancelledByHost
		}

		rec.Set("status", models.BookingCancelled)
		rec.Set("payment_status", models.PaymentRefunded)
		rec.Set("cancelled_by", cancelledBy)
		rec.Set("cancelled_at", types.NowDateTime())
		rec.Set("cancel_reason", reason)

		return txApp.SaveWithContext(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	booking := models.BookingFromRecord(rec)
	monitoring.RecordBooking(booking.PaymentMethod, "cancelled")
	s.notifier.BookingCancelled(ctx, booking)

	return booking, nil
}

// CancelEventBookings applies the cancellation protocol to every confirmed
// booking of the host's event, e.g. when the event is called off. Bookings
// cancelled concurrently by their owners are skipped, other failures abort.
func (s *BookingService) CancelEventBookings(ctx context.Context, hostID, eventID, reason string) (int, error) {
	if _, err := s.hostEvent(ctx, hostID, eventID); err != nil {
		return 0, err
	}

	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"event = {:event} && status = {:status}",
		"-created",
		0,
		0,
		dbx.Params{"event": eventID, "status": models.BookingConfirmed},
	)
	if err != nil {
		return 0, fmt.Errorf("cancelEventBookings: %w", err)
	}

	cancelled := 0
	for _, r := range records {
		if _, err := s.Cancel(ctx, hostID, r.Id, reason, true); err != nil {
			if errors.Is(err, status.ErrInvalidState) {
				continue
			}
			return cancelled, fmt.Errorf("cancelEventBookings: booking %s: %w", r.Id, err)
		}
		cancelled++
	}

	return cancelled, nil
}

// ListUserBookings returns the caller's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, page, perPage int) ([]*models.Booking, error) {
	limit, offset := pageWindow(page, perPage)
	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"user = {:user}",
		"-created",
		limit,
		offset,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("listUserBookings: %w", err)
	}

	return recordsToBookings(records), nil
}

// ListEventBookings returns the bookings of an event to its host.
func (s *BookingService) ListEventBookings(ctx context.Context, hostID, eventID string, page, perPage int) ([]*models.Booking, error) {
	if _, err := s.hostEvent(ctx, hostID, eventID); err != nil {
		return nil, err
	}

	limit, offset := pageWindow(page, perPage)
	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"event = {:event}",
		"-created",
		limit,
		offset,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("listEventBookings: %w", err)
	}

	return recordsToBookings(records), nil
}

// EventAttendees returns the deduplicated set of user ids holding a
// confirmed booking for the event.
func (s *BookingService) EventAttendees(ctx context.Context, hostID, eventID string) ([]string, error) {
	if _, err := s.hostEvent(ctx, hostID, eventID); err != nil {
		return nil, err
	}

	var userIDs []string
	err := s.app.DB().
		NewQuery("SELECT DISTINCT user FROM bookings WHERE event = {:event} AND status = {:status}").
		Bind(dbx.Params{"event": eventID, "status": models.BookingConfirmed}).
		WithContext(ctx).
		Column(&userIDs)
	if err != nil {
		return nil, fmt.Errorf("eventAttendees: %w", err)
	}

	return userIDs, nil
}

type bookingParams struct {
	userID        string
	eventID       string
	lines         []models.TicketLine
	couponID      string
	total         decimal.Decimal
	discounted    decimal.Decimal
	paymentMethod string
	paymentID     string
	orderID       string
}

func (s *BookingService) createBookingRecord(ctx context.Context, app core.App, p *bookingParams) (*core.Record, error) {
	collection, err := app.FindCollectionByNameOrId("bookings")
	if err != nil {
		return nil, fmt.Errorf("bookings collection: %w", err)
	}

	ticketNumber, err := utils.TicketNumber()
	if err != nil {
		return nil, fmt.Errorf("ticket number: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("user", p.userID)
	rec.Set("event", p.eventID)
	rec.Set("tickets", p.lines)
	rec.Set("coupon", p.couponID)
	rec.Set("total_amount", p.total.InexactFloat64())
	rec.Set("discounted_amount", p.discounted.InexactFloat64())
	rec.Set("status", models.BookingConfirmed)
	rec.Set("payment_method", p.paymentMethod)
	rec.Set("payment_status", models.PaymentPaid)
	rec.Set("payment_id", p.paymentID)
	rec.Set("order_id", p.orderID)
	rec.Set("ticket_number", ticketNumber)

	if err := app.SaveWithContext(ctx, rec); err != nil {
		return nil, fmt.Errorf("booking save: %w", err)
	}

	return rec, nil
}

// priceAndValidate resolves unit prices from the inventory, validates the
// requested lines and the optional coupon, and checks the client-submitted
// amounts against the server-side computation. It returns the priced lines
// and the amount to charge.
func (s *BookingService) priceAndValidate(
	ctx context.Context,
	userID, eventID string,
	requested []models.BookingLine,
	couponID string,
	total, discounted decimal.Decimal,
) ([]models.TicketLine, decimal.Decimal, error) {
	if len(requested) == 0 {
		return nil, decimal.Zero, fmt.Errorf("no ticket lines requested: %w", status.ErrAmountMismatch)
	}

	inv := NewInventoryService(s.app)
	prices, err := inv.TicketPrices(ctx, eventID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	seen := make(map[string]struct{}, len(requested))
	lines := make([]models.TicketLine, 0, len(requested))
	for _, r := range requested {
		if r.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("ticket type %q: quantity must be positive: %w", r.Type, status.ErrAmountMismatch)
		}
		if _, dup := seen[r.Type]; dup {
			return nil, decimal.Zero, fmt.Errorf("ticket type %q requested twice: %w", r.Type, status.ErrAmountMismatch)
		}
		seen[r.Type] = struct{}{}

		price, ok := prices[r.Type]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("ticket type %q: %w", r.Type, status.ErrNotFound)
		}

		lines = append(lines, models.TicketLine{
			Type:      r.Type,
			Quantity:  r.Quantity,
			UnitPrice: price,
		})
	}

	subtotal := models.Subtotal(lines)
	if !total.Equal(subtotal) {
		return nil, decimal.Zero, fmt.Errorf("total %s, computed %s: %w", total, subtotal, status.ErrAmountMismatch)
	}

	want := subtotal
	if couponID != "" {
		coupon, err := s.coupons.Validate(ctx, couponID, subtotal, userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		want = subtotal.Sub(coupon.Discount)
	}
	if !discounted.Equal(want) {
		return nil, decimal.Zero, fmt.Errorf("discounted %s, computed %s: %w", discounted, want, status.ErrAmountMismatch)
	}

	return lines, want, nil
}

func (s *BookingService) findByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"bookings",
		"payment_id = {:paymentId}",
		dbx.Params{"paymentId": paymentID},
	)
	if err != nil {
		return nil, err
	}
	return models.BookingFromRecord(rec), nil
}

// acquireConfirmGuard serializes concurrent confirmations of one payment id
// through a short-lived redis key. Best effort: without redis (or with redis
// down) the unique payment_id index still prevents double booking.
func (s *BookingService) acquireConfirmGuard(ctx context.Context, paymentID string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("booking:confirm:%s", paymentID)
	ok, err := s.redis.SetNX(ctx, key, 1, s.cfg.ConfirmGuardTTL).Result()
	if err != nil {
		slog.Warn("confirm guard unavailable", "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, errConfirmInFlight
	}

	return func() {
		s.redis.Del(context.WithoutCancel(ctx), key)
	}, nil
}

func (s *BookingService) hostEvent(ctx context.Context, hostID, eventID string) (*core.Record, error) {
	event, err := s.app.FindRecordById("events", eventID)
	if err != nil || event.GetString("host") != hostID {
		return nil, status.ErrNotFound
	}
	return event, nil
}

func recordsToBookings(records []*core.Record) []*models.Booking {
	bookings := make([]*models.Booking, 0, len(records))
	for _, r := range records {
		bookings = append(bookings, models.BookingFromRecord(r))
	}
	return bookings
}
