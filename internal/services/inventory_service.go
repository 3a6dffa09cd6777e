package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"event-booking/internal/status"
	"event-booking/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// InventoryService owns the per-ticket-type stock counters of an event.
// Construct it on the transaction app when stock mutations must commit
// together with other writes.
type InventoryService struct {
	app core.App
}

func NewInventoryService(app core.App) *InventoryService {
	return &InventoryService{app: app}
}

// CheckAvailability verifies every requested line against current stock.
// All-or-nothing: the first line that cannot be satisfied fails the whole
// check, naming its ticket type.
func (s *InventoryService) CheckAvailability(ctx context.Context, eventID string, lines []models.BookingLine) error {
	for _, line := range lines {
		var remaining int
		err := s.app.DB().
			NewQuery("SELECT remaining FROM event_tickets WHERE event = {:event} AND name = {:name}").
			Bind(dbx.Params{"event": eventID, "name": line.Type}).
			WithContext(ctx).
			Row(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ticket type %q: %w", line.Type, status.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checkAvailability: %w", err)
		}

		if remaining < line.Quantity {
			return &status.InsufficientStockError{TicketType: line.Type}
		}
	}

	return nil
}

// Reserve decrements stock per line with a conditional update, so two
// concurrent bookings can never both take the last tickets: the decrement
// only applies while remaining covers the requested quantity. Call inside a
// transaction; a failed line rolls back the already-decremented ones.
func (s *InventoryService) Reserve(ctx context.Context, eventID string, lines []models.BookingLine) error {
	for _, line := range lines {
		res, err := s.app.DB().
			NewQuery(`UPDATE event_tickets
				SET remaining = remaining - {:qty}
				WHERE event = {:event} AND name = {:name} AND remaining >= {:qty}`).
			Bind(dbx.Params{"qty": line.Quantity, "event": eventID, "name": line.Type}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("reserve: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve: %w", err)
		}
		if affected == 0 {
			if !s.ticketTypeExists(ctx, eventID, line.Type) {
				return fmt.Errorf("ticket type %q: %w", line.Type, status.ErrNotFound)
			}
			return &status.InsufficientStockError{TicketType: line.Type}
		}
	}

	return nil
}

// Release restores stock for every line of a cancelled booking. The caller
// guards against double release through the booking status transition; this
// method increments unconditionally.
func (s *InventoryService) Release(ctx context.Context, eventID string, lines []models.TicketLine) error {
	for _, line := range lines {
		_, err := s.app.DB().
			NewQuery(`UPDATE event_tickets
				SET remaining = remaining + {:qty}
				WHERE event = {:event} AND name = {:name}`).
			Bind(dbx.Params{"qty": line.Quantity, "event": eventID, "name": line.Type}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("release: %w", err)
		}
	}

	return nil
}

// TicketPrices returns the unit price per ticket type for an event.
func (s *InventoryService) TicketPrices(ctx context.Context, eventID string) (map[string]decimal.Decimal, error) {
	records, err := s.app.FindRecordsByFilter(
		"event_tickets",
		"event = {:event}",
		"name",
		0,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("ticketPrices: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("event %q has no ticket types: %w", eventID, status.ErrNotFound)
	}

	prices := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		prices[r.GetString("name")] = decimal.NewFromFloat(r.GetFloat("price"))
	}

	return prices, nil
}

func (s *InventoryService) ticketTypeExists(ctx context.Context, eventID, name string) bool {
	var one int
	err := s.app.DB().
		NewQuery("SELECT 1 FROM event_tickets WHERE event = {:event} AND name = {:name}").
		Bind(dbx.Params{"event": eventID, "name": name}).
		WithContext(ctx).
		Row(&one)
	return err == nil
}
