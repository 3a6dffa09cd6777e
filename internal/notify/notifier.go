package notify

import (
	"context"
	"fmt"
	"log/slog"

	"event-booking/models"

	pubnub "github.com/pubnub/go/v7"
)

// Notifier is informed of booking lifecycle events. Dispatch is best-effort:
// a failed notification never fails the booking operation that produced it.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking)
	BookingCancelled(ctx context.Context, booking *models.Booking)
}

// PubNubNotifier publishes booking events to the per-user and per-event
// channels the frontend subscribes to.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(publishKey, subscribeKey, secretKey, uuid string) *PubNubNotifier {
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(uuid))
	pnConfig.PublishKey = publishKey
	pnConfig.SubscribeKey = subscribeKey
	pnConfig.SecretKey = secretKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(pnConfig)}
}

func (n *PubNubNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking) {
	n.publish(booking, map[string]any{
		"type":          "booking_confirmed",
		"booking_id":    booking.ID,
		"event_id":      booking.EventID,
		"ticket_number": booking.TicketNumber,
		"payment_id":    booking.PaymentID,
	})
}

func (n *PubNubNotifier) BookingCancelled(ctx context.Context, booking *models.Booking) {
	n.publish(booking, map[string]any{
		"type":       "booking_cancelled",
		"booking_id": booking.ID,
		"event_id":   booking.EventID,
		"reason":     booking.CancelReason,
	})
}

func (n *PubNubNotifier) publish(booking *models.Booking, message map[string]any) {
	for _, channel := range []string{
		fmt.Sprintf("user-%s", booking.UserID),
		fmt.Sprintf("event-%s", booking.EventID),
	} {
		if _, pnStatus, err := n.pn.Publish().Channel(channel).Message(message).Execute(); err != nil {
			slog.Error("pubnub publish failed",
				"channel", channel,
				"booking_id", booking.ID,
				"status_code", pnStatus.StatusCode,
				"error", err,
			)
		}
	}
}

// NoopNotifier discards all events. Used in tests and when PubNub keys are
// not configured.
type NoopNotifier struct{}

func (NoopNotifier) BookingConfirmed(context.Context, *models.Booking) {}
func (NoopNotifier) BookingCancelled(context.Context, *models.Booking) {}
