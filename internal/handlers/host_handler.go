package handlers

import (
	"net/http"

	"event-booking/internal/services"
	"event-booking/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// HostHandler serves the event host's view over bookings.
type HostHandler struct {
	bookings *services.BookingService
}

func NewHostHandler(bookings *services.BookingService) *HostHandler {
	return &HostHandler{bookings: bookings}
}

// ListEventBookings returns the bookings of one of the host's events.
func (h *HostHandler) ListEventBookings(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	page, perPage := pageQuery(e)

	bookings, err := h.bookings.ListEventBookings(e.Request.Context(), e.Auth.Id, eventID, page, perPage)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, bookings)
}

// CancelEventBookings cancels every confirmed booking of the host's event.
func (h *HostHandler) CancelEventBookings(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	var req models.CancelRequest
	if err := bindJSON(e, &req); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	cancelled, err := h.bookings.CancelEventBookings(e.Request.Context(), e.Auth.Id, eventID, req.Reason)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]int{"cancelled": cancelled})
}

// Attendees returns the user ids holding confirmed bookings for the event.
func (h *HostHandler) Attendees(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	attendees, err := h.bookings.EventAttendees(e.Request.Context(), e.Auth.Id, eventID)
	if err != nil {
		return apiError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"attendees": attendees,
	})
}
