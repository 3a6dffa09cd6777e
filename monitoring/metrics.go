package monitoring

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by payment method and outcome",
		},
		[]string{"method", "status"},
	)

	verificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_verification_failures_total",
			Help: "Gateway payment confirmations rejected on signature mismatch",
		},
	)

	gatewayOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_orders_total",
			Help: "Gateway order creations by outcome",
		},
		[]string{"status"},
	)

	walletTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_total",
			Help: "Wallet ledger entries by type",
		},
		[]string{"type"},
	)

	bookingAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_amount",
			Help:    "Charged amount per confirmed booking",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		},
	)

	ticketsRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_tickets_remaining",
			Help: "Remaining stock per event and ticket type",
		},
		[]string{"event_id", "ticket_type"},
	)
)

func RecordBooking(method, status string) {
	bookingsTotal.WithLabelValues(method, status).Inc()
}

func RecordVerificationFailure() {
	verificationFailures.Inc()
}

func RecordGatewayOrder(status string) {
	gatewayOrders.WithLabelValues(status).Inc()
}

func RecordWalletTransaction(txnType string) {
	walletTransactions.WithLabelValues(txnType).Inc()
}

func RecordBookingAmount(amount float64) {
	bookingAmount.Observe(amount)
}

// Monitor periodically samples inventory levels into the remaining-stock
// gauge.
type Monitor struct {
	app core.App
}

func NewMonitor(app core.App) *Monitor {
	monitor := &Monitor{app: app}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectInventory()
	}
}

func (m *Monitor) collectInventory() {
	var rows []dbx.NullStringMap
	err := m.app.DB().
		NewQuery("SELECT event, name, remaining FROM event_tickets").
		All(&rows)
	if err != nil {
		slog.Error("inventory metrics collection failed", "error", err)
		return
	}

	for _, row := range rows {
		remaining, _ := strconv.ParseFloat(row["remaining"].String, 64)
		ticketsRemaining.
			WithLabelValues(row["event"].String, row["name"].String).
			Set(remaining)
	}
}

// Serve exposes /metrics on its own port.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
