package cmd

import (
	"log"
	"log/slog"

	"event-booking/config"
	"event-booking/internal/gateway"
	"event-booking/internal/handlers"
	"event-booking/internal/notify"
	"event-booking/internal/services"
	"event-booking/monitoring"
	"event-booking/security"
	"event-booking/utils"

	_ "event-booking/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	gatewayClient := gateway.NewClient(&cfg.Gateway)

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(
			cfg.PubNubPublishKey,
			cfg.PubNubSubscribeKey,
			cfg.PubNubSecretKey,
			cfg.PubNubUUID,
		)
	}

	couponService := services.NewCouponService(app)
	walletService := services.NewWalletService(app)
	bookingService := services.NewBookingService(app, gatewayClient, couponService, notifier, redisClient, cfg)

	bookingHandler := handlers.NewBookingHandler(bookingService, cfg.Currency)
	walletHandler := handlers.NewWalletHandler(walletService)
	hostHandler := handlers.NewHostHandler(bookingService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Booking endpoints (rate limited)
		bookings := e.Router.Group("/api/bookings")
		bookings.Bind(apis.RequireAuth())
		bookings.BindFunc(rateLimiter.Middleware())
		bookings.POST("/order", bookingHandler.CreateOrder)
		bookings.POST("/verify-payment", bookingHandler.VerifyPayment)
		bookings.POST("", bookingHandler.CreateWalletBooking)
		bookings.PUT("/{id}/cancel", bookingHandler.Cancel)
		bookings.GET("/mine", bookingHandler.ListMine)

		// Wallet endpoints
		wallet := e.Router.Group("/api/wallet")
		wallet.Bind(apis.RequireAuth())
		wallet.GET("", walletHandler.Get)
		wallet.GET("/transactions", walletHandler.Transactions)

		// Host endpoints
		host := e.Router.Group("/api/events")
		host.Bind(apis.RequireAuth())
		host.GET("/{eventId}/bookings", hostHandler.ListEventBookings)
		host.POST("/{eventId}/cancel-bookings", hostHandler.CancelEventBookings)
		host.GET("/{eventId}/attendees", hostHandler.Attendees)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app, bookingService)

		if cfg.EnableMetrics {
			monitoring.NewMonitor(app)
			go monitoring.Serve(cfg.MetricsPort)
		}

		return e.Next()
	})

	return app.Start()
}

// setupEventHooks cancels every confirmed booking of an event when its host
// marks the event cancelled.
func setupEventHooks(app *pocketbase.PocketBase, bookings *services.BookingService) {
	app.OnRecordUpdateRequest("events").BindFunc(func(e *core.RecordRequestEvent) error {
		oldStatus := e.Record.Original().GetString("status")
		newStatus := e.Record.GetString("status")

		if err := e.Next(); err != nil {
			return err
		}

		if oldStatus != "cancelled" && newStatus == "cancelled" {
			ctx := e.Request.Context()
			hostID := e.Record.GetString("host")

			cancelled, err := bookings.CancelEventBookings(ctx, hostID, e.Record.Id, "event cancelled")
			if err != nil {
				slog.Error("bulk cancellation after event cancel failed",
					"event_id", e.Record.Id,
					"cancelled", cancelled,
					"error", err,
				)
				return nil
			}
			slog.Info("event bookings cancelled", "event_id", e.Record.Id, "count", cancelled)
		}

		return nil
	})
}
