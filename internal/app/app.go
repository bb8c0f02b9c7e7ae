// Package app wires the checkout service together: configuration, storage,
// domain services, HTTP surface, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/billing"
	"github.com/xenking/checkout-service/internal/domain/order"
	"github.com/xenking/checkout-service/internal/handler"
	"github.com/xenking/checkout-service/internal/notification"
	"github.com/xenking/checkout-service/internal/repository"
	"github.com/xenking/checkout-service/pkg/health"
	"github.com/xenking/checkout-service/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	customerRepo := repository.NewCustomerRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	itemRepo := repository.NewLineItemRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Confirmation dispatch: Kafka when brokers are configured, service log
	// otherwise. Either way the workflow only ever sees the async dispatcher.
	var sender order.ConfirmationSender
	var senderClose func() error
	if len(cfg.Notifications.Brokers) > 0 {
		ks := notification.NewKafkaSender(cfg.Notifications.Brokers, cfg.Notifications.Topic)
		sender = ks
		senderClose = ks.Close
	} else {
		lg.Info("No notification brokers configured, confirmations go to the log")
		sender = notification.NewLogSender(lg)
		senderClose = func() error { return nil }
	}

	dispatcher, err := notification.NewDispatcher(
		sender, lg.Named("notification"), m.MeterProvider().Meter("checkout"),
		cfg.Notifications.QueueSize, cfg.Notifications.SendTimeout,
	)
	if err != nil {
		return errors.Wrap(err, "create confirmation dispatcher")
	}
	dispatcher.Start(ctx)

	// Domain services.
	slips := billing.NewTermGenerator(cfg.Billing.TermDays)
	orderService := order.NewService(
		customerRepo, productRepo, slips,
		orderRepo, paymentRepo, itemRepo,
		dispatcher,
	)

	// HTTP surface.
	security := handler.NewSecurity(apikeyRepo, []byte(cfg.APIKeyPepper))
	h := handler.New(orderService, productRepo, categoryRepo, security)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	apiHandler := otelhttp.NewHandler(
		httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
		"checkout-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}

		// No new requests past this point: flush pending confirmations.
		if err := dispatcher.Close(); err != nil {
			lg.Error("Dispatcher close error", zap.Error(err))
		}
		if err := senderClose(); err != nil {
			lg.Error("Sender close error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
