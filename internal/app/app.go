package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/shopstate/internal/cart"
	"github.com/utafrali/shopstate/internal/config"
	"github.com/utafrali/shopstate/internal/event"
	handler "github.com/utafrali/shopstate/internal/handler/http"
	"github.com/utafrali/shopstate/internal/pricing"
	"github.com/utafrali/shopstate/internal/service"
	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/pkg/database"
	"github.com/utafrali/shopstate/pkg/health"
	pkgkafka "github.com/utafrali/shopstate/pkg/kafka"
	"github.com/utafrali/shopstate/pkg/middleware"
	"github.com/utafrali/shopstate/pkg/tracing"
)

// App wires together all dependencies and runs the shopstate service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	backend        *Backend
	producer       *pkgkafka.Producer
	watcher        *pricing.Watcher
	shop           *service.ShopService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// initTracer is swapped in tests.
var initTracer = tracing.InitTracer

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing.
	tcfg := tracing.DefaultConfig("shopstate")
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tracerShutdown, err := initTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowOperationLogging(cfg.StorageTimeout()/2, logger)

	// Durable backend behind a circuit breaker.
	backend, err := BuildBackend(ctx, cfg.StorageDSN, BackendOptions{
		TTL:        cfg.StorageTTL(),
		Registerer: prometheus.DefaultRegisterer,
	}, logger)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, err
	}
	breaker := storage.NewBreaker(backend.Backend, storage.DefaultBreakerConfig("storage-"+backend.Scheme), logger)

	// Pricing.
	policy, watcher, err := buildPolicy(cfg, logger)
	if err != nil {
		_ = backend.Close()
		_ = tracerShutdown(ctx)
		return nil, err
	}

	// Change events.
	var (
		producer      *pkgkafka.Producer
		eventProducer *event.Producer
	)
	if cfg.EventsEnabled {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		// Events are published while the device lock is held.
		kafkaCfg.Async = true
		producer = pkgkafka.NewProducer(kafkaCfg, logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	shop := service.NewShopService(breaker, service.Options{
		Policy:         policy,
		StockPolicy:    cart.ParseStockPolicy(cfg.StockPolicy),
		StorageTimeout: cfg.StorageTimeout(),
		IdleTTL:        cfg.DeviceIdleTTL(),
	}, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("storage", shop.Ping)
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	corsCfg := middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}
	router := handler.NewRouter(shop, healthHandler, middleware.NewHMACValidator(cfg.JWTSecret), corsCfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		producer:       producer,
		watcher:        watcher,
		shop:           shop,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// buildPolicy assembles the pricing policy from configuration. The returned
// watcher is nil unless a discount table file is configured.
func buildPolicy(cfg *config.Config, logger *slog.Logger) (pricing.Policy, *pricing.Watcher, error) {
	policy := pricing.DefaultPolicy()
	policy.TaxRate = cfg.TaxRate

	threshold := pricing.ThresholdShipping{FreeAbove: cfg.FreeShippingThreshold, Charge: cfg.ShippingFee}
	policy.Shipping = threshold
	if rule := strings.TrimSpace(cfg.ShippingRule); rule != "" {
		shipping, err := pricing.NewExprShipping(rule, threshold, logger)
		if err != nil {
			return pricing.Policy{}, nil, fmt.Errorf("compile SHIPPING_RULE: %w", err)
		}
		policy.Shipping = shipping
		logger.Info("using shipping rule", slog.String("rule", rule))
	}

	var watcher *pricing.Watcher
	if cfg.DiscountTableFile != "" {
		w, err := pricing.NewWatcher(cfg.DiscountTableFile, logger)
		if err != nil {
			return pricing.Policy{}, nil, fmt.Errorf("load DISCOUNT_TABLE_FILE: %w", err)
		}
		policy.Discounts = w
		watcher = w
		logger.Info("discount table loaded",
			slog.String("path", cfg.DiscountTableFile),
			slog.Int("codes", w.Table().Len()),
		)
	}
	return policy, watcher, nil
}

// Run starts the HTTP server and background workers, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.shop.RunJanitor(ctx, janitorInterval(a.cfg.DeviceIdleTTL()))

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("discount table watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// janitorInterval sweeps a few times per idle window, at most once a minute.
func janitorInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	// Close the durable backend.
	if err := a.backend.Close(); err != nil {
		a.logger.Error("storage close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
