package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/api"
	"github.com/kawanestudio/storefront/internal/cache"
	"github.com/kawanestudio/storefront/internal/domain/deal"
	"github.com/kawanestudio/storefront/internal/domain/inventory"
	"github.com/kawanestudio/storefront/internal/domain/order"
	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/internal/domain/promo"
	"github.com/kawanestudio/storefront/internal/events"
	"github.com/kawanestudio/storefront/internal/gateway"
	"github.com/kawanestudio/storefront/internal/repository"
	"github.com/kawanestudio/storefront/internal/sweep"
	"github.com/kawanestudio/storefront/pkg/health"
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

	// Optional Redis: quote cache and checkout rate limiter.
	var (
		rdb        *redis.Client
		quoteCache deal.QuoteCache
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer func() { _ = rdb.Close() }()
		quoteCache = cache.NewQuoteCache(rdb, cfg.Redis.QuoteTTL, lg)
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if rdb != nil {
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	dealRepo := repository.NewDealRepository(pool)
	promoRepo := repository.NewPromoRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	noteRepo := repository.NewNotificationRepository(pool)
	logRepo := repository.NewInventoryLogRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	orderStore := repository.NewOrderStore(pool)

	// Optional collaborators.
	var payGateway payment.Gateway
	if cfg.Gateway.BaseURL != "" {
		payGateway = gateway.NewClient(gateway.Config{
			BaseURL:   cfg.Gateway.BaseURL,
			ServerKey: cfg.Gateway.ServerKey,
			Timeout:   cfg.Gateway.Timeout,
		})
	}

	var publisher order.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	// Domain services.
	resolver := deal.NewResolver(productRepo, dealRepo, quoteCache)
	orderService := order.NewService(order.Deps{
		Users:    userRepo,
		Products: productRepo,
		Deals:    dealRepo,
		Resolver: resolver,
		Promos:   promo.NewRepoValidator(promoRepo),
		Store:    orderStore,
		Payments: paymentRepo,
		Gateway:  payGateway,
		Notes:    noteRepo,
		Monitor:  inventory.NewMonitor(productRepo, noteRepo, lg),
		Events:   publisher,
	}, lg)

	// Deal window sweeper.
	sweeper := sweep.New(dealRepo, cfg.Sweep.Interval, cfg.Sweep.Timeout, lg)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP routes.
	h := api.NewHandler(
		api.Config{BusinessPhone: cfg.WhatsApp.BusinessPhone},
		productRepo, resolver, orderService, logRepo, noteRepo, lg,
	)

	var checkoutLimit gin.HandlerFunc
	if rdb != nil {
		checkoutLimit = api.CheckoutRateLimit(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware("storefront-api",
			otelgin.WithTracerProvider(m.TracerProvider()),
		),
	)
	router.GET("/livez", gin.WrapF(healthSvc.LiveEndpoint))
	router.GET("/readyz", gin.WrapF(healthSvc.ReadyEndpoint))
	h.RegisterRoutes(router, checkoutLimit)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           router,
	}

	healthSvc.SetReady(true)

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
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
