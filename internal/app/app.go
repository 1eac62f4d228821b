package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/auth"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/config"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/event"
	handler "github.com/scottjosephstudio/sohcahtoa-sub000/internal/handler/http"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider"
	providermock "github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider/mock"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/provider/stripeapi"
	postgresrepo "github.com/scottjosephstudio/sohcahtoa-sub000/internal/repository/postgres"
	redisrepo "github.com/scottjosephstudio/sohcahtoa-sub000/internal/repository/redis"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/service"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/database"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/health"
	pkgkafka "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/kafka"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/middleware"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the checkout service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	rdb             *redis.Client
	pool            *pgxpool.Pool
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracingCfg := tracing.DefaultConfig("checkout-service")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.TracingEndpoint
	tracingCfg.SampleRate = cfg.TracingSampleRate
	tracingCfg.Enabled = cfg.TracingEnabled
	tracingShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis holds live carts.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Postgres holds the catalog, accounts, and receipts.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, err
	}

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment gateway.
	gateway, err := newGateway(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("payment gateway selected", slog.String("provider", gateway.Name()))

	// Price book.
	pricing, err := cfg.PricingConfig()
	if err != nil {
		return nil, err
	}

	// Build the dependency graph.
	cartTTL := cfg.CartTTLDuration()
	cartRepo := redisrepo.NewCartRepository(rdb, cartTTL)
	fontRepo := postgresrepo.NewFontRepository(pool)
	userRepo := postgresrepo.NewUserRepository(pool)
	purchaseRepo := postgresrepo.NewPurchaseRepository(pool)

	eventProducer := event.NewProducer(producer, logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry())

	cartService := service.NewCartService(
		cartRepo, fontRepo, purchaseRepo, gateway,
		eventProducer, logger, pricing, cartTTL,
	)
	userService := service.NewUserService(userRepo, jwtManager, logger)
	catalogService := service.NewCatalogService(fontRepo)
	purchaseService := service.NewPurchaseService(purchaseRepo)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		CartService:     cartService,
		UserService:     userService,
		CatalogService:  catalogService,
		PurchaseService: purchaseService,
		JWTManager:      jwtManager,
		HealthHandler:   healthHandler,
		Logger:          logger,
		CORS:            corsCfg,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		AuthRateRPS:     cfg.AuthRateLimitRPS,
		AuthRateBurst:   cfg.AuthRateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		pool:            pool,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// newGateway selects the payment provider from configuration.
func newGateway(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch cfg.PaymentProvider {
	case config.ProviderMock:
		return providermock.NewProvider(), nil
	case config.ProviderStripe:
		return stripeapi.NewProvider(stripeapi.Config{
			BaseURL:     cfg.StripeBaseURL,
			APIKey:      cfg.StripeAPIKey,
			CallTimeout: cfg.StripeTimeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %q", cfg.PaymentProvider)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
