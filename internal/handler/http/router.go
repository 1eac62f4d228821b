package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/auth"
	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/service"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/health"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/middleware"
)

// RouterConfig bundles the dependencies the router wires together.
type RouterConfig struct {
	CartService     *service.CartService
	UserService     *service.UserService
	CatalogService  *service.CatalogService
	PurchaseService *service.PurchaseService
	JWTManager      *auth.JWTManager
	HealthHandler   *health.Handler
	Logger          *slog.Logger
	CORS            middleware.CORSConfig
	PprofCIDRs      []string

	// AuthRateRPS throttles credential endpoints per client IP. Zero disables
	// throttling (tests).
	AuthRateRPS   int
	AuthRateBurst int
}

// NewRouter creates a chi router with all checkout service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("checkout"))
	r.Use(middleware.Tracing("checkout"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	cartHandler := NewCartHandler(cfg.CartService, cfg.Logger)
	authHandler := NewAuthHandler(cfg.UserService, cfg.CartService, cfg.Logger)
	catalogHandler := NewCatalogHandler(cfg.CatalogService, cfg.Logger)
	purchaseHandler := NewPurchaseHandler(cfg.PurchaseService, cfg.Logger)

	// Public catalog
	r.Route("/api/v1/fonts", func(r chi.Router) {
		r.Get("/", catalogHandler.ListFonts)
		r.Get("/{slug}", catalogHandler.GetFont)
	})

	// Accounts
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		if cfg.AuthRateRPS > 0 {
			r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst, cfg.Logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(OptionalIdentity(cfg.JWTManager))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Post("/password-reset/request", authHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity(cfg.JWTManager))
			r.Use(RequireUser)
			r.Get("/me", authHandler.GetProfile)
		})
	})

	// Checkout wizard
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireIdentity(cfg.JWTManager))

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Get("/price", cartHandler.GetPrice)

		r.Post("/package", cartHandler.SelectPackage)
		r.Delete("/package", cartHandler.RemovePackage)
		r.Post("/custom-license", cartHandler.SelectCustomLicense)
		r.Post("/customizing", cartHandler.ToggleCustomizing)
		r.Delete("/licenses/{category}", cartHandler.RemoveLicense)

		r.Post("/fonts", cartHandler.AddFont)
		r.Post("/fonts/{fontID}/toggle", cartHandler.ToggleFont)
		r.Post("/fonts/{fontID}/styles/{style}/toggle", cartHandler.ToggleFontStyle)

		r.Post("/proceed", cartHandler.Proceed)
		r.Post("/stage/{stage}", cartHandler.GoToStage)
		r.Post("/usage", cartHandler.DeclareUsage)

		r.Post("/payment/method", cartHandler.SelectPaymentMethod)
		r.Post("/payment/confirm", cartHandler.ConfirmPayment)
	})

	// Purchase history
	r.Route("/api/v1/purchases", func(r chi.Router) {
		r.Use(RequireIdentity(cfg.JWTManager))
		r.Use(RequireUser)
		r.Get("/", purchaseHandler.ListPurchases)
	})

	return r
}
