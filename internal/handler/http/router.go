package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/shopstate/internal/service"
	"github.com/utafrali/shopstate/pkg/health"
	"github.com/utafrali/shopstate/pkg/middleware"
)

// NewRouter creates a chi router with all shopstate routes registered.
func NewRouter(
	shopService *service.ShopService,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("shopstate"))
	r.Use(middleware.Tracing("shopstate"))
	r.Use(middleware.OptionalAuth(validateToken))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(shopService, logger)
	wishlistHandler := NewWishlistHandler(shopService, logger)
	sessionHandler := NewSessionHandler(shopService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(DeviceIDFromHeader)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
			r.Put("/items/{id}/stock", cartHandler.RefreshStock)

			r.Post("/drawer/open", cartHandler.OpenDrawer)
			r.Post("/drawer/close", cartHandler.CloseDrawer)

			r.Post("/discount", cartHandler.ApplyDiscount)
			r.Delete("/discount", cartHandler.RemoveDiscount)
			r.Post("/reward-coupon", cartHandler.ApplyRewardCoupon)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Delete("/", wishlistHandler.Clear)

			r.Post("/items", wishlistHandler.AddItem)
			r.Get("/items/{id}", wishlistHandler.Contains)
			r.Delete("/items/{id}", wishlistHandler.RemoveItem)
			r.Post("/toggle", wishlistHandler.Toggle)
			r.Get("/alerts", wishlistHandler.PriceDropAlerts)
			r.Get("/in-stock", wishlistHandler.InStock)
		})

		r.With(middleware.Auth(validateToken)).Post("/session", sessionHandler.SignIn)
		r.Delete("/session", sessionHandler.SignOut)
	})

	return r
}
