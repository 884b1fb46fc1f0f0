package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mcn-showcase/api/controllers"
	shopcontrollers "github.com/angelmondragon/mcn-showcase/api/controllers/shop"
	"github.com/angelmondragon/mcn-showcase/api/middleware"
	"github.com/angelmondragon/mcn-showcase/internal/artworks"
	"github.com/angelmondragon/mcn-showcase/internal/identity"
	"github.com/angelmondragon/mcn-showcase/internal/shop"
	"github.com/angelmondragon/mcn-showcase/pkg/auth/session"
	"github.com/angelmondragon/mcn-showcase/pkg/config"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	"github.com/angelmondragon/mcn-showcase/pkg/redis"
)

// NewRouter wires every route. The redis surfaces may be nil when Redis is not configured;
// readiness then skips the ping and rate limiting and idempotency replay are disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisPinger redis.Pinger,
	rateLimiter redis.RateLimiter,
	idempotencyStore redis.IdempotencyStore,
	sessions session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	identityService identity.Service,
	shopService shop.Service,
	artworkService artworks.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger))
	})
	r.Method(http.MethodGet, "/metrics", controllers.Metrics(gatherer))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateLimiter, logg)).Post("/login", controllers.AuthLogin(identityService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, rateLimiter, logg),
			middleware.Idempotency(idempotencyStore, logg),
		).Post("/register", controllers.AuthRegister(identityService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(identityService, logg))
			r.Get("/me", controllers.AuthMe(identityService, logg))
			r.Patch("/me", controllers.AuthUpdateMe(identityService, logg))
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateLimiter, logg)).Post("/login", controllers.AdminAuthLogin(identityService, logg))
	})

	r.Route("/api/v1/shop/{catalog}", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.Session, logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))

		r.Get("/items", shopcontrollers.CatalogItems(shopService, logg))
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", shopcontrollers.CartFetch(shopService, logg))
			r.Delete("/", shopcontrollers.CartClear(shopService, logg))
			r.Post("/items", shopcontrollers.CartAddItem(shopService, logg))
			r.Put("/items/{itemId}", shopcontrollers.CartUpdateItem(shopService, logg))
			r.Delete("/items/{itemId}", shopcontrollers.CartRemoveItem(shopService, logg))
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", shopcontrollers.CheckoutStatus(shopService, logg))
			r.Post("/", shopcontrollers.CheckoutBegin(shopService, identityService, logg))
			r.Post("/cancel", shopcontrollers.CheckoutCancel(shopService, logg))
			r.With(middleware.Idempotency(idempotencyStore, logg)).Post("/submit", shopcontrollers.CheckoutSubmit(shopService, logg))
			r.Post("/acknowledge", shopcontrollers.CheckoutAcknowledge(shopService, logg))
		})
	})

	r.Route("/api/v1/artworks", func(r chi.Router) {
		r.Get("/", controllers.ArtworkList(artworkService, logg))
		r.Get("/{artworkId}", controllers.ArtworkDetail(artworkService, logg))
		r.Get("/{artworkId}/qr.png", controllers.ArtworkQRCode(artworkService, logg))
		r.Get("/{artworkId}/visit", controllers.ArtworkVisit(artworkService, logg))
	})
	r.Post("/api/v1/scan", controllers.ArtworkScan(artworkService, logg))

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(enums.MemberRoleAdmin, logg))

		r.Route("/artworks", func(r chi.Router) {
			r.Get("/", controllers.AdminArtworkList(artworkService, logg))
			r.With(middleware.Idempotency(idempotencyStore, logg)).Post("/", controllers.AdminArtworkCreate(artworkService, logg))
			r.Patch("/{artworkId}", controllers.AdminArtworkUpdate(artworkService, logg))
			r.Delete("/{artworkId}", controllers.AdminArtworkDelete(artworkService, logg))
			r.Post("/{artworkId}/toggle", controllers.AdminArtworkToggle(artworkService, logg))
		})
		r.Get("/statistics", controllers.AdminStatistics(artworkService, logg))
	})

	return r
}
