package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/mcn-showcase/api/routes"
	"github.com/angelmondragon/mcn-showcase/internal/artworks"
	"github.com/angelmondragon/mcn-showcase/internal/catalog"
	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/internal/identity"
	"github.com/angelmondragon/mcn-showcase/internal/shop"
	"github.com/angelmondragon/mcn-showcase/pkg/auth/session"
	"github.com/angelmondragon/mcn-showcase/pkg/config"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	"github.com/angelmondragon/mcn-showcase/pkg/metrics"
	"github.com/angelmondragon/mcn-showcase/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		redisClient      *redis.Client
		redisPinger      redis.Pinger
		rateLimiter      redis.RateLimiter
		idempotencyStore redis.IdempotencyStore
		sessionManager   *session.Manager
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisPinger, rateLimiter, idempotencyStore = redisClient, redisClient, redisClient
		sessionManager, err = session.NewManager(redisClient, cfg.JWT.TTL())
	} else {
		logg.Warn(ctx, "redis not configured; sessions kept in memory, idempotency and auth rate limits disabled")
		sessionManager, err = session.NewMemoryManager(cfg.JWT.TTL())
	}
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	directory, err := identity.LoadDirectory(cfg.Fixtures.UsersPath, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to load user directory", err)
		os.Exit(1)
	}
	identityService, err := identity.NewService(identity.ServiceParams{
		Directory: directory,
		Sessions:  sessionManager,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create identity service", err)
		os.Exit(1)
	}

	catalogs, err := loadCatalogs(cfg.Fixtures)
	if err != nil {
		logg.Error(ctx, "failed to load catalogs", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shopMetrics := metrics.NewShopMetrics(registry)

	policy := checkout.Policy{
		RequireIdentifiedBuyer: cfg.Checkout.RequireIdentifiedBuyer,
		ConfirmTimeout:         cfg.Checkout.ConfirmTimeout,
	}
	confirmer := checkout.SimulatedConfirmer{Latency: cfg.Checkout.ConfirmLatency}
	workspaces, err := shop.NewRegistry(enums.CatalogKinds(), shop.NewWorkflowFactory(confirmer, policy), cfg.Session.IdleTTL)
	if err != nil {
		logg.Error(ctx, "failed to create workspace registry", err)
		os.Exit(1)
	}
	go workspaces.Run(ctx, cfg.Session.SweepInterval, shopMetrics.AddEvictions)

	shopService, err := shop.NewService(shop.ServiceParams{
		Catalogs: catalogs,
		Registry: workspaces,
		Metrics:  shopMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create shop service", err)
		os.Exit(1)
	}

	artworkRepo, err := artworks.LoadRepository(cfg.Fixtures.ArtworksPath)
	if err != nil {
		logg.Error(ctx, "failed to load artworks", err)
		os.Exit(1)
	}
	artworkService, err := artworks.NewService(artworkRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create artwork service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"redis": redisClient != nil,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisPinger,
			rateLimiter,
			idempotencyStore,
			sessionManager,
			registry,
			identityService,
			shopService,
			artworkService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}

func loadCatalogs(cfg config.FixturesConfig) ([]*catalog.Catalog, error) {
	paths := map[enums.CatalogKind]string{
		enums.CatalogTickets:     cfg.TicketsPath,
		enums.CatalogMerchandise: cfg.MerchandisePath,
	}
	catalogs := make([]*catalog.Catalog, 0, len(paths))
	for _, kind := range enums.CatalogKinds() {
		c, err := catalog.Load(kind, paths[kind])
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	return catalogs, nil
}
