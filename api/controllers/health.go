package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/mcn-showcase/api/responses"
	"github.com/angelmondragon/mcn-showcase/pkg/config"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	pkgredis "github.com/angelmondragon/mcn-showcase/pkg/redis"
)

const (
	envHeader      = "X-MCN-Env"
	readyTimeout   = 2 * time.Second
	statusReady    = "ready"
	statusDisabled = "disabled"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis when it is configured. A nil pinger means sessions live in memory.
func HealthReady(cfg *config.Config, logg *logger.Logger, redis pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{"redis": statusDisabled}
		if redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := redis.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = statusReady
		}

		responses.WriteSuccess(w, map[string]any{"status": statusReady, "checks": checks})
	}
}
