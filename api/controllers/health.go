package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/freshfold/freshfold-backend/api/responses"
	"github.com/freshfold/freshfold-backend/pkg/config"
	"github.com/freshfold/freshfold-backend/pkg/db"
	"github.com/freshfold/freshfold-backend/pkg/logger"
	"github.com/freshfold/freshfold-backend/pkg/redis"
)

const readyProbeTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshFold-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the dependencies the dispatch path cannot run without.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshFold-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["db"] = err.Error()
				healthy = false
				logg.Error(ctx, "health.db", err)
			} else {
				checks["db"] = "ok"
			}
		}

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
				logg.Error(ctx, "health.redis", err)
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}
