package controllers

import (
	"context"
	"net/http"

	"github.com/infinity-cafe/cafe-backend/api/responses"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cafe-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency health. A failing dependency flips the
// status code to 503 but still lists the healthy ones.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cafe-Env", cfg.App.Env)

		status := http.StatusOK
		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "not configured"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "unavailable"
				status = http.StatusServiceUnavailable
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		overall := "ready"
		if status != http.StatusOK {
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}

// NewHealthDeps builds the dependency map for HealthReady.
func NewHealthDeps(db, redis Pinger) map[string]Pinger {
	return map[string]Pinger{
		"database": db,
		"redis":    redis,
	}
}
