package usecase

import (
	"context"
	"time"

	"expert-backend/pkg/logger"
)

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

// Pinger is satisfied by the database pool and the Redis health check.
type Pinger func(ctx context.Context) error

type healthUsecase struct {
	checks map[string]Pinger
}

// NewHealthUsecase builds a checker over the named dependencies. A nil
// pinger reports the dependency as disabled.
func NewHealthUsecase(checks map[string]Pinger) HealthUsecase {
	return &healthUsecase{checks: checks}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	healthy := true
	out := map[string]string{"status": "ok"}
	for name, ping := range u.checks {
		if ping == nil {
			out[name] = "disabled"
			continue
		}
		if err := ping(ctx); err != nil {
			logger.Log.Warn("Health check failed", "dependency", name, "error", err)
			out[name] = "down"
			healthy = false
			continue
		}
		out[name] = "up"
	}
	if !healthy {
		out["status"] = "degraded"
	}
	return out, healthy
}
