package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jamiyah-app/jamiyah/internal/auth"
)

// NewSessionSweepHandler builds the periodic handler that deletes expired
// session audit rows. The Redis copies expire on their own TTL.
func NewSessionSweepHandler(service *auth.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := service.SweepExpiredSessions(ctx, time.Now())
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.InfoContext(ctx, "expired sessions removed", "count", removed)
		}
		return nil
	}
}
