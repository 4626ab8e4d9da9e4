package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jamiyah-app/jamiyah/internal/members"
)

// NewMemberExportHandler builds the handler that renders the CSV snapshot and
// writes it under dir. The export honors the requesting user's territory
// scope, so a region-scoped user's file only contains their region.
func NewMemberExportHandler(service *members.Service, dir string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload MemberExportPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("member export: decode payload: %w", err)
		}
		if payload.UserID == "" {
			return fmt.Errorf("member export: empty user id")
		}

		data, res := service.ExportCSV(ctx, payload.UserID)
		if !res.Ok() {
			// Authorization may have been revoked between enqueue and run.
			logger.WarnContext(ctx, "member export refused",
				"user_id", payload.UserID, "status", string(res.Status))
			return nil
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("member export: create dir: %w", err)
		}
		name := fmt.Sprintf("anggota-%s-%s.csv", payload.UserID, time.Now().UTC().Format("20060102-150405"))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("member export: write file: %w", err)
		}

		logger.InfoContext(ctx, "member export written", "user_id", payload.UserID, "path", path)
		return nil
	}
}
