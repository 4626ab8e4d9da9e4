package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMemberExport writes a CSV snapshot of the records visible to a user.
	TaskMemberExport = "members:export"
	// TaskSessionSweep removes expired session rows.
	TaskSessionSweep = "sessions:sweep"
)

// MemberExportPayload identifies the user on whose behalf the export runs.
// The export is scoped to what that user is allowed to see.
type MemberExportPayload struct {
	UserID string `json:"user_id"`
}

// NewMemberExportTask constructs an Asynq task.
func NewMemberExportTask(payload MemberExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal member export payload: %w", err)
	}
	return asynq.NewTask(TaskMemberExport, data), nil
}

// NewSessionSweepTask constructs the periodic sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
