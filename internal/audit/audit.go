// internal/audit/audit.go

// Package audit records every step change in Postgres. The trail answers
// "where did applicants stall" questions; it is observability data, so a
// write failure is logged and swallowed, never surfaced to the user flow.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/wizard/step"
)

const insertTransition = `
	INSERT INTO step_transitions (id, application_id, from_step, to_step, occurred_at)
	VALUES ($1, $2, $3, $4, $5)`

// Recorder writes step transitions.
type Recorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{db: db, logger: log}
}

// Record inserts one transition row.
func (r *Recorder) Record(ctx context.Context, applicationID string, from, to step.Step) error {
	_, err := r.db.ExecContext(ctx, insertTransition,
		uuid.New().String(), applicationID, string(from), string(to), time.Now().UTC())
	return err
}

// Hook adapts the recorder to the controller's step-change subscription.
// Recording happens on a short independent deadline so a slow database
// cannot hold a user's transition hostage.
func (r *Recorder) Hook() func(applicationID string, from, to step.Step) {
	return func(applicationID string, from, to step.Step) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Record(ctx, applicationID, from, to); err != nil {
			r.logger.WithError(err).Warn("step transition audit write failed", map[string]interface{}{
				"application_id": applicationID,
				"from_step":      string(from),
				"to_step":        string(to),
			})
		}
	}
}
