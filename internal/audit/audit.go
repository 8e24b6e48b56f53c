package audit

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// Recorder appends audit-log rows. Writes are best effort: a failed
// insert is logged and swallowed so bookkeeping never fails the
// operation it describes.
type Recorder struct {
	db     *sql.DB
	logger logging.Logger
}

// NewRecorder creates an audit recorder on the given database
func NewRecorder(db *sql.DB, logger logging.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Entry is one audited action
type Entry struct {
	UserID     string
	Action     string
	TargetType string
	TargetID   string
	Params     models.JSONB
	ClientIP   string
	UserAgent  string
}

// Record persists one audit entry. Errors never propagate to the caller.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, target_type, target_id, params, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), entry.UserID, entry.Action, entry.TargetType, entry.TargetID,
		entry.Params, entry.ClientIP, entry.UserAgent)
	if err != nil {
		r.logger.WithFields(logging.Fields{
			"user_id": entry.UserID,
			"action":  entry.Action,
			"error":   err,
		}).Warn("Failed to write audit log entry")
	}
}
