package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-pos/meridian/internal/jobs"
	"github.com/meridian-pos/meridian/internal/shared"
)

// AuditCleanupJob prunes old audit entries.
type AuditCleanupJob struct {
	audit   *shared.AuditLogger
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAuditCleanupJob constructs the job. metrics may be nil.
func NewAuditCleanupJob(audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditCleanupJob {
	return &AuditCleanupJob{audit: audit, logger: logger, metrics: metrics}
}

// Run deletes entries older than the retention window.
func (j *AuditCleanupJob) Run(ctx context.Context, payload AuditCleanupPayload) error {
	tracker := j.metrics.Track("audit_cleanup")
	return tracker.End(j.run(ctx, payload))
}

func (j *AuditCleanupJob) run(ctx context.Context, payload AuditCleanupPayload) error {
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	removed, err := j.audit.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	j.logger.Info("audit cleanup finished", slog.Int64("removed", removed))
	return nil
}

// HandlerFunc adapts the job to Asynq.
func (j *AuditCleanupJob) HandlerFunc() asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return j.Run(ctx, payload)
	}
}
