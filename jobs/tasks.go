package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrityScan recomputes stock from document history and
	// reports drift against the ledger.
	TaskStockIntegrityScan = "stock:integrity_scan"
	// TaskAuditCleanup prunes audit entries past the retention window.
	TaskAuditCleanup = "audit:cleanup"
)

// StockIntegrityPayload scopes an integrity scan. StoreID zero scans all
// stores.
type StockIntegrityPayload struct {
	StoreID   int64   `json:"store_id"`
	Tolerance float64 `json:"tolerance"`
}

// NewStockIntegrityTask constructs an Asynq task.
func NewStockIntegrityTask(payload StockIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrityScan, data), nil
}

// AuditCleanupPayload carries the retention window in hours.
type AuditCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditCleanupTask constructs an Asynq task.
func NewAuditCleanupTask(payload AuditCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}
