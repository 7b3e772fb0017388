package worker

import (
	"context"
	"time"

	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/logger"
)

// AuditCleanupWorker deletes audit rows older than the retention window.
type AuditCleanupWorker struct {
	service         *audit.Service
	retentionDays   int
	cleanupInterval time.Duration
	log             *logger.Logger
	now             func() time.Time
}

func NewAuditCleanupWorker(service *audit.Service, retentionDays int, cleanupInterval time.Duration, log *logger.Logger) *AuditCleanupWorker {
	if log == nil {
		log = logger.Nop()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	return &AuditCleanupWorker{
		service:         service,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		log:             log.Component("audit_cleanup"),
		now:             time.Now,
	}
}

// Start cleans up once, then on every tick until ctx is done.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Error(err, "Error cleaning up audit logs")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes what is past retention and returns the row count. A
// non-positive retention keeps everything.
func (w *AuditCleanupWorker) RunOnce(ctx context.Context) (int64, error) {
	if w.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.service.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	w.log.Info("Cleaned up audit logs", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
