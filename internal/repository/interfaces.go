package repository

import (
	"context"
	"time"

	"github.com/careplus/frontdesk/internal/model"
)

type (
	// AuditRepository stores the front desk audit trail.
	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListWithPagination(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, int64, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
		Ping(ctx context.Context) error
	}
)
