package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/repository"
	"github.com/careplus/frontdesk/pkg/metrics"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// auditRow scans metadata through []byte so NULL is accepted.
type auditRow struct {
	model.AuditLog
	Metadata []byte `db:"metadata"`
}

type auditRepository struct {
	BaseRepository
	metrics *metrics.Metrics
}

// NewAuditRepository returns the Postgres audit store. m may be nil.
func NewAuditRepository(base BaseRepository, m *metrics.Metrics) repository.AuditRepository {
	return &auditRepository{BaseRepository: base, metrics: m}
}

func (r *auditRepository) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.DatabaseOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) (err error) {
	defer func(start time.Time) { r.observe("create", start, err) }(time.Now())

	query := `
        INSERT INTO audit_logs (
            id, session_id, actor, role, action, entity_type, entity_id,
            outcome, message, metadata, ip_address, user_agent, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			log.ID,
			log.SessionID,
			log.Actor,
			log.Role,
			log.Action,
			log.EntityType,
			log.EntityID,
			log.Outcome,
			log.Message,
			nullJSON(log.Metadata),
			log.IPAddress,
			log.UserAgent,
			log.CreatedAt,
		)
		return err
	})
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func (r *auditRepository) ListWithPagination(ctx context.Context, filter model.AuditFilter) (logs []*model.AuditLog, total int64, err error) {
	defer func(start time.Time) { r.observe("list", start, err) }(time.Now())

	var conditions []string
	var args []interface{}

	if filter.Actor != "" {
		args = append(args, filter.Actor)
		conditions = append(conditions, fmt.Sprintf("actor = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}

	baseQuery := "FROM audit_logs"
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	if err := r.GetDB().GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	pageArgs := append(append([]interface{}(nil), args...), limit, offset)
	query := "SELECT id, session_id, actor, role, action, entity_type, entity_id, outcome, message, metadata, " +
		"ip_address, user_agent, created_at " + baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	var rows []auditRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs = make([]*model.AuditLog, 0, len(rows))
	for i := range rows {
		entry := rows[i].AuditLog
		entry.Metadata = rows[i].Metadata
		logs = append(logs, &entry)
	}

	return logs, total, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (n int64, err error) {
	defer func(start time.Time) { r.observe("cleanup", start, err) }(time.Now())

	query := `
        DELETE FROM audit_logs
        WHERE created_at < $1
    `

	result, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	return result.RowsAffected()
}
