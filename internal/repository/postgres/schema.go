package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the audit trail table. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
    id          UUID PRIMARY KEY,
    session_id  TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT '',
    role        TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL,
    message     TEXT NOT NULL DEFAULT '',
    metadata    JSONB,
    ip_address  TEXT NOT NULL DEFAULT '',
    user_agent  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at);
CREATE INDEX IF NOT EXISTS idx_audit_logs_actor ON audit_logs (actor, created_at);
`

func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return nil
}
