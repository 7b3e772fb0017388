package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/metrics"
)

func newMockRepo(t *testing.T) (*auditRepository, sqlmock.Sqlmock, *metrics.Metrics) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := metrics.New("test")
	repo := NewAuditRepository(NewBaseRepository(sqlx.NewDb(db, "postgres")), m).(*auditRepository)
	return repo, mock, m
}

func TestAuditCreate(t *testing.T) {
	repo, mock, m := newMockRepo(t)

	entry := &model.AuditLog{
		ID:         uuid.New(),
		SessionID:  "sess-1",
		Actor:      "7012345677",
		Role:       "receptionist",
		Action:     model.AuditActionBook,
		EntityType: model.AuditEntityAppointment,
		EntityID:   "101",
		Outcome:    model.AuditOutcomeSuccess,
		Message:    "Appointment booked successfully",
		Metadata:   json.RawMessage(`{"date":"2024-06-01"}`),
		CreatedAt:  time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(entry.ID, "sess-1", "7012345677", "receptionist", "book", "appointment", "101",
			"success", "Appointment booked successfully", []byte(`{"date":"2024-06-01"}`), "", "", entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("create", "success")))
}

func TestAuditCreateRollsBack(t *testing.T) {
	repo, mock, m := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.AuditLog{ID: uuid.New()})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("create", "error")))
}

func TestAuditListWithFilters(t *testing.T) {
	repo, mock, _ := newMockRepo(t)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE actor = $1 AND action = $2 AND created_at >= $3")).
		WithArgs("admin", "delete", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "session_id", "actor", "role", "action", "entity_type", "entity_id",
		"outcome", "message", "metadata", "ip_address", "user_agent", "created_at"}).
		AddRow(id.String(), "s", "admin", "admin", "delete", "receptionist", "7", "success", "Receptionist deleted successfully.", nil, "127.0.0.1", "ua", from)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("admin", "delete", from, 2, 0).
		WillReturnRows(rows)

	logs, total, err := repo.ListWithPagination(context.Background(), model.AuditFilter{
		Actor:  "admin",
		Action: "delete",
		From:   from,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, logs, 1)
	assert.Equal(t, id, logs[0].ID)
	assert.Equal(t, "receptionist", logs[0].EntityType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListDefaultsLimit(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(defaultAuditLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	logs, total, err := repo.ListWithPagination(context.Background(), model.AuditFilter{Offset: -5})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCleanup(t *testing.T) {
	repo, mock, _ := newMockRepo(t)
	before := time.Now().AddDate(0, 0, -90)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_logs")).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := repo.Cleanup(context.Background(), before)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
