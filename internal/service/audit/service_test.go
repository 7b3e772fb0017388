package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/errors"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockRepo) ListWithPagination(ctx context.Context, f model.AuditFilter) ([]*model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]*model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestLogCarriesActorAndOutcome(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)
	ctx := WithActor(context.Background(), Actor{SessionID: "s1", Identifier: "admin", Role: "admin", IPAddress: "10.0.0.1"})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *model.AuditLog) bool {
		return l.Actor == "admin" &&
			l.SessionID == "s1" &&
			l.Outcome == model.AuditOutcomeFailure &&
			l.Message == "Receptionist not found with ID: 9" &&
			l.EntityID == "9" &&
			string(l.Metadata) == `{"name":"Meera"}`
	})).Return(nil).Once()

	err := svc.Log(ctx, Entry{
		Action:     model.AuditActionDelete,
		EntityType: model.AuditEntityReceptionist,
		EntityID:   "9",
		Err:        errors.Upstream(404, "Receptionist not found with ID: 9"),
		Metadata:   map[string]string{"name": "Meera"},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAsyncLoggerKeepsActorAfterRequestEnds(t *testing.T) {
	repo := &mockRepo{}
	l := NewAuditLogger(NewService(repo, nil))

	var got *model.AuditLog
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(*model.AuditLog)
	}).Return(nil).Once()

	ctx, cancel := context.WithCancel(WithActor(context.Background(), Actor{Identifier: "7012345677", Role: "receptionist"}))
	l.Record(ctx, Entry{Action: model.AuditActionBook, EntityType: model.AuditEntityAppointment, Message: "ok"})
	cancel()
	l.Flush()

	require.NotNil(t, got)
	assert.Equal(t, "7012345677", got.Actor)
	assert.Equal(t, model.AuditOutcomeSuccess, got.Outcome)
	assert.True(t, json.Valid(got.Metadata) || got.Metadata == nil)
}

func TestWithoutStore(t *testing.T) {
	svc := NewService(nil, nil)

	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Log(context.Background(), Entry{Action: "login"}))
	_, _, err := svc.List(context.Background(), model.AuditFilter{})
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}
