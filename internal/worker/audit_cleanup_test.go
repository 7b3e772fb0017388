package worker

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/service/audit"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockRepo) ListWithPagination(ctx context.Context, f model.AuditFilter) ([]*model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRunOnceDeletesPastRetention(t *testing.T) {
	repo := &mockRepo{}
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	repo.On("Cleanup", mock.Anything, now.AddDate(0, 0, -30)).Return(int64(7), nil).Once()

	w := NewAuditCleanupWorker(audit.NewService(repo, nil), 30, time.Hour, nil)
	w.now = func() time.Time { return now }

	rows, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), rows)
	repo.AssertExpectations(t)
}

func TestRunOnceKeepsEverythingWithoutRetention(t *testing.T) {
	repo := &mockRepo{}
	w := NewAuditCleanupWorker(audit.NewService(repo, nil), 0, time.Hour, nil)

	rows, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rows)
	repo.AssertNotCalled(t, "Cleanup", mock.Anything, mock.Anything)
}

func TestRunOnceReturnsStoreError(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Cleanup", mock.Anything, mock.Anything).Return(int64(0), stderrors.New("connection reset"))

	w := NewAuditCleanupWorker(audit.NewService(repo, nil), 30, time.Hour, nil)
	_, err := w.RunOnce(context.Background())
	assert.EqualError(t, err, "connection reset")
}

func TestStartStopsWithContext(t *testing.T) {
	repo := &mockRepo{}
	ran := make(chan struct{}, 1)
	repo.On("Cleanup", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	w := NewAuditCleanupWorker(audit.NewService(repo, nil), 30, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	<-ran
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
