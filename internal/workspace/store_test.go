package workspace

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/clinicapi/clinictest"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/pkg/debounce"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/metrics"
)

func newStore(t *testing.T, idle time.Duration) (*Store, *clinictest.Server, *debounce.ManualClock, *metrics.Metrics) {
	t.Helper()
	srv := clinictest.New(t)
	clock := debounce.NewManualClock()
	m := metrics.New("test")
	f := Factory{API: srv.Client(), Tuning: search.Tuning{AfterFunc: clock.AfterFunc}}
	return NewStore(f, idle, time.Hour, m, nil), srv, clock, m
}

func TestOneWorkspacePerSession(t *testing.T) {
	store, _, _, m := newStore(t, time.Hour)
	sess := &model.Session{ID: "a", Role: model.RoleReceptionist}

	w1, err := store.For(sess)
	require.NoError(t, err)
	w2, err := store.For(sess)
	require.NoError(t, err)
	assert.Same(t, w1, w2)

	other, err := store.For(&model.Session{ID: "b", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.NotSame(t, w1, other)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Workspaces))

	_, err = store.For(&model.Session{ID: "a", Role: model.RoleAdmin})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestDropCancelsPendingSearches(t *testing.T) {
	store, srv, clock, m := newStore(t, time.Hour)
	sess := &model.Session{ID: "a", Role: model.RoleReceptionist}
	w, err := store.For(sess)
	require.NoError(t, err)

	panel, err := w.Panel(Patients)
	require.NoError(t, err)
	require.NoError(t, panel.Input(search.ModeName, "asha"))

	store.Drop("a")
	clock.Advance(time.Second)

	assert.Zero(t, srv.Count(http.MethodGet, "/api/patients"))
	assert.Zero(t, store.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Workspaces))
}

func TestIdleWorkspaceExpires(t *testing.T) {
	store, _, _, _ := newStore(t, 10*time.Millisecond)
	_, err := store.For(&model.Session{ID: "a", Role: model.RoleReceptionist})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	store.cache.DeleteExpired()
	assert.Zero(t, store.Len())
}

func TestExpiredWorkspaceClosedWhenReplaced(t *testing.T) {
	store, srv, clock, m := newStore(t, 20*time.Millisecond)
	sess := &model.Session{ID: "a", Role: model.RoleReceptionist}
	old, err := store.For(sess)
	require.NoError(t, err)

	panel, err := old.Panel(Patients)
	require.NoError(t, err)
	require.NoError(t, panel.Input(search.ModeName, "asha"))

	time.Sleep(40 * time.Millisecond)
	fresh, err := store.For(sess)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)

	clock.Advance(time.Second)
	assert.Zero(t, srv.Count(http.MethodGet, "/api/patients"), "the expired workspace's pending search is cancelled")
	assert.Error(t, panel.Input(search.ModeName, "ravi"))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Workspaces))
}

func TestKinds(t *testing.T) {
	store, srv, _, _ := newStore(t, time.Hour)
	d := srv.AddDoctor(model.DoctorDetail{Doctor: model.Doctor{Name: "Dr. Mehta"}})
	w, err := store.For(&model.Session{ID: "a", Role: model.RoleAdmin})
	require.NoError(t, err)

	for _, kind := range []string{Patients, Doctors, Receptionists, Appointments} {
		_, err := w.Panel(kind)
		assert.NoError(t, err, kind)
		_, err = w.Deletion(kind)
		assert.NoError(t, err, kind)
	}
	_, err = w.Panel("nurses")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	doctors, _ := w.Panel(Doctors)
	require.NoError(t, doctors.Input(search.ModeName, ""))
	require.NoError(t, doctors.Submit(context.Background()))
	require.NoError(t, doctors.Pick(context.Background(), search.DoctorKey(d)))
	got, ok := w.SelectedDoctor()
	require.True(t, ok)
	assert.Equal(t, "Dr. Mehta", got.Doctor.Name)
}
