package booking

import (
	"context"
	"encoding/json"
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

type notifier struct {
	sent chan model.BookingConfirmation
}

func (n *notifier) AppointmentBooked(_ context.Context, c model.BookingConfirmation) error {
	n.sent <- c
	return nil
}

func calendar() []model.AvailableDate {
	return []model.AvailableDate{
		{Date: "2024-06-01", TimeSlots: []model.TimeSlot{{Time: "10:00", Available: true}, {Time: "11:00", Available: false}}},
		{Date: "2024-06-03", TimeSlots: []model.TimeSlot{{Time: "09:00", Available: true}}},
		{Date: "2024-06-04", TimeSlots: []model.TimeSlot{{Time: "09:00", Available: false}}},
	}
}

type fixture struct {
	srv     *clinictest.Server
	flow    *Flow
	metrics *metrics.Metrics
	notes   *notifier
	patient model.Patient
	doctor  model.DoctorDetail
}

func newFixture(t *testing.T, preferredDate, preferredTime string) *fixture {
	t.Helper()
	srv := clinictest.New(t)
	p := srv.AddPatient(model.Patient{Name: "Asha Rao", Number: "9876543210", Age: 30, Date: preferredDate, Time: preferredTime})
	d := srv.AddDoctor(model.DoctorDetail{
		Doctor:         model.Doctor{Name: "Dr. Mehta", Specialist: "Cardiologist", SpecialistID: 2},
		AvailableDates: calendar(),
	})
	m := metrics.New("test")
	n := &notifier{sent: make(chan model.BookingConfirmation, 1)}
	tuning := search.Tuning{AfterFunc: debounce.NewManualClock().AfterFunc}
	f := NewFlow(srv.Client(), tuning, Deps{Notifier: n, Metrics: m})
	t.Cleanup(f.Close)

	fx := &fixture{srv: srv, flow: f, metrics: m, notes: n, patient: p, doctor: d}
	fx.listAll(t)
	return fx
}

func (fx *fixture) listAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fx.flow.Patients().Input(search.ModeName, ""))
	require.NoError(t, fx.flow.Patients().Submit(ctx))
	require.NoError(t, fx.flow.Doctors().Input(search.ModeName, ""))
	require.NoError(t, fx.flow.Doctors().Submit(ctx))
}

func (fx *fixture) selectBoth(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.flow.SelectPatient(context.Background(), search.PatientKey(fx.patient)))
	require.NoError(t, fx.flow.SelectDoctor(context.Background(), search.DoctorKey(fx.doctor)))
}

func TestPreferredSlotMatch(t *testing.T) {
	fx := newFixture(t, "2024-06-01", "10:00")
	assert.Equal(t, PhaseSearching, fx.flow.Snapshot().Phase)

	fx.selectBoth(t)
	snap := fx.flow.Snapshot()
	assert.Equal(t, MsgMatch, snap.Banner)
	assert.True(t, snap.Matched)
	assert.Equal(t, "2024-06-01", snap.Date)
	assert.Equal(t, "10:00", snap.Time)
	assert.Equal(t, PhaseSlotChosen, snap.Phase)
	assert.Equal(t, []Slot{{Date: "2024-06-01", Times: []string{"10:00"}}, {Date: "2024-06-03", Times: []string{"09:00"}}}, snap.Dates)

	require.NoError(t, fx.flow.Confirm())
	assert.Equal(t, PhaseConfirmPending, fx.flow.Snapshot().Phase)

	conf, err := fx.flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Appointment booked successfully with ID: 103", conf.Message)
	assert.Equal(t, "Dr. Mehta", conf.DoctorName)

	var sent model.AppointmentRequest
	require.NoError(t, json.Unmarshal([]byte(fx.srv.Requests(http.MethodPost, "/api/appointments")[0].Body), &sent))
	assert.Equal(t, model.AppointmentRequest{PatientID: 101, DoctorID: 102, Date: "2024-06-01", Time: "10:00"}, sent)

	snap = fx.flow.Snapshot()
	assert.Equal(t, PhaseBooked, snap.Phase)
	require.NotNil(t, snap.Confirmation)
	assert.Nil(t, snap.Patient)
	assert.Nil(t, snap.Doctor)
	assert.Empty(t, snap.Date)

	select {
	case c := <-fx.notes.sent:
		assert.Equal(t, "Asha Rao", c.PatientName)
	case <-time.After(2 * time.Second):
		t.Fatal("booking confirmation not sent")
	}

	stored, _ := fx.srv.Patient(fx.patient.ID)
	assert.True(t, stored.Allocated)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.BookingOutcomes.WithLabelValues("success", "true")))

	fx.flow.Reset()
	snap = fx.flow.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Confirmation)
}

func TestPreferredSlotMismatch(t *testing.T) {
	fx := newFixture(t, "2024-06-02", "10:00")
	fx.selectBoth(t)

	snap := fx.flow.Snapshot()
	assert.Equal(t, MsgNoMatch, snap.Banner)
	assert.False(t, snap.Matched)
	assert.Empty(t, snap.Date)
	assert.Empty(t, snap.Time)
	assert.Equal(t, PhaseMatchEvaluated, snap.Phase)

	err := fx.flow.Confirm()
	require.Error(t, err)
	assert.Equal(t, MsgIncomplete, err.Error())

	assert.Equal(t, MsgInvalidTime, fx.flow.SelectTime("10:00").Error())
	assert.Equal(t, MsgInvalidDate, fx.flow.SelectDate("2024-06-02").Error())
	assert.Equal(t, MsgInvalidDate, fx.flow.SelectDate("2024-06-04").Error(), "dates without a free slot are not offered")

	require.NoError(t, fx.flow.SelectDate("2024-06-01"))
	assert.Equal(t, MsgInvalidTime, fx.flow.SelectTime("11:00").Error())
	require.NoError(t, fx.flow.SelectTime("10:00"))

	require.NoError(t, fx.flow.SelectDate("2024-06-03"))
	assert.Empty(t, fx.flow.Snapshot().Time, "changing the date clears the time")
	require.NoError(t, fx.flow.SelectSlot("2024-06-03", "09:00"))

	require.NoError(t, fx.flow.Confirm())
	_, err = fx.flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.BookingOutcomes.WithLabelValues("success", "false")))
}

func TestSelectionChangeRecomputesMatch(t *testing.T) {
	fx := newFixture(t, "2024-06-01", "10:00")
	other := fx.srv.AddDoctor(model.DoctorDetail{
		Doctor:         model.Doctor{Name: "Dr. Sen"},
		AvailableDates: []model.AvailableDate{{Date: "2024-06-09", TimeSlots: []model.TimeSlot{{Time: "10:00", Available: true}}}},
	})
	fx.listAll(t)
	fx.selectBoth(t)
	require.NoError(t, fx.flow.Confirm())

	require.NoError(t, fx.flow.SelectDoctor(context.Background(), search.DoctorKey(other)))
	snap := fx.flow.Snapshot()
	assert.Equal(t, MsgNoMatch, snap.Banner)
	assert.False(t, snap.Confirming)
	assert.Empty(t, snap.Date)
}

func TestSubmitFailureKeepsSelections(t *testing.T) {
	fx := newFixture(t, "2024-06-01", "10:00")
	fx.selectBoth(t)

	_, err := fx.flow.Submit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrConflict), "submit needs confirmation")

	fx.srv.Fail(http.MethodPost, "/api/appointments", http.StatusConflict, "Slot already taken")
	require.NoError(t, fx.flow.Confirm())
	_, err = fx.flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Slot already taken", err.Error())

	snap := fx.flow.Snapshot()
	assert.Equal(t, "Slot already taken", snap.Status)
	require.NotNil(t, snap.Patient)
	require.NotNil(t, snap.Doctor)
	assert.Equal(t, "2024-06-01", snap.Date)
	assert.Equal(t, PhaseSlotChosen, snap.Phase)

	fx.srv.Close()
	require.NoError(t, fx.flow.Confirm())
	_, err = fx.flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgFailed, fx.flow.Snapshot().Status)
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.BookingOutcomes.WithLabelValues("error", "true")))
}

func TestAllocatedPatientRefused(t *testing.T) {
	fx := newFixture(t, "2024-06-01", "10:00")
	booked := fx.srv.AddPatient(model.Patient{Name: "Ravi", Allocated: true})
	fx.listAll(t)

	err := fx.flow.SelectPatient(context.Background(), search.PatientKey(booked))
	require.Error(t, err)
	assert.Equal(t, search.MsgPatientAllocated, err.Error())
	assert.Nil(t, fx.flow.Snapshot().Patient)
}

func TestSubmitRefusedWhileBooking(t *testing.T) {
	fx := newFixture(t, "2024-06-01", "10:00")
	fx.selectBoth(t)
	require.NoError(t, fx.flow.Confirm())

	entered := make(chan struct{})
	release := make(chan struct{})
	fx.srv.OnRequest(func(r *http.Request) {
		if r.Method == http.MethodPost {
			close(entered)
			<-release
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := fx.flow.Submit(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, fx.flow.Snapshot().Submitting)
	_, err := fx.flow.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, MsgSubmitting, err.Error())

	close(release)
	require.NoError(t, <-done)
	reqs := fx.srv.Requests(http.MethodPost, "/api/appointments")
	require.Len(t, reqs, 1)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &sent))
	assert.EqualValues(t, fx.doctor.Doctor.DoctorID, sent["doctorId"])
	assert.NotContains(t, sent, "docterId")

	snap := fx.flow.Snapshot()
	assert.False(t, snap.Submitting)
	assert.Equal(t, PhaseBooked, snap.Phase)
	<-fx.notes.sent
}
