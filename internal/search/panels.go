package search

import (
	"context"
	"strconv"
	"time"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/debounce"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

// Tuning carries the knobs shared by every panel of a workspace.
type Tuning struct {
	Debounce  time.Duration
	Timeout   time.Duration
	AfterFunc debounce.AfterFunc
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Selection controls whether panels apply booking eligibility.
type Selection int

const (
	// SelectAny lets every listed record be picked.
	SelectAny Selection = iota
	// SelectBookable refuses allocated patients and fully booked doctors.
	SelectBookable
)

const (
	MsgPatientAllocated  = "Patient already has an appointment."
	MsgDoctorUnavailable = "Doctor has no available time slots."
)

func PatientKey(p model.Patient) string {
	return strconv.FormatInt(p.ID, 10)
}

func DoctorKey(d model.DoctorDetail) string {
	return strconv.FormatInt(d.Doctor.DoctorID, 10)
}

func ReceptionistKey(r model.Receptionist) string {
	return strconv.FormatInt(r.ID, 10)
}

func AppointmentKey(a model.Appointment) string {
	return strconv.FormatInt(a.ID, 10)
}

// Bookable patients have no appointment yet.
func PatientBookable(p model.Patient) bool {
	return !p.Allocated
}

// Bookable doctors have at least one available slot.
func DoctorBookable(d model.DoctorDetail) bool {
	return d.HasAvailableSlot()
}

// Tuned builds typed Options carrying the shared tuning.
func Tuned[T any](t Tuning, entity string, key func(T) string) Options[T] {
	return Options[T]{
		Entity:    entity,
		Key:       key,
		Debounce:  t.Debounce,
		Timeout:   t.Timeout,
		AfterFunc: t.AfterFunc,
		Metrics:   t.Metrics,
		Logger:    t.Logger,
	}
}

func NewPatientPanel(api clinicapi.API, t Tuning, sel Selection) *Panel[model.Patient] {
	opts := Tuned(t, "patient", PatientKey)
	if sel == SelectBookable {
		opts.Selectable = PatientBookable
		opts.NotSelectable = MsgPatientAllocated
	}
	return NewPanel(Lookup[model.Patient]{
		ByID:   api.GetPatient,
		All:    api.ListPatients,
		ByName: api.SearchPatients,
	}, opts)
}

// NewDoctorPanel lists doctors with their calendars and refetches the
// calendar on selection.
func NewDoctorPanel(api clinicapi.API, t Tuning, sel Selection) *Panel[model.DoctorDetail] {
	opts := Tuned(t, "doctor", DoctorKey)
	opts.Detail = func(ctx context.Context, d model.DoctorDetail) (*model.DoctorDetail, error) {
		return api.GetDoctor(ctx, DoctorKey(d))
	}
	if sel == SelectBookable {
		opts.Selectable = DoctorBookable
		opts.NotSelectable = MsgDoctorUnavailable
	}
	return NewPanel(Lookup[model.DoctorDetail]{
		ByID:   api.GetDoctor,
		All:    api.ListDoctors,
		ByName: api.SearchDoctors,
	}, opts)
}

func NewReceptionistPanel(api clinicapi.API, t Tuning) *Panel[model.Receptionist] {
	return NewPanel(Lookup[model.Receptionist]{
		ByID:   api.GetReceptionist,
		All:    api.ListReceptionists,
		ByName: api.SearchReceptionists,
	}, Tuned(t, "receptionist", ReceptionistKey))
}

// NewAppointmentPanel looks appointments up by id, or by doctor name in name mode.
func NewAppointmentPanel(api clinicapi.API, t Tuning) *Panel[model.Appointment] {
	return NewPanel(Lookup[model.Appointment]{
		ByID:   api.GetAppointment,
		All:    api.ListAppointments,
		ByName: api.AppointmentsByDoctorName,
	}, Tuned(t, "appointment", AppointmentKey))
}
