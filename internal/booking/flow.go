// Package booking matches a patient with a doctor's calendar and books the
// appointment. It also serves appointment oversight and rescheduling.
package booking

import (
	"context"
	"strconv"
	"sync"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseSearching      Phase = "searching"
	PhaseMatchEvaluated Phase = "match_evaluated"
	PhaseSlotChosen     Phase = "date_time_chosen"
	PhaseConfirmPending Phase = "confirm_pending"
	PhaseBooked         Phase = "booked"
)

const (
	MsgMatch        = "Doctor is available at preferred time."
	MsgNoMatch      = "Doctor is not available at the patient's preferred date and time."
	MsgIncomplete   = "Select patient, doctor, date and time."
	MsgFailed       = "Failed to create appointment"
	MsgInvalidDate  = "Select one of the doctor's available dates."
	MsgInvalidTime  = "Select an available time for the chosen date."
	MsgNotConfirmed = "Confirm the appointment first."
	MsgNoDoctor     = "Select a doctor first."
	MsgConnection   = "Failed to connect to server"
	MsgSubmitting   = "The appointment is already being booked."
)

// Notifier is told about every booked appointment.
type Notifier interface {
	AppointmentBooked(ctx context.Context, c model.BookingConfirmation) error
}

type Deps struct {
	Notifier Notifier
	Auditor  audit.Recorder
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

type Flow struct {
	api      clinicapi.API
	patients *search.Panel[model.Patient]
	doctors  *search.Panel[model.DoctorDetail]
	notifier Notifier
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger

	mu         sync.Mutex
	patient    *model.Patient
	doctor     *model.DoctorDetail
	date       string
	time       string
	banner     string
	matched    bool
	confirming bool
	submitting bool
	status     string
	booked     *model.BookingConfirmation
}

// NewFlow builds a flow with its own patient and doctor panels, both
// refusing records that cannot be booked.
func NewFlow(api clinicapi.API, t search.Tuning, deps Deps) *Flow {
	if deps.Auditor == nil {
		deps.Auditor = audit.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Flow{
		api:      api,
		patients: search.NewPatientPanel(api, t, search.SelectBookable),
		doctors:  search.NewDoctorPanel(api, t, search.SelectBookable),
		notifier: deps.Notifier,
		auditor:  deps.Auditor,
		metrics:  deps.Metrics,
		log:      deps.Logger.Component("booking"),
	}
}

func (f *Flow) Patients() *search.Panel[model.Patient] {
	return f.patients
}

func (f *Flow) Doctors() *search.Panel[model.DoctorDetail] {
	return f.doctors
}

func (f *Flow) SelectPatient(ctx context.Context, key string) error {
	p, err := f.patients.Select(ctx, key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.patient = &p
	f.evaluate()
	return nil
}

// SelectDoctor picks a doctor; the panel refreshes the doctor's calendar.
func (f *Flow) SelectDoctor(ctx context.Context, key string) error {
	d, err := f.doctors.Select(ctx, key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctor = &d
	f.evaluate()
	return nil
}

// evaluate recomputes the match banner and the prefilled slot. Callers hold f.mu.
func (f *Flow) evaluate() {
	f.confirming = false
	f.booked = nil
	f.status = ""
	f.date, f.time = "", ""
	f.banner, f.matched = "", false

	if f.patient == nil || f.doctor == nil {
		return
	}
	if date, ok := f.doctor.FindDate(f.patient.Date); ok && date.SlotAvailable(f.patient.Time) {
		f.date, f.time = f.patient.Date, f.patient.Time
		f.banner, f.matched = MsgMatch, true
		return
	}
	f.banner = MsgNoMatch
}

// SelectDate overrides the date. It must be one of the doctor's dates with a
// free slot, and it clears the chosen time.
func (f *Flow) SelectDate(date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doctor == nil {
		return errors.Validation(MsgNoDoctor)
	}
	d, ok := f.doctor.FindDate(date)
	if !ok || len(d.AvailableTimes()) == 0 {
		return errors.Validation(MsgInvalidDate)
	}
	f.date = date
	f.time = ""
	f.confirming = false
	f.status = ""
	return nil
}

// SelectTime overrides the time within the chosen date.
func (f *Flow) SelectTime(t string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doctor == nil {
		return errors.Validation(MsgNoDoctor)
	}
	d, ok := f.doctor.FindDate(f.date)
	if !ok || !d.SlotAvailable(t) {
		return errors.Validation(MsgInvalidTime)
	}
	f.time = t
	f.confirming = false
	f.status = ""
	return nil
}

// SelectSlot sets the date and, when given, the time.
func (f *Flow) SelectSlot(date, t string) error {
	if err := f.SelectDate(date); err != nil {
		return err
	}
	if t == "" {
		return nil
	}
	return f.SelectTime(t)
}

// Confirm asks for the final go-ahead once everything is chosen.
func (f *Flow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.complete() {
		return errors.Validation(MsgIncomplete)
	}
	f.confirming = true
	f.status = ""
	return nil
}

// Cancel backs out of the confirmation and keeps the selections.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = false
}

func (f *Flow) complete() bool {
	return f.patient != nil && f.doctor != nil && f.date != "" && f.time != ""
}

// Submit books the confirmed slot. Success shows the confirmation and clears
// the flow; failure keeps every selection.
func (f *Flow) Submit(ctx context.Context) (*model.BookingConfirmation, error) {
	f.mu.Lock()
	if !f.complete() {
		f.mu.Unlock()
		return nil, errors.Validation(MsgIncomplete)
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, errors.Conflict(MsgSubmitting)
	}
	if !f.confirming {
		f.mu.Unlock()
		return nil, errors.Conflict(MsgNotConfirmed)
	}
	f.submitting = true
	patient, doctor := *f.patient, *f.doctor
	req := model.AppointmentRequest{
		PatientID: patient.ID,
		DoctorID:  doctor.Doctor.DoctorID,
		Date:      f.date,
		Time:      f.time,
	}
	matched := f.matched && req.Date == patient.Date && req.Time == patient.Time
	f.mu.Unlock()

	msg, err := f.api.CreateAppointment(ctx, req)

	f.auditor.Record(ctx, audit.Entry{
		Action:     model.AuditActionBook,
		EntityType: model.AuditEntityAppointment,
		Err:        err,
		Message:    msg,
		Metadata:   req,
	})
	if f.metrics != nil {
		f.metrics.BookingOutcomes.WithLabelValues(metrics.Outcome(err), strconv.FormatBool(matched)).Inc()
	}

	if err != nil {
		status := MsgFailed
		if errors.Is(err, errors.ErrUpstream) {
			status = errors.UserMessage(err, MsgFailed)
		}
		f.log.Warn("Booking failed", "patient_id", req.PatientID, "doctor_id", req.DoctorID, "error", err.Error())

		f.mu.Lock()
		f.submitting = false
		f.confirming = false
		f.status = status
		f.mu.Unlock()
		if !errors.Is(err, errors.ErrUpstream) {
			err = &errors.AppError{Code: errors.CodeOf(err), Message: status, Err: err}
		}
		return nil, err
	}

	confirmation := model.BookingConfirmation{
		Message:     msg,
		PatientID:   patient.ID,
		PatientName: patient.Name,
		DoctorID:    doctor.Doctor.DoctorID,
		DoctorName:  doctor.Doctor.Name,
		Specialist:  doctor.Doctor.Specialist,
		Date:        req.Date,
		Time:        req.Time,
	}
	f.log.Info("Appointment booked", "patient_id", req.PatientID, "doctor_id", req.DoctorID, "date", req.Date, "time", req.Time)
	f.notify(ctx, confirmation)

	f.patients.Reset()
	f.doctors.Reset()

	f.mu.Lock()
	f.submitting = false
	f.clear()
	f.booked = &confirmation
	f.mu.Unlock()
	return &confirmation, nil
}

func (f *Flow) notify(ctx context.Context, c model.BookingConfirmation) {
	if f.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := f.notifier.AppointmentBooked(ctx, c); err != nil {
			f.log.Error(err, "Failed to send booking confirmation", "patient_id", c.PatientID)
		}
	}()
}

// Reset dismisses the confirmation and returns to idle.
func (f *Flow) Reset() {
	f.patients.Reset()
	f.doctors.Reset()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear()
}

func (f *Flow) clear() {
	f.patient, f.doctor = nil, nil
	f.date, f.time = "", ""
	f.banner, f.matched = "", false
	f.confirming = false
	f.status = ""
	f.booked = nil
}

func (f *Flow) Close() {
	f.patients.Close()
	f.doctors.Close()
}

// Slot is one selectable date with its free times.
type Slot struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

type Snapshot struct {
	Phase        Phase                               `json:"phase"`
	Patients     search.Snapshot[model.Patient]      `json:"patients"`
	Doctors      search.Snapshot[model.DoctorDetail] `json:"doctors"`
	Patient      *model.Patient                      `json:"patient,omitempty"`
	Doctor       *model.DoctorDetail                 `json:"doctor,omitempty"`
	Banner       string                              `json:"banner,omitempty"`
	Matched      bool                                `json:"matched"`
	Dates        []Slot                              `json:"dates"`
	Date         string                              `json:"date"`
	Time         string                              `json:"time"`
	Confirming   bool                                `json:"confirming"`
	Submitting   bool                                `json:"submitting"`
	Status       string                              `json:"status,omitempty"`
	Confirmation *model.BookingConfirmation          `json:"confirmation,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	patients := f.patients.Snapshot()
	doctors := f.doctors.Snapshot()

	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		Patients:     patients,
		Doctors:      doctors,
		Patient:      f.patient,
		Doctor:       f.doctor,
		Banner:       f.banner,
		Matched:      f.matched,
		Dates:        []Slot{},
		Date:         f.date,
		Time:         f.time,
		Confirming:   f.confirming,
		Submitting:   f.submitting,
		Status:       f.status,
		Confirmation: f.booked,
	}
	if f.doctor != nil {
		for _, d := range f.doctor.AvailableDates {
			if times := d.AvailableTimes(); len(times) > 0 {
				s.Dates = append(s.Dates, Slot{Date: d.Date, Times: times})
			}
		}
	}

	switch {
	case f.booked != nil:
		s.Phase = PhaseBooked
	case f.confirming:
		s.Phase = PhaseConfirmPending
	case f.complete():
		s.Phase = PhaseSlotChosen
	case f.patient != nil && f.doctor != nil:
		s.Phase = PhaseMatchEvaluated
	case f.patient != nil || f.doctor != nil || patients.Attempted || doctors.Attempted || patients.Loading || doctors.Loading:
		s.Phase = PhaseSearching
	default:
		s.Phase = PhaseIdle
	}
	return s
}
