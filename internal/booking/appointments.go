package booking

import (
	"context"
	"strconv"
	"strings"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
	"github.com/careplus/frontdesk/pkg/validator"
)

const MsgSameSlot = "The appointment is already booked for this date and time."

// Appointments serves appointment oversight: listings, lookups and
// rescheduling within the appointment doctor's calendar.
type Appointments struct {
	api      clinicapi.API
	validate validator.Validator
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewAppointments(api clinicapi.API, v validator.Validator, auditor audit.Recorder, m *metrics.Metrics, log *logger.Logger) *Appointments {
	if v == nil {
		v = validator.New()
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Appointments{
		api:      api,
		validate: v,
		auditor:  auditor,
		metrics:  m,
		log:      log.Component("appointments"),
	}
}

func (a *Appointments) List(ctx context.Context) ([]model.Appointment, error) {
	return a.api.ListAppointments(ctx)
}

func (a *Appointments) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Validation(search.MsgInvalidID)
	}
	return a.api.GetAppointment(ctx, id)
}

// ByDoctor lists a doctor's appointments by doctor id, or by doctor name when
// no id is given. With neither it lists everything.
func (a *Appointments) ByDoctor(ctx context.Context, doctorID, name string) ([]model.Appointment, error) {
	doctorID, name = strings.TrimSpace(doctorID), strings.TrimSpace(name)
	switch {
	case doctorID != "":
		return a.api.AppointmentsByDoctor(ctx, doctorID)
	case name != "":
		return a.api.AppointmentsByDoctorName(ctx, name)
	default:
		return a.api.ListAppointments(ctx)
	}
}

// Reschedule moves an appointment to another slot of the same doctor. The
// slot must be free unless req.Force is set.
func (a *Appointments) Reschedule(ctx context.Context, id int64, req model.RescheduleRequest) (*model.Modal, error) {
	if id <= 0 {
		return nil, errors.Validation(search.MsgInvalidID)
	}
	if err := a.validate.Validate(&req); err != nil {
		return nil, err
	}

	appt, err := a.api.GetAppointment(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	if appt.Date == req.Date && appt.Time == req.Time {
		return nil, errors.Validation(MsgSameSlot)
	}

	if !req.Force {
		doctor, err := a.api.GetDoctor(ctx, strconv.FormatInt(appt.Doctor.Doctor.DoctorID, 10))
		if err != nil {
			return nil, err
		}
		date, ok := doctor.FindDate(req.Date)
		if !ok {
			return nil, errors.Validation(MsgInvalidDate)
		}
		if !date.SlotAvailable(req.Time) {
			return nil, errors.Validation(MsgInvalidTime)
		}
	}

	update := model.AppointmentRequest{
		PatientID: appt.Patient.ID,
		DoctorID:  appt.Doctor.Doctor.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
	}
	msg, err := a.api.UpdateAppointment(ctx, id, update)

	a.auditor.Record(ctx, audit.Entry{
		Action:     model.AuditActionReschedule,
		EntityType: model.AuditEntityAppointment,
		EntityID:   strconv.FormatInt(id, 10),
		Err:        err,
		Message:    msg,
		Metadata: map[string]interface{}{
			"from":  appt.Date + " " + appt.Time,
			"to":    req.Date + " " + req.Time,
			"force": req.Force,
		},
	})
	if a.metrics != nil {
		a.metrics.FormOutcomes.WithLabelValues("appointment_reschedule", metrics.Outcome(err)).Inc()
	}

	if err != nil {
		a.log.Warn("Reschedule failed", "appointment_id", id, "error", err.Error())
		return model.ErrorModal(errors.UserMessage(err, MsgConnection)), err
	}
	a.log.Info("Appointment rescheduled", "appointment_id", id, "date", req.Date, "time", req.Time, "force", req.Force)
	return model.SuccessModal(msg), nil
}
