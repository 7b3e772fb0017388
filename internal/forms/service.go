// Package forms validates and submits the create and update forms of the
// front desk. Every submitted form ends in a modal.
package forms

import (
	"context"
	"strconv"

	"github.com/careplus/frontdesk/internal/catalog"
	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
	"github.com/careplus/frontdesk/pkg/validator"
)

const (
	MsgInvalidSpecialist = "Select a valid specialist."
	MsgConnection        = "Failed to connect to server"
)

type Service struct {
	api      clinicapi.API
	catalog  *catalog.Catalog
	validate validator.Validator
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewService(api clinicapi.API, cat *catalog.Catalog, v validator.Validator, auditor audit.Recorder, m *metrics.Metrics, log *logger.Logger) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if v == nil {
		v = validator.New()
	}
	return &Service{
		api:      api,
		catalog:  cat,
		validate: v,
		auditor:  auditor,
		metrics:  m,
		log:      log.Component("forms"),
	}
}

func (s *Service) CreatePatient(ctx context.Context, req model.PatientRequest) (*model.Modal, error) {
	if err := s.check("patient_create", &req); err != nil {
		return nil, err
	}
	return s.submit(ctx, "patient_create", model.AuditActionCreate, model.AuditEntityPatient, "", func(ctx context.Context) (string, error) {
		return s.api.CreatePatient(ctx, req.Patient(0))
	})
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, req model.PatientRequest) (*model.Modal, error) {
	if err := s.checkID("patient_update", id); err != nil {
		return nil, err
	}
	if err := s.check("patient_update", &req); err != nil {
		return nil, err
	}
	return s.submit(ctx, "patient_update", model.AuditActionUpdate, model.AuditEntityPatient, idString(id), func(ctx context.Context) (string, error) {
		return s.api.UpdatePatient(ctx, id, req.Patient(id))
	})
}

func (s *Service) CreateDoctor(ctx context.Context, req model.DoctorRequest) (*model.Modal, error) {
	specialist, err := s.checkDoctor("doctor_create", &req)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, "doctor_create", model.AuditActionCreate, model.AuditEntityDoctor, "", func(ctx context.Context) (string, error) {
		return s.api.CreateDoctor(ctx, req.Doctor(0, specialist))
	})
}

func (s *Service) UpdateDoctor(ctx context.Context, id int64, req model.DoctorRequest) (*model.Modal, error) {
	if err := s.checkID("doctor_update", id); err != nil {
		return nil, err
	}
	specialist, err := s.checkDoctor("doctor_update", &req)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, "doctor_update", model.AuditActionUpdate, model.AuditEntityDoctor, idString(id), func(ctx context.Context) (string, error) {
		return s.api.UpdateDoctor(ctx, id, req.Doctor(id, specialist))
	})
}

// AddAvailability publishes one calendar date for a doctor.
func (s *Service) AddAvailability(ctx context.Context, req model.AvailabilityRequest) (*model.Modal, error) {
	if err := s.check("availability", &req); err != nil {
		return nil, err
	}
	payload := model.AvailabilityPayload{
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Available: true,
		TimeSlots: req.TimeSlots,
	}
	if payload.TimeSlots == nil {
		payload.TimeSlots = []model.TimeSlot{}
	}
	return s.submit(ctx, "availability", model.AuditActionCreate, model.AuditEntityAvailability, idString(req.DoctorID), func(ctx context.Context) (string, error) {
		return s.api.AddAvailability(ctx, payload)
	})
}

func (s *Service) CreateReceptionist(ctx context.Context, req model.ReceptionistRequest) (*model.Modal, error) {
	if err := s.check("receptionist_create", &req); err != nil {
		return nil, err
	}
	return s.submit(ctx, "receptionist_create", model.AuditActionCreate, model.AuditEntityReceptionist, "", func(ctx context.Context) (string, error) {
		return s.api.CreateReceptionist(ctx, req.Payload(0))
	})
}

func (s *Service) UpdateReceptionist(ctx context.Context, id int64, req model.ReceptionistRequest) (*model.Modal, error) {
	if err := s.checkID("receptionist_update", id); err != nil {
		return nil, err
	}
	if err := s.check("receptionist_update", &req); err != nil {
		return nil, err
	}
	return s.submit(ctx, "receptionist_update", model.AuditActionUpdate, model.AuditEntityReceptionist, idString(id), func(ctx context.Context) (string, error) {
		return s.api.UpdateReceptionist(ctx, id, req.Payload(id))
	})
}

func (s *Service) checkDoctor(form string, req *model.DoctorRequest) (model.Specialist, error) {
	if err := s.check(form, req); err != nil {
		return model.Specialist{}, err
	}
	specialist, ok := s.catalog.Specialist(req.SpecialistID)
	if !ok {
		s.observe(form, "invalid")
		return model.Specialist{}, errors.Validation(MsgInvalidSpecialist)
	}
	return specialist, nil
}

func (s *Service) check(form string, req interface{}) error {
	if err := s.validate.Validate(req); err != nil {
		s.observe(form, "invalid")
		return err
	}
	return nil
}

func (s *Service) checkID(form string, id int64) error {
	if id <= 0 {
		s.observe(form, "invalid")
		return errors.Validation(search.MsgInvalidID)
	}
	return nil
}

// submit sends a validated form. On failure the returned modal carries the
// server text verbatim, or the connection message.
func (s *Service) submit(ctx context.Context, form, action, entity, entityID string, call func(ctx context.Context) (string, error)) (*model.Modal, error) {
	msg, err := call(ctx)

	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		Err:        err,
		Message:    msg,
	})

	if err != nil {
		s.observe(form, outcome(err))
		s.log.Warn("Form submission failed", "form", form, "entity_id", entityID, "error", err.Error())
		return model.ErrorModal(errors.UserMessage(err, MsgConnection)), err
	}

	s.observe(form, "success")
	s.log.Info("Form submitted", "form", form, "entity_id", entityID)
	return model.SuccessModal(msg), nil
}

func (s *Service) observe(form, result string) {
	if s.metrics != nil {
		s.metrics.FormOutcomes.WithLabelValues(form, result).Inc()
	}
}

func outcome(err error) string {
	if errors.Is(err, errors.ErrUpstream) {
		return "rejected"
	}
	return "error"
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
