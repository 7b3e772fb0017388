package clinicapi

import (
	"context"

	"github.com/careplus/frontdesk/internal/model"
)

// API is every clinic API call the front desk makes. *HTTPClient implements it.
type API interface {
	ListPatients(ctx context.Context) ([]model.Patient, error)
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	SearchPatients(ctx context.Context, name string) ([]model.Patient, error)
	CreatePatient(ctx context.Context, p model.Patient) (string, error)
	UpdatePatient(ctx context.Context, id int64, p model.Patient) (string, error)
	DeletePatient(ctx context.Context, id int64) (string, error)

	ListDoctors(ctx context.Context) ([]model.DoctorDetail, error)
	GetDoctor(ctx context.Context, id string) (*model.DoctorDetail, error)
	SearchDoctors(ctx context.Context, name string) ([]model.DoctorDetail, error)
	CreateDoctor(ctx context.Context, d model.Doctor) (string, error)
	UpdateDoctor(ctx context.Context, id int64, d model.Doctor) (string, error)
	DeleteDoctor(ctx context.Context, id int64) (string, error)
	AddAvailability(ctx context.Context, p model.AvailabilityPayload) (string, error)

	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
	AppointmentsByDoctorName(ctx context.Context, name string) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, req model.AppointmentRequest) (string, error)
	UpdateAppointment(ctx context.Context, id int64, req model.AppointmentRequest) (string, error)
	DeleteAppointment(ctx context.Context, id int64) (string, error)

	ListReceptionists(ctx context.Context) ([]model.Receptionist, error)
	GetReceptionist(ctx context.Context, id string) (*model.Receptionist, error)
	SearchReceptionists(ctx context.Context, name string) ([]model.Receptionist, error)
	CreateReceptionist(ctx context.Context, p model.ReceptionistPayload) (string, error)
	UpdateReceptionist(ctx context.Context, id int64, p model.ReceptionistPayload) (string, error)
	DeleteReceptionist(ctx context.Context, id int64) (string, error)
	LoginReceptionist(ctx context.Context, identifier, password string) (*model.LoginResponse, error)

	Ready() error
}

var _ API = (*HTTPClient)(nil)
