package deletion

import (
	"context"
	"fmt"
	"strconv"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
)

// Kinds the gateway routes on.
const (
	KindPatients      = "patients"
	KindDoctors       = "doctors"
	KindReceptionists = "receptionists"
	KindAppointments  = "appointments"
)

func NewPatientFlow(api clinicapi.API, t search.Tuning, deps Deps) *Flow[model.Patient] {
	return New(Config[model.Patient]{
		Kind:   KindPatients,
		Entity: model.AuditEntityPatient,
		Panel:  search.NewPatientPanel(api, t, search.SelectAny),
		Key:    search.PatientKey,
		Remove: func(ctx context.Context, p model.Patient) (string, error) {
			return api.DeletePatient(ctx, p.ID)
		},
		Summary: func(p model.Patient) []Field {
			return []Field{
				{"ID", itoa(p.ID)},
				{"Name", p.Name},
				{"Phone", p.Number},
				{"Age", strconv.Itoa(p.Age)},
			}
		},
	}, deps)
}

func NewDoctorFlow(api clinicapi.API, t search.Tuning, deps Deps) *Flow[model.DoctorDetail] {
	return New(Config[model.DoctorDetail]{
		Kind:   KindDoctors,
		Entity: model.AuditEntityDoctor,
		Panel:  search.NewDoctorPanel(api, t, search.SelectAny),
		Key:    search.DoctorKey,
		Remove: func(ctx context.Context, d model.DoctorDetail) (string, error) {
			return api.DeleteDoctor(ctx, d.Doctor.DoctorID)
		},
		Summary: func(d model.DoctorDetail) []Field {
			return []Field{
				{"ID", itoa(d.Doctor.DoctorID)},
				{"Name", d.Doctor.Name},
				{"Specialist", d.Doctor.Specialist},
				{"Phone", d.Doctor.Number},
			}
		},
	}, deps)
}

func NewReceptionistFlow(api clinicapi.API, t search.Tuning, deps Deps) *Flow[model.Receptionist] {
	return New(Config[model.Receptionist]{
		Kind:   KindReceptionists,
		Entity: model.AuditEntityReceptionist,
		Panel:  search.NewReceptionistPanel(api, t),
		Key:    search.ReceptionistKey,
		Remove: func(ctx context.Context, r model.Receptionist) (string, error) {
			return api.DeleteReceptionist(ctx, r.ID)
		},
		Summary: func(r model.Receptionist) []Field {
			return []Field{
				{"ID", itoa(r.ID)},
				{"Name", r.Name},
				{"Phone", r.Number},
			}
		},
	}, deps)
}

func NewAppointmentFlow(api clinicapi.API, t search.Tuning, deps Deps) *Flow[model.Appointment] {
	return New(Config[model.Appointment]{
		Kind:   KindAppointments,
		Entity: model.AuditEntityAppointment,
		Panel:  search.NewAppointmentPanel(api, t),
		Key:    search.AppointmentKey,
		Remove: func(ctx context.Context, a model.Appointment) (string, error) {
			return api.DeleteAppointment(ctx, a.ID)
		},
		Summary: func(a model.Appointment) []Field {
			return []Field{
				{"ID", itoa(a.ID)},
				{"Patient", a.Patient.Name},
				{"Doctor", a.Doctor.Doctor.Name},
				{"Slot", fmt.Sprintf("%s %s", a.Date, a.Time)},
			}
		},
	}, deps)
}
