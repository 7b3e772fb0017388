// Package workspace holds the per-session state of the front desk: search
// panels, delete flows and the booking flow.
package workspace

import (
	"github.com/careplus/frontdesk/internal/booking"
	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/deletion"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/pkg/errors"
)

// Panel kinds.
const (
	Patients      = "patients"
	Doctors       = "doctors"
	Receptionists = "receptionists"
	Appointments  = "appointments"
)

// Factory builds workspaces.
type Factory struct {
	API      clinicapi.API
	Tuning   search.Tuning
	Deletion deletion.Deps
	Booking  booking.Deps
}

type Workspace struct {
	SessionID string
	Role      model.Role

	patients      *search.Panel[model.Patient]
	doctors       *search.Panel[model.DoctorDetail]
	receptionists *search.Panel[model.Receptionist]
	appointments  *search.Panel[model.Appointment]

	deletions map[string]deletion.Control
	closers   []func()
	booking   *booking.Flow
}

func (f Factory) New(sess *model.Session) *Workspace {
	w := &Workspace{
		SessionID:     sess.ID,
		Role:          sess.Role,
		patients:      search.NewPatientPanel(f.API, f.Tuning, search.SelectAny),
		doctors:       search.NewDoctorPanel(f.API, f.Tuning, search.SelectAny),
		receptionists: search.NewReceptionistPanel(f.API, f.Tuning),
		appointments:  search.NewAppointmentPanel(f.API, f.Tuning),
		booking:       booking.NewFlow(f.API, f.Tuning, f.Booking),
	}

	patientDel := deletion.NewPatientFlow(f.API, f.Tuning, f.Deletion)
	doctorDel := deletion.NewDoctorFlow(f.API, f.Tuning, f.Deletion)
	receptionistDel := deletion.NewReceptionistFlow(f.API, f.Tuning, f.Deletion)
	appointmentDel := deletion.NewAppointmentFlow(f.API, f.Tuning, f.Deletion)
	w.deletions = map[string]deletion.Control{
		Patients:      deletion.Controlled(patientDel),
		Doctors:       deletion.Controlled(doctorDel),
		Receptionists: deletion.Controlled(receptionistDel),
		Appointments:  deletion.Controlled(appointmentDel),
	}

	w.closers = []func(){
		w.patients.Close,
		w.doctors.Close,
		w.receptionists.Close,
		w.appointments.Close,
		patientDel.Close,
		doctorDel.Close,
		receptionistDel.Close,
		appointmentDel.Close,
		w.booking.Close,
	}
	return w
}

// Panel returns the browsing panel of a kind.
func (w *Workspace) Panel(kind string) (search.Control, error) {
	switch kind {
	case Patients:
		return w.patients, nil
	case Doctors:
		return w.doctors, nil
	case Receptionists:
		return w.receptionists, nil
	case Appointments:
		return w.appointments, nil
	}
	return nil, errors.NotFound("panel", nil)
}

func (w *Workspace) Deletion(kind string) (deletion.Control, error) {
	flow, ok := w.deletions[kind]
	if !ok {
		return nil, errors.NotFound("delete flow", nil)
	}
	return flow, nil
}

func (w *Workspace) Booking() *booking.Flow {
	return w.booking
}

// SelectedDoctor is the doctor picked in the doctors panel, used by the
// availability form when the request names none.
func (w *Workspace) SelectedDoctor() (model.DoctorDetail, bool) {
	return w.doctors.Selected()
}

// RefreshDoctor swaps in a refetched doctor after its calendar changed.
func (w *Workspace) RefreshDoctor(d model.DoctorDetail) {
	w.doctors.Replace(d)
}

// Close cancels every pending search.
func (w *Workspace) Close() {
	for _, c := range w.closers {
		c()
	}
}
