package clinicapi

import (
	"context"
	"net/http"

	"github.com/careplus/frontdesk/internal/model"
)

const appointmentsPath = "/api/appointments"

func (c *HTTPClient) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	if err := c.getJSON(ctx, call{op: "list_appointments", path: appointmentsPath, resource: "appointments"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	out := &model.Appointment{}
	if err := c.getJSON(ctx, call{op: "get_appointment", path: lookupPath(appointmentsPath, id), resource: "appointment"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	var out []model.Appointment
	cl := call{op: "appointments_by_doctor", path: lookupPath(appointmentsPath+"/doctor", doctorID), resource: "appointments"}
	if err := c.getJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) AppointmentsByDoctorName(ctx context.Context, name string) ([]model.Appointment, error) {
	var out []model.Appointment
	cl := call{op: "appointments_by_doctor_name", path: appointmentsPath + "/doctor/search", query: nameQuery(name), resource: "appointments"}
	if err := c.getJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateAppointment(ctx context.Context, req model.AppointmentRequest) (string, error) {
	return c.send(ctx, call{op: "create_appointment", method: http.MethodPost, path: appointmentsPath, body: req})
}

func (c *HTTPClient) UpdateAppointment(ctx context.Context, id int64, req model.AppointmentRequest) (string, error) {
	return c.send(ctx, call{op: "update_appointment", method: http.MethodPut, path: idPath(appointmentsPath, id), body: req})
}

func (c *HTTPClient) DeleteAppointment(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, call{op: "delete_appointment", method: http.MethodDelete, path: idPath(appointmentsPath, id)})
}
