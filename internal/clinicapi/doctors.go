package clinicapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/errors"
)

const (
	doctorsPath = "/api/doctors"
	datesPath   = "/api/dates"
)

func (c *HTTPClient) ListDoctors(ctx context.Context) ([]model.DoctorDetail, error) {
	var out []model.DoctorDetail
	if err := c.getJSON(ctx, call{op: "list_doctors", path: doctorsPath, resource: "doctors"}, &out); err != nil {
		return nil, err
	}
	return out, c.checkDoctors("list_doctors", out)
}

// GetDoctor returns the doctor with the availability calendar.
func (c *HTTPClient) GetDoctor(ctx context.Context, id string) (*model.DoctorDetail, error) {
	out := &model.DoctorDetail{}
	if err := c.getJSON(ctx, call{op: "get_doctor", path: lookupPath(doctorsPath, id), resource: "doctor"}, out); err != nil {
		return nil, err
	}
	if err := c.checkDoctors("get_doctor", []model.DoctorDetail{*out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SearchDoctors(ctx context.Context, name string) ([]model.DoctorDetail, error) {
	var out []model.DoctorDetail
	cl := call{op: "search_doctors", path: doctorsPath + "/search", query: nameQuery(name), resource: "doctors"}
	if err := c.getJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, c.checkDoctors("search_doctors", out)
}

func (c *HTTPClient) CreateDoctor(ctx context.Context, d model.Doctor) (string, error) {
	return c.send(ctx, call{op: "create_doctor", method: http.MethodPost, path: doctorsPath, body: d})
}

func (c *HTTPClient) UpdateDoctor(ctx context.Context, id int64, d model.Doctor) (string, error) {
	return c.send(ctx, call{op: "update_doctor", method: http.MethodPut, path: idPath(doctorsPath, id), body: d})
}

func (c *HTTPClient) DeleteDoctor(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, call{op: "delete_doctor", method: http.MethodDelete, path: idPath(doctorsPath, id)})
}

// AddAvailability adds or replaces one date of a doctor's calendar.
func (c *HTTPClient) AddAvailability(ctx context.Context, p model.AvailabilityPayload) (string, error) {
	return c.send(ctx, call{op: "add_availability", method: http.MethodPost, path: datesPath, body: p})
}

// checkDoctors enforces the canonical {doctor, availableDates} shape. A body
// that decodes but lacks doctor.doctorId is some other shape.
func (c *HTTPClient) checkDoctors(op string, details []model.DoctorDetail) error {
	for i, d := range details {
		if d.Doctor.DoctorID == 0 {
			c.log.Warn("Clinic API doctor response missing doctor.doctorId", "operation", op, "index", i)
			return errors.Schema(fmt.Sprintf("unexpected %s response", op), fmt.Errorf("entry %d has no doctor.doctorId", i))
		}
	}
	return nil
}
