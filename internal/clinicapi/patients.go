package clinicapi

import (
	"context"
	"net/http"

	"github.com/careplus/frontdesk/internal/model"
)

const patientsPath = "/api/patients"

func (c *HTTPClient) ListPatients(ctx context.Context) ([]model.Patient, error) {
	var out []model.Patient
	if err := c.getJSON(ctx, call{op: "list_patients", path: patientsPath, resource: "patients"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	out := &model.Patient{}
	if err := c.getJSON(ctx, call{op: "get_patient", path: lookupPath(patientsPath, id), resource: "patient"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SearchPatients(ctx context.Context, name string) ([]model.Patient, error) {
	var out []model.Patient
	cl := call{op: "search_patients", path: patientsPath + "/search", query: nameQuery(name), resource: "patients"}
	if err := c.getJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreatePatient(ctx context.Context, p model.Patient) (string, error) {
	return c.send(ctx, call{op: "create_patient", method: http.MethodPost, path: patientsPath, body: p})
}

func (c *HTTPClient) UpdatePatient(ctx context.Context, id int64, p model.Patient) (string, error) {
	return c.send(ctx, call{op: "update_patient", method: http.MethodPut, path: idPath(patientsPath, id), body: p})
}

func (c *HTTPClient) DeletePatient(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, call{op: "delete_patient", method: http.MethodDelete, path: idPath(patientsPath, id)})
}
