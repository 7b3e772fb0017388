package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/errors"
)

const receptionistsPath = "/api/receptionists"

func (c *HTTPClient) ListReceptionists(ctx context.Context) ([]model.Receptionist, error) {
	var out []model.Receptionist
	if err := c.getJSON(ctx, call{op: "list_receptionists", path: receptionistsPath, resource: "receptionists"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetReceptionist(ctx context.Context, id string) (*model.Receptionist, error) {
	out := &model.Receptionist{}
	if err := c.getJSON(ctx, call{op: "get_receptionist", path: lookupPath(receptionistsPath, id), resource: "receptionist"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SearchReceptionists(ctx context.Context, name string) ([]model.Receptionist, error) {
	var out []model.Receptionist
	cl := call{op: "search_receptionists", path: receptionistsPath + "/search", query: nameQuery(name), resource: "receptionists"}
	if err := c.getJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateReceptionist(ctx context.Context, p model.ReceptionistPayload) (string, error) {
	return c.send(ctx, call{op: "create_receptionist", method: http.MethodPost, path: receptionistsPath, body: p})
}

func (c *HTTPClient) UpdateReceptionist(ctx context.Context, id int64, p model.ReceptionistPayload) (string, error) {
	return c.send(ctx, call{op: "update_receptionist", method: http.MethodPut, path: idPath(receptionistsPath, id), body: p})
}

func (c *HTTPClient) DeleteReceptionist(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, call{op: "delete_receptionist", method: http.MethodDelete, path: idPath(receptionistsPath, id)})
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginReceptionist checks a receptionist's credentials. The identifier is
// an id or a phone number.
func (c *HTTPClient) LoginReceptionist(ctx context.Context, identifier, password string) (*model.LoginResponse, error) {
	data, err := c.do(ctx, call{
		op:     "login_receptionist",
		method: http.MethodPost,
		path:   receptionistsPath + "/login",
		body:   loginPayload{Identifier: identifier, Password: password},
	})
	if err != nil {
		return nil, err
	}

	out := &model.LoginResponse{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, errors.Schema("unexpected login_receptionist response", err)
	}
	return out, nil
}
