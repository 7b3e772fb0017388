package model

import "strings"

// Receptionist never carries a password on the way out.
type Receptionist struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ReceptionistRequest is the create/update form. Field order is validation order.
type ReceptionistRequest struct {
	Number          string `json:"number" validate:"phone10"`
	Name            string `json:"name" validate:"notblank" msg:"Name is required."`
	Password        string `json:"password" validate:"min=6" msg:"Password must be at least 6 characters."`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password" msg:"Passwords do not match."`
}

// ReceptionistPayload is what the clinic API stores.
type ReceptionistPayload struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	Password string `json:"password"`
}

func (r *ReceptionistRequest) Payload(id int64) ReceptionistPayload {
	return ReceptionistPayload{
		ID:       id,
		Name:     strings.TrimSpace(r.Name),
		Number:   r.Number,
		Password: r.Password,
	}
}
