package model

import "strings"

// Patient is a clinic patient as the clinic API returns it. Date and Time are
// the patient's preferred appointment slot.
type Patient struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Allocated bool   `json:"allocated"`
}

// PatientRequest is the create/update form. Field order is validation order.
type PatientRequest struct {
	Number      string `json:"number" validate:"phone10"`
	Age         int    `json:"age" validate:"gt=0,lt=150" msg:"Age must be greater than 0 and less than 150."`
	Name        string `json:"name" validate:"notblank" msg:"Name is required."`
	Gender      string `json:"gender"`
	AddressLine string `json:"addressLine"`
	District    string `json:"district"`
	State       string `json:"state"`
	// Address is used as-is when no address parts are given.
	Address   string `json:"address"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Allocated bool   `json:"allocated"`
}

// FullAddress joins the address parts as "line, district, state".
func (r *PatientRequest) FullAddress() string {
	if r.AddressLine == "" && r.District == "" && r.State == "" {
		return strings.TrimSpace(r.Address)
	}
	return strings.Join([]string{
		strings.TrimSpace(r.AddressLine),
		strings.TrimSpace(r.District),
		strings.TrimSpace(r.State),
	}, ", ")
}

// Patient builds the payload sent to the clinic API.
func (r *PatientRequest) Patient(id int64) Patient {
	return Patient{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		Number:    r.Number,
		Age:       r.Age,
		Gender:    r.Gender,
		Address:   r.FullAddress(),
		Date:      r.Date,
		Time:      r.Time,
		Allocated: r.Allocated,
	}
}
