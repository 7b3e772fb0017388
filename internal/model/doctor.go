package model

import "strings"

type Doctor struct {
	DoctorID     int64  `json:"doctorId"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Number       string `json:"number"`
	Specialist   string `json:"specialist"`
	SpecialistID int    `json:"specialistId"`
}

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type AvailableDate struct {
	DateID    int64      `json:"dateId,omitempty"`
	Date      string     `json:"date"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

// SlotAvailable reports whether t is listed under this date and available.
func (a AvailableDate) SlotAvailable(t string) bool {
	for _, s := range a.TimeSlots {
		if s.Time == t && s.Available {
			return true
		}
	}
	return false
}

// AvailableTimes lists the bookable times in calendar order.
func (a AvailableDate) AvailableTimes() []string {
	times := make([]string, 0, len(a.TimeSlots))
	for _, s := range a.TimeSlots {
		if s.Available {
			times = append(times, s.Time)
		}
	}
	return times
}

// DoctorDetail is the one shape every doctor lookup answers with.
type DoctorDetail struct {
	Doctor         Doctor          `json:"doctor"`
	AvailableDates []AvailableDate `json:"availableDates"`
}

// HasAvailableSlot reports whether any date carries an available slot.
func (d DoctorDetail) HasAvailableSlot() bool {
	for _, date := range d.AvailableDates {
		if len(date.AvailableTimes()) > 0 {
			return true
		}
	}
	return false
}

// FindDate returns the calendar entry for date.
func (d DoctorDetail) FindDate(date string) (AvailableDate, bool) {
	for _, a := range d.AvailableDates {
		if a.Date == date {
			return a, true
		}
	}
	return AvailableDate{}, false
}

// DoctorRequest is the create/update form. Field order is validation order.
type DoctorRequest struct {
	Number       string `json:"number" validate:"phone10"`
	Age          int    `json:"age" validate:"gt=0,lt=150" msg:"Age must be greater than 0 and less than 150."`
	Name         string `json:"name" validate:"notblank" msg:"Name is required."`
	Gender       string `json:"gender"`
	SpecialistID int    `json:"specialistId"`
}

// Doctor builds the payload sent to the clinic API; the label comes from the
// specialist catalog.
func (r *DoctorRequest) Doctor(id int64, specialist Specialist) Doctor {
	return Doctor{
		DoctorID:     id,
		Name:         strings.TrimSpace(r.Name),
		Age:          r.Age,
		Gender:       r.Gender,
		Number:       r.Number,
		Specialist:   specialist.Label,
		SpecialistID: specialist.ID,
	}
}

// AvailabilityRequest adds or replaces one date of a doctor's calendar.
type AvailabilityRequest struct {
	DoctorID  int64      `json:"doctorId" validate:"gt=0" msg:"Select a doctor and a valid date."`
	Date      string     `json:"date" validate:"datetime=2006-01-02" msg:"Select a doctor and a valid date."`
	TimeSlots []TimeSlot `json:"timeSlots" validate:"dive"`
}

// AvailabilityPayload is the body of POST /api/dates.
type AvailabilityPayload struct {
	DoctorID  int64      `json:"doctorId"`
	Date      string     `json:"date"`
	Available bool       `json:"available"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}
