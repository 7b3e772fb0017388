package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullAddress(t *testing.T) {
	r := &PatientRequest{AddressLine: " 12 MG Road", District: "Pune", State: "MH "}
	assert.Equal(t, "12 MG Road, Pune, MH", r.FullAddress())

	r = &PatientRequest{Address: "12 MG Road, Pune, MH"}
	assert.Equal(t, "12 MG Road, Pune, MH", r.FullAddress())
}

func TestDoctorCalendar(t *testing.T) {
	d := DoctorDetail{
		Doctor: Doctor{DoctorID: 3},
		AvailableDates: []AvailableDate{
			{Date: "2024-06-01", TimeSlots: []TimeSlot{{Time: "09:00"}, {Time: "10:00", Available: true}}},
			{Date: "2024-06-02", TimeSlots: []TimeSlot{{Time: "11:00"}}},
		},
	}

	assert.True(t, d.HasAvailableSlot())

	date, ok := d.FindDate("2024-06-01")
	assert.True(t, ok)
	assert.True(t, date.SlotAvailable("10:00"))
	assert.False(t, date.SlotAvailable("09:00"))
	assert.Equal(t, []string{"10:00"}, date.AvailableTimes())

	_, ok = d.FindDate("2024-06-03")
	assert.False(t, ok)

	booked := DoctorDetail{AvailableDates: []AvailableDate{{Date: "2024-06-02", TimeSlots: []TimeSlot{{Time: "11:00"}}}}}
	assert.False(t, booked.HasAvailableSlot())
	assert.False(t, DoctorDetail{}.HasAvailableSlot())
}

func TestRoleLoginPath(t *testing.T) {
	assert.Equal(t, "/admin-login", RoleAdmin.LoginPath())
	assert.Equal(t, "/receptionist-login", RoleReceptionist.LoginPath())
	assert.False(t, Role("nurse").Valid())
}
