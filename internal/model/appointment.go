package model

type Appointment struct {
	ID      int64        `json:"id"`
	Patient Patient      `json:"patient"`
	Doctor  DoctorDetail `json:"doctor"`
	Date    string       `json:"date"`
	Time    string       `json:"time"`
}

// AppointmentRequest is the body of appointment create and update calls.
type AppointmentRequest struct {
	PatientID int64  `json:"patientId"`
	DoctorID  int64  `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// RescheduleRequest moves an appointment to another slot of the same doctor.
type RescheduleRequest struct {
	Date string `json:"date" validate:"notblank" msg:"Select a date and time."`
	Time string `json:"time" validate:"notblank" msg:"Select a date and time."`
	// Force books a slot that is not listed as available.
	Force bool `json:"force"`
}

// BookingConfirmation is shown once an appointment is booked.
type BookingConfirmation struct {
	Message     string `json:"message"`
	PatientID   int64  `json:"patientId"`
	PatientName string `json:"patientName"`
	DoctorID    int64  `json:"doctorId"`
	DoctorName  string `json:"doctorName"`
	Specialist  string `json:"specialist"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}
