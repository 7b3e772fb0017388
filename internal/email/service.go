// Package email sends booking confirmations to the clinic inbox.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/logger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// To is the clinic inbox that receives confirmations.
	To string
}

// Sender delivers a built message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	cfg    Config
	sender Sender
	log    *logger.Logger
}

var bookedBody = template.Must(template.New("booked").Parse(`Appointment booked

Patient: {{.PatientName}} (ID {{.PatientID}})
Doctor:  {{.DoctorName}}{{if .Specialist}}, {{.Specialist}}{{end}} (ID {{.DoctorID}})
Slot:    {{.Date}} {{.Time}}

{{.Message}}
`))

func NewService(cfg Config, log *logger.Logger) *Service {
	return NewServiceWithSender(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), log)
}

func NewServiceWithSender(cfg Config, sender Sender, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cfg: cfg, sender: sender, log: log.Component("email")}
}

// AppointmentBooked mails a confirmation to the clinic inbox.
func (s *Service) AppointmentBooked(ctx context.Context, c model.BookingConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := bookedBody.Execute(&body, c); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", fmt.Sprintf("Appointment: %s with %s on %s %s", c.PatientName, c.DoctorName, c.Date, c.Time))
	m.SetBody("text/plain", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	s.log.Info("Booking confirmation sent", "patient_id", c.PatientID, "doctor_id", c.DoctorID)
	return nil
}

// Noop discards confirmations when no SMTP server is configured.
type Noop struct{}

func (Noop) AppointmentBooked(context.Context, model.BookingConfirmation) error {
	return nil
}
