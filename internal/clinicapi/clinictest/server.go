// Package clinictest runs an in-memory clinic API for tests.
package clinictest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
)

// Request is one call the server received.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type failure struct {
	status int
	body   string
}

type receptionist struct {
	model.Receptionist
	Password string
}

type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	nextID        int64
	patients      map[int64]model.Patient
	doctors       map[int64]model.DoctorDetail
	appointments  map[int64]model.Appointment
	receptionists map[int64]receptionist
	requests      []Request
	failures      map[string]failure
	hook          func(r *http.Request)
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		nextID:        100,
		patients:      map[int64]model.Patient{},
		doctors:       map[int64]model.DoctorDetail{},
		appointments:  map[int64]model.Appointment{},
		receptionists: map[int64]receptionist{},
		failures:      map[string]failure{},
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

// Client returns a client for this server with the breaker and limiter relaxed.
func (s *Server) Client(opts ...clinicapi.Option) *clinicapi.HTTPClient {
	return clinicapi.NewClient(clinicapi.Config{
		BaseURL:         s.srv.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 1000,
	}, opts...)
}

// Close stops the server; later calls fail to connect.
func (s *Server) Close() {
	s.srv.Close()
}

// OnRequest runs hook before every request is served. Hooks may block.
func (s *Server) OnRequest(hook func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Fail answers every method+path call with status and body until Recover.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns the received calls matching method and path prefix.
// An empty method matches any method.
func (s *Server) Requests(method, pathPrefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, pathPrefix) {
			out = append(out, r)
		}
	}
	return out
}

// Count is len(Requests(method, pathPrefix)).
func (s *Server) Count(method, pathPrefix string) int {
	return len(s.Requests(method, pathPrefix))
}

func (s *Server) AddPatient(p model.Patient) model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.newID()
	}
	s.patients[p.ID] = p
	return p
}

func (s *Server) AddDoctor(d model.DoctorDetail) model.DoctorDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Doctor.DoctorID == 0 {
		d.Doctor.DoctorID = s.newID()
	}
	s.doctors[d.Doctor.DoctorID] = d
	return d
}

func (s *Server) AddReceptionist(r model.Receptionist, password string) model.Receptionist {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.newID()
	}
	s.receptionists[r.ID] = receptionist{Receptionist: r, Password: password}
	return r
}

func (s *Server) AddAppointment(a model.Appointment) model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.newID()
	}
	s.appointments[a.ID] = a
	return a
}

func (s *Server) Patient(id int64) (model.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	return p, ok
}

func (s *Server) Doctor(id int64) (model.DoctorDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	return d, ok
}

func (s *Server) Appointments() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedAppointments(s.appointments, nil)
}

func (s *Server) Receptionists() []model.Receptionist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedReceptionists(s.receptionists, "")
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.Use(s.record)

	api := r.Group("/api")

	api.GET("/patients", s.listPatients)
	api.GET("/patients/search", s.listPatients)
	api.GET("/patients/:id", s.getPatient)
	api.POST("/patients", s.createPatient)
	api.PUT("/patients/:id", s.updatePatient)
	api.DELETE("/patients/:id", s.deletePatient)

	api.GET("/doctors", s.listDoctors)
	api.GET("/doctors/search", s.listDoctors)
	api.GET("/doctors/:id", s.getDoctor)
	api.POST("/doctors", s.createDoctor)
	api.PUT("/doctors/:id", s.updateDoctor)
	api.DELETE("/doctors/:id", s.deleteDoctor)
	api.POST("/dates", s.addDate)

	api.GET("/appointments", s.listAppointments)
	api.GET("/appointments/:id", s.getAppointment)
	api.GET("/appointments/doctor/search", s.appointmentsByDoctorName)
	api.GET("/appointments/doctor/:id", s.appointmentsByDoctor)
	api.POST("/appointments", s.createAppointment)
	api.PUT("/appointments/:id", s.updateAppointment)
	api.DELETE("/appointments/:id", s.deleteAppointment)

	api.GET("/receptionists", s.listReceptionists)
	api.GET("/receptionists/search", s.listReceptionists)
	api.GET("/receptionists/:id", s.getReceptionist)
	api.POST("/receptionists", s.createReceptionist)
	api.PUT("/receptionists/:id", s.updateReceptionist)
	api.DELETE("/receptionists/:id", s.deleteReceptionist)
	api.POST("/receptionists/login", s.login)

	return r
}

func (s *Server) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(body)))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Body:   string(body),
	})
	hook := s.hook
	f, failing := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()

	if hook != nil {
		hook(c.Request)
	}
	if failing {
		c.String(f.status, f.body)
		c.Abort()
		return
	}
	c.Next()
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func nameMatches(name, query string) bool {
	return query == "" || strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

func (s *Server) listPatients(c *gin.Context) {
	q := c.Query("name")
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Patient{}
	for _, p := range s.patients {
		if nameMatches(p.Name, q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) getPatient(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createPatient(c *gin.Context) {
	var p model.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.String(http.StatusBadRequest, "Invalid patient data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.newID()
	s.patients[p.ID] = p
	c.String(http.StatusCreated, "Patient added successfully with ID: %d", p.ID)
}

func (s *Server) updatePatient(c *gin.Context) {
	id, _ := pathID(c)
	var p model.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.String(http.StatusBadRequest, "Invalid patient data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		c.String(http.StatusNotFound, "Patient not found with ID: %d", id)
		return
	}
	p.ID = id
	s.patients[id] = p
	c.String(http.StatusOK, "Patient updated successfully")
}

func (s *Server) deletePatient(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		c.String(http.StatusNotFound, "Patient not found with ID: %d", id)
		return
	}
	delete(s.patients, id)
	c.String(http.StatusOK, "Patient deleted successfully")
}

func (s *Server) listDoctors(c *gin.Context) {
	q := c.Query("name")
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.DoctorDetail{}
	for _, d := range s.doctors {
		if nameMatches(d.Doctor.Name, q) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Doctor.DoctorID < out[j].Doctor.DoctorID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) getDoctor(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[id]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) createDoctor(c *gin.Context) {
	var d model.Doctor
	if err := c.ShouldBindJSON(&d); err != nil {
		c.String(http.StatusBadRequest, "Invalid doctor data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d.DoctorID = s.newID()
	s.doctors[d.DoctorID] = model.DoctorDetail{Doctor: d}
	c.String(http.StatusCreated, "Doctor added successfully with ID: %d", d.DoctorID)
}

func (s *Server) updateDoctor(c *gin.Context) {
	id, _ := pathID(c)
	var d model.Doctor
	if err := c.ShouldBindJSON(&d); err != nil {
		c.String(http.StatusBadRequest, "Invalid doctor data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.doctors[id]
	if !ok {
		c.String(http.StatusNotFound, "Doctor not found with ID: %d", id)
		return
	}
	d.DoctorID = id
	existing.Doctor = d
	s.doctors[id] = existing
	c.String(http.StatusOK, "Doctor updated successfully")
}

func (s *Server) deleteDoctor(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[id]; !ok {
		c.String(http.StatusNotFound, "Doctor not found with ID: %d", id)
		return
	}
	delete(s.doctors, id)
	c.String(http.StatusOK, "Doctor deleted successfully")
}

func (s *Server) addDate(c *gin.Context) {
	var p model.AvailabilityPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.String(http.StatusBadRequest, "Invalid date data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[p.DoctorID]
	if !ok {
		c.String(http.StatusNotFound, "Doctor not found with ID: %d", p.DoctorID)
		return
	}
	entry := model.AvailableDate{DateID: s.newID(), Date: p.Date, TimeSlots: p.TimeSlots}
	replaced := false
	for i, existing := range d.AvailableDates {
		if existing.Date == p.Date {
			entry.DateID = existing.DateID
			d.AvailableDates[i] = entry
			replaced = true
		}
	}
	if !replaced {
		d.AvailableDates = append(d.AvailableDates, entry)
	}
	s.doctors[p.DoctorID] = d
	c.String(http.StatusOK, "Availability saved for %s", p.Date)
}

func sortedAppointments(all map[int64]model.Appointment, keep func(model.Appointment) bool) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range all {
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listAppointments(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, sortedAppointments(s.appointments, nil))
}

func (s *Server) getAppointment(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) appointmentsByDoctor(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, sortedAppointments(s.appointments, func(a model.Appointment) bool {
		return a.Doctor.Doctor.DoctorID == id
	}))
}

func (s *Server) appointmentsByDoctorName(c *gin.Context) {
	q := c.Query("name")
	s.mu.Lock()
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, sortedAppointments(s.appointments, func(a model.Appointment) bool {
		return nameMatches(a.Doctor.Doctor.Name, q)
	}))
}

// setSlot flips the availability of one slot of a doctor's calendar.
func (s *Server) setSlot(doctorID int64, date, t string, available bool) {
	d := s.doctors[doctorID]
	for i := range d.AvailableDates {
		if d.AvailableDates[i].Date != date {
			continue
		}
		for j := range d.AvailableDates[i].TimeSlots {
			if d.AvailableDates[i].TimeSlots[j].Time == t {
				d.AvailableDates[i].TimeSlots[j].Available = available
			}
		}
	}
	s.doctors[doctorID] = d
}

func (s *Server) createAppointment(c *gin.Context) {
	var req model.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid appointment data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[req.PatientID]
	if !ok {
		c.String(http.StatusNotFound, "Patient not found")
		return
	}
	d, ok := s.doctors[req.DoctorID]
	if !ok {
		c.String(http.StatusNotFound, "Doctor not found")
		return
	}
	if p.Allocated {
		c.String(http.StatusConflict, "Patient already has an appointment")
		return
	}

	p.Allocated = true
	s.patients[p.ID] = p
	s.setSlot(d.Doctor.DoctorID, req.Date, req.Time, false)

	a := model.Appointment{ID: s.newID(), Patient: p, Doctor: s.doctors[d.Doctor.DoctorID], Date: req.Date, Time: req.Time}
	s.appointments[a.ID] = a
	c.String(http.StatusCreated, "Appointment booked successfully with ID: %d", a.ID)
}

func (s *Server) updateAppointment(c *gin.Context) {
	id, _ := pathID(c)
	var req model.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid appointment data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		c.String(http.StatusNotFound, "Appointment not found with ID: %d", id)
		return
	}
	s.setSlot(a.Doctor.Doctor.DoctorID, a.Date, a.Time, true)
	s.setSlot(a.Doctor.Doctor.DoctorID, req.Date, req.Time, false)
	a.Date, a.Time = req.Date, req.Time
	a.Doctor = s.doctors[a.Doctor.Doctor.DoctorID]
	s.appointments[id] = a
	c.String(http.StatusOK, "Appointment updated successfully")
}

func (s *Server) deleteAppointment(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		c.String(http.StatusNotFound, "Appointment not found with ID: %d", id)
		return
	}
	s.setSlot(a.Doctor.Doctor.DoctorID, a.Date, a.Time, true)
	if p, ok := s.patients[a.Patient.ID]; ok {
		p.Allocated = false
		s.patients[p.ID] = p
	}
	delete(s.appointments, id)
	c.String(http.StatusOK, "Appointment deleted successfully")
}

func sortedReceptionists(all map[int64]receptionist, q string) []model.Receptionist {
	out := []model.Receptionist{}
	for _, r := range all {
		if nameMatches(r.Name, q) {
			out = append(out, r.Receptionist)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listReceptionists(c *gin.Context) {
	q := c.Query("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, sortedReceptionists(s.receptionists, q))
}

func (s *Server) getReceptionist(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.receptionists[id]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, r.Receptionist)
}

type receptionistBody struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	Password string `json:"password"`
}

func (s *Server) createReceptionist(c *gin.Context) {
	var body receptionistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, "Invalid receptionist data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.receptionists {
		if r.Number == body.Number {
			c.String(http.StatusConflict, "Receptionist with this number already exists.")
			return
		}
	}
	id := s.newID()
	s.receptionists[id] = receptionist{
		Receptionist: model.Receptionist{ID: id, Name: body.Name, Number: body.Number},
		Password:     body.Password,
	}
	c.String(http.StatusCreated, "Receptionist added successfully with ID: %d", id)
}

func (s *Server) updateReceptionist(c *gin.Context) {
	id, _ := pathID(c)
	var body receptionistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, "Invalid receptionist data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receptionists[id]; !ok {
		c.String(http.StatusNotFound, "Receptionist not found with ID: %d", id)
		return
	}
	s.receptionists[id] = receptionist{
		Receptionist: model.Receptionist{ID: id, Name: body.Name, Number: body.Number},
		Password:     body.Password,
	}
	c.String(http.StatusOK, "Receptionist updated successfully.")
}

func (s *Server) deleteReceptionist(c *gin.Context) {
	id, _ := pathID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receptionists[id]; !ok {
		c.String(http.StatusNotFound, "Receptionist not found with ID: %d", id)
		return
	}
	delete(s.receptionists, id)
	c.String(http.StatusOK, "Receptionist deleted successfully.")
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.receptionists {
		if (fmt.Sprint(r.ID) == body.Identifier || r.Number == body.Identifier) && r.Password == body.Password {
			c.JSON(http.StatusOK, model.LoginResponse{Message: "Login successful", Name: r.Name})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
}
