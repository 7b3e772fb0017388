package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/internal/booking"
	"github.com/careplus/frontdesk/internal/catalog"
	"github.com/careplus/frontdesk/internal/clinicapi/clinictest"
	"github.com/careplus/frontdesk/internal/deletion"
	"github.com/careplus/frontdesk/internal/forms"
	appointmentHandler "github.com/careplus/frontdesk/internal/handler/appointment"
	auditHandler "github.com/careplus/frontdesk/internal/handler/audit"
	authHandler "github.com/careplus/frontdesk/internal/handler/auth"
	bookingHandler "github.com/careplus/frontdesk/internal/handler/booking"
	catalogHandler "github.com/careplus/frontdesk/internal/handler/catalog"
	deletionHandler "github.com/careplus/frontdesk/internal/handler/deletion"
	"github.com/careplus/frontdesk/internal/handler/doctor"
	"github.com/careplus/frontdesk/internal/handler/health"
	"github.com/careplus/frontdesk/internal/handler/panel"
	"github.com/careplus/frontdesk/internal/handler/patient"
	promHandler "github.com/careplus/frontdesk/internal/handler/prometheus"
	"github.com/careplus/frontdesk/internal/handler/receptionist"
	"github.com/careplus/frontdesk/internal/middleware"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/internal/session"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/auth"
	"github.com/careplus/frontdesk/pkg/debounce"
	"github.com/careplus/frontdesk/pkg/metrics"
	"github.com/careplus/frontdesk/pkg/security"
	"github.com/careplus/frontdesk/pkg/validator"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type gateway struct {
	engine *gin.Engine
	srv    *clinictest.Server
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := clinictest.New(t)
	srv.AddReceptionist(model.Receptionist{Name: "Meera", Number: "7012345677"}, "secret1")
	api := srv.Client()

	hash, err := security.NewBcryptHasher(4).Hash("admin-pass")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, "test")
	auditSvc := audit.NewService(nil, nil)

	sessions := session.NewService(api, auth.NewJWTService("test-secret", "frontdesk", time.Hour), session.NewMemoryStore(time.Minute),
		session.Config{Admin: session.Admin{Identifier: "admin", PasswordHash: hash}}, audit.Nop{}, m, nil)

	clock := debounce.NewManualClock()
	workspaces := workspace.NewStore(workspace.Factory{
		API:      api,
		Tuning:   search.Tuning{AfterFunc: clock.AfterFunc, Metrics: m},
		Deletion: deletion.Deps{Metrics: m},
		Booking:  booking.Deps{Metrics: m},
	}, time.Hour, time.Hour, m, nil)
	t.Cleanup(workspaces.Close)

	cat, err := catalog.New([]model.Specialist{{ID: 1, Label: "General Physician"}, {ID: 2, Label: "Cardiologist"}}, []string{"10:00", "11:00"})
	require.NoError(t, err)
	v := validator.New()
	formSvc := forms.NewService(api, cat, v, nil, m, nil)

	r := NewRouter(sessions, Handlers{
		Health:       health.NewHandler(map[string]health.Check{"sessions": sessions.Ping}),
		Metrics:      promHandler.New(registry),
		Auth:         authHandler.NewHandler(sessions, workspaces),
		Catalog:      catalogHandler.NewHandler(cat),
		Panel:        panel.NewHandler(workspaces),
		Deletion:     deletionHandler.NewHandler(workspaces),
		Patient:      patient.NewHandler(formSvc),
		Booking:      bookingHandler.NewHandler(workspaces),
		Doctor:       doctor.NewHandler(formSvc, api, workspaces, nil),
		Receptionist: receptionist.NewHandler(formSvc),
		Appointment:  appointmentHandler.NewHandler(booking.NewAppointments(api, v, nil, m, nil)),
		Audit:        auditHandler.NewHandler(auditSvc),
	}, m, RouterConfig{CORSConfig: middleware.DefaultCORSConfig(nil)})
	r.Setup()

	return &gateway{engine: r.Engine(), srv: srv}
}

func (g *gateway) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (g *gateway) login(t *testing.T, role, identifier, password string) string {
	t.Helper()
	code, env := g.do(t, http.MethodPost, "/api/v1/auth/"+role+"/login", "", model.LoginRequest{Identifier: identifier, Password: password})
	require.Equal(t, http.StatusOK, code, env.Message)
	var tokens model.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func TestPublicEndpoints(t *testing.T) {
	g := newGateway(t)

	code, _ := g.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_")
}

func TestGuardRedirectsWithoutSession(t *testing.T) {
	g := newGateway(t)

	code, env := g.do(t, http.MethodGet, "/api/v1/desk/booking", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, session.MsgSignIn, env.Message)
	assert.JSONEq(t, `{"redirect":"/receptionist-login"}`, string(env.Data))

	code, env = g.do(t, http.MethodGet, "/api/v1/desk/audit", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.JSONEq(t, `{"redirect":"/admin-login"}`, string(env.Data))
}

func TestInvalidLoginReadsTheSame(t *testing.T) {
	g := newGateway(t)

	for _, body := range []interface{}{
		model.LoginRequest{Identifier: "7012345677", Password: "wrong"},
		model.LoginRequest{Identifier: "0000000000", Password: "secret1"},
		map[string]string{"identifier": "7012345677"},
	} {
		code, env := g.do(t, http.MethodPost, "/api/v1/auth/receptionist/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, session.MsgInvalidLogin, env.Message)
	}
}

func TestRolesSeeOnlyTheirPages(t *testing.T) {
	g := newGateway(t)
	desk := g.login(t, "receptionist", "7012345677", "secret1")
	admin := g.login(t, "admin", "admin", "admin-pass")

	code, _ := g.do(t, http.MethodGet, "/api/v1/desk/panels/patients", desk, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env := g.do(t, http.MethodGet, "/api/v1/desk/panels/doctors", desk, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.JSONEq(t, `{"redirect":"/receptionist-login"}`, string(env.Data))
	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/doctors", desk, model.DoctorRequest{})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = g.do(t, http.MethodGet, "/api/v1/desk/booking", admin, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = g.do(t, http.MethodGet, "/api/v1/desk/panels/receptionists", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodGet, "/api/v1/desk/panels/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = g.do(t, http.MethodGet, "/api/v1/catalog/specialists", desk, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodGet, "/api/v1/catalog/time-options", admin, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	g := newGateway(t)
	desk := g.login(t, "receptionist", "7012345677", "secret1")

	code, env := g.do(t, http.MethodGet, "/api/v1/auth/session", desk, nil)
	require.Equal(t, http.StatusOK, code)
	var sess model.Session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, "Meera", sess.Name)

	code, _ = g.do(t, http.MethodPost, "/api/v1/auth/logout", desk, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodGet, "/api/v1/desk/panels/patients", desk, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPatientFormValidationSendsNothing(t *testing.T) {
	g := newGateway(t)
	desk := g.login(t, "receptionist", "7012345677", "secret1")

	code, env := g.do(t, http.MethodPost, "/api/v1/desk/patients", desk, model.PatientRequest{Name: "Asha", Number: "12345", Age: 30})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.NotEmpty(t, env.Message)
	assert.Zero(t, g.srv.Count(http.MethodPost, "/api/patients"))

	code, env = g.do(t, http.MethodPost, "/api/v1/desk/patients", desk, model.PatientRequest{Name: "Asha", Number: "9876543210", Age: 30})
	require.Equal(t, http.StatusOK, code, env.Message)
	var modal model.Modal
	require.NoError(t, json.Unmarshal(env.Data, &modal))
	assert.Equal(t, model.ModalSuccess, modal.Type)
	assert.Contains(t, modal.Message, "Patient added successfully")
}

func TestBookingOverHTTP(t *testing.T) {
	g := newGateway(t)
	p := g.srv.AddPatient(model.Patient{Name: "Asha Rao", Number: "9876543210", Age: 30, Date: "2024-06-01", Time: "10:00"})
	d := g.srv.AddDoctor(model.DoctorDetail{
		Doctor:         model.Doctor{Name: "Dr. Mehta", Specialist: "Cardiologist", SpecialistID: 2},
		AvailableDates: []model.AvailableDate{{Date: "2024-06-01", TimeSlots: []model.TimeSlot{{Time: "10:00", Available: true}}}},
	})
	desk := g.login(t, "receptionist", "7012345677", "secret1")
	pid, did := search.PatientKey(p), search.DoctorKey(d)

	code, _ := g.do(t, http.MethodPost, "/api/v1/desk/booking/patient/input", desk, map[string]string{"mode": "id", "text": pid})
	require.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/patient/submit", desk, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/patient/select/"+pid, desk, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/doctor/input", desk, map[string]string{"mode": "id", "text": did})
	require.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/doctor/submit", desk, nil)
	require.Equal(t, http.StatusOK, code)
	code, env := g.do(t, http.MethodPost, "/api/v1/desk/booking/doctor/select/"+did, desk, nil)
	require.Equal(t, http.StatusOK, code)

	var snap booking.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.True(t, snap.Matched)
	assert.Equal(t, booking.MsgMatch, snap.Banner)
	assert.Equal(t, "2024-06-01", snap.Date)
	assert.Equal(t, "10:00", snap.Time)

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/submit", desk, nil)
	assert.Equal(t, http.StatusConflict, code, "submit needs confirmation")

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/confirm", desk, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = g.do(t, http.MethodPost, "/api/v1/desk/booking/submit", desk, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Contains(t, env.Message, "Appointment booked successfully")
	assert.Len(t, g.srv.Appointments(), 1)

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/booking/sideways/submit", desk, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminDeletesReceptionist(t *testing.T) {
	g := newGateway(t)
	admin := g.login(t, "admin", "admin", "admin-pass")
	target := g.srv.Receptionists()[0]
	key := search.ReceptionistKey(target)

	code, _ := g.do(t, http.MethodPost, "/api/v1/desk/deletions/receptionists/input", admin, map[string]string{"mode": "name", "text": ""})
	require.Equal(t, http.StatusOK, code)
	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/deletions/receptionists/submit", admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/deletions/receptionists/cancel", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, g.srv.Count(http.MethodDelete, "/api/receptionists"))

	code, _ = g.do(t, http.MethodPost, "/api/v1/desk/deletions/receptionists/select/"+key, admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, env := g.do(t, http.MethodPost, "/api/v1/desk/deletions/receptionists/confirm", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	var modal model.Modal
	require.NoError(t, json.Unmarshal(env.Data, &modal))
	assert.Equal(t, "Receptionist deleted successfully.", modal.Message)
	assert.Empty(t, g.srv.Receptionists())

	code, _ = g.do(t, http.MethodGet, "/api/v1/desk/deletions/patients", admin, nil)
	assert.Equal(t, http.StatusForbidden, code, "patients are deleted at the reception desk")
}

func TestAuditWithoutStoreIsUnavailable(t *testing.T) {
	g := newGateway(t)
	admin := g.login(t, "admin", "admin", "admin-pass")

	code, _ := g.do(t, http.MethodGet, "/api/v1/desk/audit?limit=10", admin, nil)
	assert.Equal(t, http.StatusBadGateway, code)
}
