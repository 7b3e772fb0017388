package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/careplus/frontdesk/internal/handler/appointment"
	"github.com/careplus/frontdesk/internal/handler/audit"
	"github.com/careplus/frontdesk/internal/handler/auth"
	"github.com/careplus/frontdesk/internal/handler/booking"
	"github.com/careplus/frontdesk/internal/handler/catalog"
	"github.com/careplus/frontdesk/internal/handler/deletion"
	"github.com/careplus/frontdesk/internal/handler/doctor"
	"github.com/careplus/frontdesk/internal/handler/health"
	"github.com/careplus/frontdesk/internal/handler/panel"
	"github.com/careplus/frontdesk/internal/handler/patient"
	"github.com/careplus/frontdesk/internal/handler/prometheus"
	"github.com/careplus/frontdesk/internal/handler/receptionist"
	"github.com/careplus/frontdesk/internal/middleware"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/session"
	"github.com/careplus/frontdesk/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers is every route group of the gateway.
type Handlers struct {
	Health       *health.Handler
	Metrics      *prometheus.Handler
	Auth         *auth.Handler
	Catalog      *catalog.Handler
	Panel        *panel.Handler
	Deletion     *deletion.Handler
	Patient      *patient.Handler
	Booking      *booking.Handler
	Doctor       *doctor.Handler
	Receptionist *receptionist.Handler
	Appointment  *appointment.Handler
	Audit        *audit.Handler
}

type RouterConfig struct {
	Mode        string
	RateLimit   rate.Limit
	RateBurst   int
	Timeout     time.Duration
	MaxBody     int64
	CORSConfig  middleware.CORSConfig
	MetricsPath string
}

type Router struct {
	engine   *gin.Engine
	sessions *session.Service
	h        Handlers
	config   RouterConfig
}

func NewRouter(sessions *session.Service, h Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	r := &Router{
		engine:   engine,
		sessions: sessions,
		h:        h,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBody > 0 {
		sizeLimit.MaxBodySize = config.MaxBody
	}
	engine.Use(middleware.SizeLimit(sizeLimit))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	metricsPath := r.config.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.engine.GET(metricsPath, r.h.Metrics.Handler())

	api := r.engine.Group("/api/v1")
	r.h.Health.RegisterRoutes(api)
	r.h.Auth.RegisterRoutes(api)

	// Any signed-in user.
	signedIn := api.Group("", r.sessions.Guard())
	r.h.Auth.RegisterSessionRoutes(signedIn)
	r.h.Catalog.RegisterRoutes(signedIn)

	// Panels and deletes check the owning role per kind.
	desk := api.Group("/desk", r.sessions.Guard())
	r.h.Panel.RegisterRoutes(desk)
	r.h.Deletion.RegisterRoutes(desk)

	reception := api.Group("/desk", r.sessions.Guard(model.RoleReceptionist))
	r.registerAll(reception, r.h.Patient, r.h.Booking)

	admin := api.Group("/desk", r.sessions.Guard(model.RoleAdmin))
	r.registerAll(admin, r.h.Doctor, r.h.Receptionist, r.h.Appointment, r.h.Audit)
}

func (r *Router) registerAll(rg *gin.RouterGroup, handlers ...Handler) {
	for _, h := range handlers {
		h.RegisterRoutes(rg)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
