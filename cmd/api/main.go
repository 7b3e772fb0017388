package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/careplus/frontdesk/config"
	"github.com/careplus/frontdesk/internal/booking"
	"github.com/careplus/frontdesk/internal/catalog"
	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/deletion"
	"github.com/careplus/frontdesk/internal/email"
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
	"github.com/careplus/frontdesk/internal/repository"
	"github.com/careplus/frontdesk/internal/repository/postgres"
	"github.com/careplus/frontdesk/internal/router"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/internal/session"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/auth"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
	"github.com/careplus/frontdesk/pkg/security"
	"github.com/careplus/frontdesk/pkg/validator"
)

func main() {
	var hashOnly bool
	flag.BoolVar(&hashOnly, "hash-password", false, "read a password from stdin, print its bcrypt hash for admin.password_hash and exit")
	flag.Parse()
	if hashOnly {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// .env is optional outside development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	appLogger.SetGlobal()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, "frontdesk")

	// Audit store
	var (
		db        *sqlx.DB
		auditRepo repository.AuditRepository
	)
	if cfg.Database.Enabled() {
		db, err = postgres.NewDB(databaseConfig(cfg.Database))
		if err != nil {
			appLogger.Fatal(err, "failed to connect to database")
		}
		defer db.Close()
		if err := postgres.Migrate(context.Background(), db); err != nil {
			appLogger.Fatal(err, "failed to migrate audit schema")
		}
		auditRepo = postgres.NewAuditRepository(postgres.NewBaseRepository(db), m)
	} else {
		appLogger.Warn("No database configured, audit trail goes to the log only")
	}
	auditSvc := audit.NewService(auditRepo, appLogger)
	auditLogger := audit.NewAuditLogger(auditSvc)

	// Clinic API
	api := clinicapi.NewClient(clinicapi.Config{
		BaseURL:         cfg.ClinicAPI.BaseURL,
		Timeout:         cfg.ClinicAPI.Timeout,
		Rate:            cfg.ClinicAPI.Rate,
		Burst:           cfg.ClinicAPI.Burst,
		BreakerFailures: cfg.ClinicAPI.BreakerFailures,
		BreakerTimeout:  cfg.ClinicAPI.BreakerTimeout,
	}, clinicapi.WithMetrics(m), clinicapi.WithLogger(appLogger))

	cat, err := catalog.New(cfg.Catalog.Specialists, cfg.Catalog.TimeOptions)
	if err != nil {
		appLogger.Fatal(err, "invalid catalog")
	}

	// Sessions
	var store session.Store
	if cfg.Session.RedisURL != "" {
		client, err := session.NewRedisClient(cfg.Session.RedisURL)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
		defer client.Close()

		var opts []session.RedisOption
		if cfg.Session.EncryptionKey != "" {
			key, err := security.ParseKey(cfg.Session.EncryptionKey)
			if err != nil {
				appLogger.Fatal(err, "invalid session encryption key")
			}
			enc, err := security.NewAESEncryptor(key)
			if err != nil {
				appLogger.Fatal(err, "failed to create session encryptor")
			}
			opts = append(opts, session.WithEncryption(enc))
		}
		store = session.NewRedisStore(client, opts...)
	} else {
		appLogger.Warn("No redis configured, sessions are kept in memory")
		store = session.NewMemoryStore(cfg.Workspace.CleanupInterval)
	}
	tokens := auth.NewJWTService(cfg.Session.JWTSecret, cfg.Session.Issuer, cfg.Session.TTL)
	sessions := session.NewService(api, tokens, store, session.Config{
		Admin: session.Admin{
			Identifier:   cfg.Admin.Identifier,
			PasswordHash: cfg.Admin.PasswordHash,
			Name:         cfg.Admin.Name,
		},
	}, auditLogger, m, appLogger)

	// Booking confirmations
	var notifier booking.Notifier = email.Noop{}
	if cfg.SMTP.Enabled() {
		notifier = email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		}, appLogger)
	}

	// Workspaces
	tuning := search.Tuning{
		Debounce: cfg.Search.Debounce,
		Timeout:  cfg.Search.Timeout,
		Metrics:  m,
		Logger:   appLogger,
	}
	workspaces := workspace.NewStore(workspace.Factory{
		API:      api,
		Tuning:   tuning,
		Deletion: deletion.Deps{Auditor: auditLogger, Metrics: m, Logger: appLogger},
		Booking:  booking.Deps{Notifier: notifier, Auditor: auditLogger, Metrics: m, Logger: appLogger},
	}, cfg.Workspace.IdleTTL, cfg.Workspace.CleanupInterval, m, appLogger)

	v := validator.New()
	formSvc := forms.NewService(api, cat, v, auditLogger, m, appLogger)
	appointments := booking.NewAppointments(api, v, auditLogger, m, appLogger)

	checks := map[string]health.Check{
		"clinic_api": func(context.Context) error { return api.Ready() },
		"sessions":   sessions.Ping,
	}
	if auditRepo != nil {
		checks["database"] = auditRepo.Ping
	}

	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(sessions, router.Handlers{
		Health:       health.NewHandler(checks),
		Metrics:      promHandler.New(registry),
		Auth:         authHandler.NewHandler(sessions, workspaces),
		Catalog:      catalogHandler.NewHandler(cat),
		Panel:        panel.NewHandler(workspaces),
		Deletion:     deletionHandler.NewHandler(workspaces),
		Patient:      patient.NewHandler(formSvc),
		Booking:      bookingHandler.NewHandler(workspaces),
		Doctor:       doctor.NewHandler(formSvc, api, workspaces, appLogger),
		Receptionist: receptionist.NewHandler(formSvc),
		Appointment:  appointmentHandler.NewHandler(appointments),
		Audit:        auditHandler.NewHandler(auditSvc),
	}, m, router.RouterConfig{
		Mode:        cfg.Server.Mode,
		RateLimit:   limit,
		RateBurst:   cfg.RateLimit.Burst,
		Timeout:     cfg.Server.RequestTimeout,
		MaxBody:     cfg.Server.MaxBodyBytes,
		CORSConfig:  middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
		MetricsPath: cfg.Server.MetricsPath,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("Front desk gateway listening", "addr", srv.Addr, "clinic_api", cfg.ClinicAPI.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "Server forced to shutdown")
	}

	workspaces.Close()
	auditLogger.Flush()
	appLogger.Info("Server exited")
}

func databaseConfig(c config.DatabaseConfig) postgres.DatabaseConfig {
	return postgres.DatabaseConfig{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}
