package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/careplus/frontdesk/config"
	"github.com/careplus/frontdesk/internal/handler/health"
	promHandler "github.com/careplus/frontdesk/internal/handler/prometheus"
	"github.com/careplus/frontdesk/internal/repository/postgres"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/internal/worker"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

func main() {
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
	}).Component("audit_worker")
	appLogger.SetGlobal()

	if !cfg.Database.Enabled() {
		appLogger.Fatal(fmt.Errorf("database.host is empty"), "audit worker needs the audit database")
	}

	db, err := postgres.NewDB(postgres.DatabaseConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, "frontdesk_worker")

	repo := postgres.NewAuditRepository(postgres.NewBaseRepository(db), m)
	cleanup := worker.NewAuditCleanupWorker(
		audit.NewService(repo, appLogger),
		cfg.Audit.RetentionDays,
		cfg.Audit.CleanupInterval,
		appLogger,
	)

	srv := setupHealthCheck(cfg.Audit.HealthPort, registry, map[string]health.Check{"database": repo.Ping}, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.Start(ctx)
		close(done)
	}()
	appLogger.Info("Audit cleanup worker started", "retention_days", cfg.Audit.RetentionDays, "interval", cfg.Audit.CleanupInterval.String())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutting down worker")
	cancel()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Health server forced to shutdown")
	}
}

func setupHealthCheck(port int, registry *prometheus.Registry, checks map[string]health.Check, l *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", promHandler.New(registry).Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error(err, "Health check server failed")
		}
	}()
	return srv
}
