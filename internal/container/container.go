package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"gprspc/adapters/excel"
	"gprspc/adapters/postgres"
	"gprspc/app"
	"gprspc/internal/api"
	"gprspc/internal/config"
	"gprspc/internal/metrics"
	"gprspc/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *sqlx.DB
	Registry *prometheus.Registry
	Metrics  *metrics.SPCMetrics

	// Elimination log persistence
	LogRepo   ports.EliminationLogRepository
	LogWriter *excel.LogWriter

	Service *app.SPCService
	Handler *api.SPCHandler
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
	}

	m, err := metrics.NewSPCMetrics(c.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	c.Metrics = m

	if cfg.Paths.LogDir != "" {
		c.LogWriter = excel.NewLogWriter(cfg.Paths.LogDir, cfg.Paths.LogFormat)
	}
	return c, nil
}

// InitWithDatabase enables database persistence of elimination logs
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.LogRepo = postgres.NewEliminationLogRepository(db)
	log.Printf("[Container] Elimination log repository initialized")
	return nil
}

// Build wires the service and HTTP handler from the initialized components
func (c *Container) Build() *app.SPCService {
	var sinks []ports.EliminationLogSink
	if c.LogWriter != nil {
		sinks = append(sinks, c.LogWriter)
	}

	c.Service = app.NewSPCService(app.SPCServiceConfig{
		Sources: func(path, sheet string) ports.DatasetSource {
			sourceConfig := excel.DefaultSourceConfig()
			sourceConfig.FilePath = path
			if sheet == "" {
				sheet = c.Config.Data.Sheet
			}
			if sheet != "" {
				sourceConfig.Sheet = sheet
			}
			return excel.NewFileSource(sourceConfig)
		},
		Repository:        c.LogRepo,
		Sinks:             sinks,
		Metrics:           c.Metrics,
		DefaultMethod:     c.Config.DefaultMethod(),
		DefaultConfidence: c.Config.DefaultConfidence(),
	})
	c.Handler = api.NewSPCHandler(c.Service)

	log.Printf("[Container] SPC service initialized (file log: %t, database log: %t)", c.LogWriter != nil, c.LogRepo != nil)
	return c.Service
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
