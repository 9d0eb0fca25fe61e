package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/k-lohani/ruthieAI/internal/clients/openai"
	"github.com/k-lohani/ruthieAI/internal/clients/redis"
	"github.com/k-lohani/ruthieAI/internal/clients/vapi"
	"github.com/k-lohani/ruthieAI/internal/data/db"
	"github.com/k-lohani/ruthieAI/internal/data/repos/patients"
	"github.com/k-lohani/ruthieAI/internal/data/repos/visits"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
	"github.com/k-lohani/ruthieAI/internal/riskmodel"
	"github.com/k-lohani/ruthieAI/internal/services"
)

// App wires configuration, clients, repositories and services into a ready
// pipeline. Close releases the optional event bus.
type App struct {
	Log      *logger.Logger
	Config   Config
	DB       *db.Service
	Pipeline *services.Pipeline

	bus redis.EventBus
}

func New() (*App, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dbSvc, err := db.NewService(log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dbSvc.AutoMigrate(migrateCtx); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	patientRepo := patients.NewRepo(dbSvc, log)
	visitRepo := visits.NewRepo(dbSvc, log)

	aiClient, err := openai.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}
	vapiClient, err := vapi.NewFromEnv(log)
	if err != nil {
		return nil, fmt.Errorf("init telephony client: %w", err)
	}

	// The step-event bus is optional: no REDIS_ADDR means no bus.
	var bus redis.EventBus
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err = redis.NewEventBus(log)
		if err != nil {
			log.Warn("step-event bus unavailable, continuing without it", "error", err)
			bus = nil
		}
	}

	// A missing model artifact is not fatal; predictions come back UNKNOWN.
	var model *riskmodel.Model
	if _, statErr := os.Stat(cfg.RiskModelPath); statErr == nil {
		model, err = riskmodel.Load(cfg.RiskModelPath)
		if err != nil {
			return nil, fmt.Errorf("load risk model: %w", err)
		}
		log.Info("risk model loaded", "path", cfg.RiskModelPath)
	} else {
		log.Warn("risk model artifact not found, predictions disabled", "path", cfg.RiskModelPath)
	}

	clock := clockx.Real()
	contextSvc := services.NewPatientContextService(log, patientRepo, visitRepo, clock)
	controller := services.NewCallController(log, vapiClient, clock, cfg.Policy())
	analyzer := services.NewTranscriptAnalyzer(log, aiClient)
	scorer := services.NewRiskScorer(log, model, clock)

	pipeline := services.NewPipeline(log, contextSvc, controller, analyzer, scorer, visitRepo, bus, clock)

	return &App{
		Log:      log,
		Config:   cfg,
		DB:       dbSvc,
		Pipeline: pipeline,
		bus:      bus,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	a.Log.Sync()
}
