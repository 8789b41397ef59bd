package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/config"
	"github.com/ehr/clinic/internal/console"
	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/registry"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/db"
	"github.com/ehr/clinic/internal/platform/metrics"
	"github.com/ehr/clinic/internal/platform/reporting"
)

// app holds the engines wired to the configured storage backend.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	pool     *pgxpool.Pool
	health   db.HealthCheck
	services console.Services
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

// newApp opens the storage backend and loads every engine from it. m may
// be nil.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: m}

	var (
		patients     registry.PatientRepository
		doctors      registry.DoctorRepository
		appointments scheduling.AppointmentRepository
		stays        func(admission.PatientFinder) admission.StayRepository
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.health = db.PingCheck(pool)
		patients = registry.NewPatientRepoPG(pool)
		doctors = registry.NewDoctorRepoPG(pool)
		appointments = scheduling.NewAppointmentRepoPG(pool)
		stays = func(p admission.PatientFinder) admission.StayRepository { return admission.NewStayRepoPG(pool, p) }
		logger.Info().Msg("connected to database")
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		a.health = db.DirCheck(cfg.DataDir)
		patients = registry.NewPatientRepoCSV(cfg.DataDir, logger)
		doctors = registry.NewDoctorRepoCSV(cfg.DataDir, logger)
		appointments = scheduling.NewAppointmentRepoCSV(cfg.DataDir, logger)
		stays = func(p admission.PatientFinder) admission.StayRepository {
			return admission.NewStayRepoCSV(cfg.DataDir, p, logger)
		}
		logger.Info().Str("data_dir", cfg.DataDir).Msg("using csv storage")
	}

	reg, err := registry.NewService(ctx, patients, doctors, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	sched, err := scheduling.NewService(ctx, appointments, reg, m, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	stayRepo := stays(reg)
	adm, err := admission.NewService(ctx, stayRepo, reg, m, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.services = console.Services{
		Registry:   reg,
		Scheduling: sched,
		Admission:  adm,
		Reports: reporting.NewAggregator(reporting.Sources{
			Patients:     patients,
			Doctors:      doctors,
			Appointments: appointments,
			Stays:        stayRepo,
		}),
	}
	return a, nil
}

func (a *app) healthDetails() any {
	if a.pool == nil {
		return map[string]string{"data_dir": a.cfg.DataDir}
	}
	return db.GetPoolStats(a.pool)
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
