package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/proctor/internal/cli"
	"github.com/raysh454/proctor/internal/detector"
	"github.com/raysh454/proctor/internal/interfaces"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/metrics"
	"github.com/raysh454/proctor/internal/report"
)

// Application is the runtime state container: config, parsed CLI args and
// the services shared across modules.
type Application struct {
	Config  *Config
	Args    *cli.CLIArgs
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Store   *report.Store
	Orch    *Orchestrator

	db *sql.DB
}

// NewApplication opens the report database, builds the detector source and
// the orchestrator.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("proctor")
	}
	if args != nil {
		args.Apply(&cli.Overrides{
			ListenAddr:  &cfg.ListenAddr,
			StorageRoot: &cfg.StorageRoot,
			DetectorURL: &cfg.Detector.BaseURL,
			ReplayPath:  &cfg.ReplayPath,
			ReplayLoop:  &cfg.ReplayLoop,
		})
	}

	root, err := expandPath(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.StorageRoot = root
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, cfg.DBFile))
	if err != nil {
		return nil, fmt.Errorf("opening report database: %w", err)
	}
	store, err := report.NewStore(db, logger.With(logging.Field{Key: "component", Value: "report-store"}))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating report store: %w", err)
	}

	faces, objects, err := buildDetectors(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New()
	orch := NewOrchestrator(cfg, faces, objects, store,
		logger.With(logging.Field{Key: "component", Value: "orchestrator"}), m)

	return &Application{
		Config:  cfg,
		Args:    args,
		Logger:  logger,
		Metrics: m,
		Store:   store,
		Orch:    orch,
		db:      db,
	}, nil
}

func buildDetectors(cfg *Config, logger logging.Logger) (interfaces.FaceDetector, interfaces.ObjectDetector, error) {
	if cfg.ReplayPath != "" {
		r, err := detector.OpenReplay(cfg.ReplayPath, cfg.ReplayLoop)
		if err != nil {
			return nil, nil, fmt.Errorf("loading replay capture: %w", err)
		}
		logger.Info("using replay capture", logging.Field{Key: "path", Value: cfg.ReplayPath}, logging.Field{Key: "frames", Value: r.Len()})
		return r, r, nil
	}
	c, err := detector.NewHTTPClient(cfg.Detector, logger.With(logging.Field{Key: "component", Value: "detector"}))
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

// Shutdown stops any running session, then closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Orch != nil {
		if err := a.Orch.Close(shutdownCtx); err != nil {
			a.Logger.Warn("orchestrator close returned error", logging.Field{Key: "error", Value: err})
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
