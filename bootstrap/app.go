// Package bootstrap wires the application components together and manages
// their lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aegis/api"
	"aegis/config"
	"aegis/escalate"
	"aegis/rbac"
	"aegis/soc"
	"aegis/storage"
)

const shutdownTimeout = 10 * time.Second

// App represents the application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Catalog           *rbac.Catalog
	EventStorage      storage.EventStorageInterface
	AssignmentStorage storage.AssignmentStorageInterface
	Forwarder         escalate.Forwarder
	Recorder          *soc.Recorder
	Dashboard         *soc.Dashboard
	APIServer         *api.API

	sqlite     *storage.SQLite
	shutdownCh chan struct{}
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	app := &App{
		shutdownCh: make(chan struct{}),
	}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Aegis authorization and security event service starting...")

	cfg, err := InitConfig(configPath, sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Catalog = rbac.NewCatalog()
	sugar.Infow("Role catalog loaded",
		"roles", len(app.Catalog.Roles()),
		"permissions", len(app.Catalog.Permissions()))

	if err := app.initStorage(); err != nil {
		return nil, err
	}

	app.Forwarder = app.initForwarder()
	app.Recorder = soc.NewRecorder(app.EventStorage, app.Forwarder, sugar)
	app.Dashboard = soc.NewDashboard(app.EventStorage)
	app.APIServer = api.NewAPI(app.Catalog, app.Recorder, app.Dashboard, app.AssignmentStorage, cfg, sugar)

	return app, nil
}

// initStorage selects the storage backend from configuration.
func (a *App) initStorage() error {
	switch a.Config.Storage.Backend {
	case "memory":
		a.EventStorage = storage.NewMemoryEventStorage()
		a.AssignmentStorage = storage.NewMemoryAssignmentStorage()
		a.Sugar.Info("Using in-memory storage")
		return nil
	case "sqlite":
		path := a.Config.Storage.SQLitePath
		if path == "" {
			path = filepath.Join(a.Config.DataDir, "aegis.db")
		}
		sqlite, err := storage.NewSQLite(path, a.Sugar)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		a.sqlite = sqlite
		a.EventStorage = storage.NewSQLiteEventStorage(sqlite, a.Sugar)
		a.AssignmentStorage = storage.NewSQLiteAssignmentStorage(sqlite, a.Sugar)
		a.Sugar.Infow("Using sqlite storage", "path", path)
		return nil
	default:
		return fmt.Errorf("unknown storage backend: %s", a.Config.Storage.Backend)
	}
}

// initForwarder builds the MDR forwarder when escalation is enabled.
func (a *App) initForwarder() escalate.Forwarder {
	if !a.Config.MDR.Enabled {
		a.Sugar.Warn("MDR escalation disabled, HIGH and CRITICAL events will not be forwarded")
		return nil
	}
	return escalate.NewMDRForwarder(escalate.Config{
		Endpoint:     a.Config.MDR.Endpoint,
		APIKey:       a.Config.MDR.APIKey,
		Source:       a.Config.MDR.Source,
		Organization: a.Config.MDR.Organization,
		Timeout:      a.Config.MDR.Timeout,
	}, a.Sugar)
}

// Start starts the API server in the background.
func (a *App) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.Config.API.Port)
	a.Sugar.Infow("Starting API server", "addr", addr)

	go func() {
		if err := a.APIServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// WaitForShutdown blocks until an interrupt or termination signal arrives.
func (a *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.APIServer != nil {
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorf("API server shutdown error: %v", err)
		}
	}

	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.Sugar.Errorf("SQLite close error: %v", err)
		}
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
