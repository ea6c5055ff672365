// Package app builds the timer's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/client"
	"hobbytrack/project-timer/internal/config"
	"hobbytrack/project-timer/internal/database"
	"hobbytrack/project-timer/internal/fallback"
	"hobbytrack/project-timer/internal/handler"
	"hobbytrack/project-timer/internal/kvstore"
	"hobbytrack/project-timer/internal/lifecycle"
	"hobbytrack/project-timer/internal/notify"
	"hobbytrack/project-timer/internal/recorder"
	"hobbytrack/project-timer/internal/reconcile"
	"hobbytrack/project-timer/internal/repository"
	"hobbytrack/project-timer/internal/router"
	"hobbytrack/project-timer/internal/server"
	"hobbytrack/project-timer/internal/service"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the wait for unmount saves when no save timeout is configured.
const shutdownTimeout = 5 * time.Second

// Backend is the persistence the timer runs against.
type Backend interface {
	backend.ProjectStore
	backend.ProjectCreator
	backend.SessionStore
}

// localBackend joins the sqlite repositories into one Backend.
type localBackend struct {
	*repository.ProjectRepository
	*repository.SessionRepository
}

// App holds the wired components.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *database.DB
	Backend       Backend
	Fallback      *fallback.Store
	Hub           *lifecycle.Hub
	Notifications *notify.Center
	Dashboard     *service.Dashboard
	Projects      *service.ProjectService
	Reconciler    *reconcile.Policy
}

// New opens the local database and builds every component. The local database is
// always opened since it holds the fallback entries, whatever the backend mode.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.New(cfg.StoragePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	be, err := newBackend(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	fb := fallback.NewStore(kvstore.NewSQLite(db.DB, logger), logger)
	hub := lifecycle.NewHub()

	center := notify.NewCenter(cfg.Server.NotificationTTL, logger)
	center.Start(time.Second)

	dashboard := service.NewDashboard(be, be, fb, hub, center, cfg.UserID, service.TimerSettings{
		TickInterval:    cfg.Timer.TickInterval,
		AutoPauseOnBlur: cfg.Timer.AutoPauseOnBlur,
		Recorder: recorder.Settings{
			SafetySaveInterval: cfg.Timer.SafetySaveInterval,
			FallbackInterval:   cfg.Timer.FallbackInterval,
			SaveTimeout:        cfg.Timer.SaveTimeout,
		},
	}, logger)

	logger.Info("Timer components initialized",
		zap.String("backend_mode", cfg.Backend.Mode),
		zap.String("storage_path", cfg.StoragePath),
		zap.Bool("auto_pause_on_blur", cfg.Timer.AutoPauseOnBlur),
	)

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Backend:       be,
		Fallback:      fb,
		Hub:           hub,
		Notifications: center,
		Dashboard:     dashboard,
		Projects:      service.NewProjectService(be, be, be, cfg.UserID),
		Reconciler:    reconcile.NewPolicy(be, fb, logger),
	}, nil
}

func newBackend(cfg *config.Config, db *database.DB, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend.Mode {
	case config.BackendRemote:
		apiClient := client.NewAPIClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout, logger)
		if cfg.Backend.AccessToken != "" {
			apiClient.SetAccessToken(cfg.Backend.AccessToken)
		}
		return apiClient, nil
	case config.BackendLocal:
		return localBackend{
			ProjectRepository: repository.NewProjectRepository(db.DB),
			SessionRepository: repository.NewSessionRepository(db.DB),
		}, nil
	case config.BackendMemory:
		return backend.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Backend.Mode)
	}
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return router.New(
		handler.NewTimerHandler(a.Dashboard, a.Logger),
		handler.NewNotificationHandler(a.Notifications, a.Logger),
		server.NewLifecycleServer(a.Hub, a.Logger),
		a.Logger,
	)
}

// healthChecker is implemented by backends reachable over the network.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckBackend reports whether a remote backend answers. Local backends always pass.
func (a *App) CheckBackend(ctx context.Context) error {
	hc, ok := a.Backend.(healthChecker)
	if !ok {
		return nil
	}
	checkCtx, cancel := context.WithTimeout(ctx, a.Config.Backend.Timeout)
	defer cancel()
	return hc.HealthCheck(checkCtx)
}

// Serve runs the HTTP API until ctx is done, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("localhost:%d", a.Config.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting timer API", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("timer API failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("Timer API shutdown error", zap.Error(err))
	} else {
		a.Logger.Info("Timer API stopped")
	}
	return nil
}

// Close unmounts every open project, waiting for their final saves, and releases
// the database.
func (a *App) Close() error {
	wait := a.Config.Timer.SaveTimeout
	if wait <= 0 {
		wait = shutdownTimeout
	}
	a.Dashboard.CloseAll(wait)
	a.Notifications.Stop()
	return a.DB.Close()
}
