// Package app wires configuration, persistence, storage, services and
// the HTTP router into a runnable server.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"worship_management/internal/config"
	"worship_management/internal/database"
	"worship_management/internal/handlers"
	"worship_management/internal/repository"
	"worship_management/internal/routes"
	"worship_management/internal/services"
	"worship_management/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Router *gin.Engine

	Users *services.UserService
}

// New connects to the configured database and builds the app on it.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	a, err := NewWithDB(cfg, log, db)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return a, nil
}

// NewWithDB builds the app on an already open database.
func NewWithDB(cfg *config.Config, log *zap.Logger, db *gorm.DB) (*App, error) {
	store, err := storage.New(cfg)
	if err != nil {
		return nil, err
	}
	var filesDir string
	if local, ok := store.(*storage.Local); ok {
		filesDir = local.Dir()
	}

	userRepo := repository.NewUserRepository(db)
	songRepo := repository.NewSongRepository(db)
	adaptationRepo := repository.NewAdaptationRepository(db)
	eventRepo := repository.NewEventRepository(db)

	loc := cfg.Location()
	maxUpload := cfg.MaxUploadMB << 20

	userService := services.NewUserService(userRepo, cfg.SuperuserEmail, log.Named("users"))
	songService := services.NewSongService(songRepo, adaptationRepo, userRepo, store, cfg.SuperuserEmail, log.Named("songs"))
	eventService := services.NewEventService(eventRepo, songRepo, loc, log.Named("events"))
	importService := services.NewImportService(songRepo, log.Named("import"))

	hl := log.Named("http")
	router := routes.SetupRoutes(cfg, hl, routes.Handlers{
		Auth:        handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.JWTTTL, hl),
		Songs:       handlers.NewSongHandler(songService, maxUpload, hl),
		Adaptations: handlers.NewAdaptationHandler(songService, userService, hl),
		Imports:     handlers.NewImportHandler(importService, maxUpload, hl),
		Events:      handlers.NewEventHandler(eventService, loc, hl),
		Users:       handlers.NewUserHandler(userService, hl),
	}, userRepo, filesDir)

	return &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Router: router,
		Users:  userService,
	}, nil
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         net.JoinHostPort("0.0.0.0", a.Config.ServerPort),
		Handler:      a.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.Log.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("env", a.Config.Env),
			zap.String("timezone", a.Config.OrgTimezone))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("forced shutdown", zap.Error(err))
		return err
	}
	a.Log.Info("server exited properly")
	return nil
}

func (a *App) Close() error {
	return database.Close(a.DB)
}
