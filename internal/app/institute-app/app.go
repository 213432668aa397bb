// Package instituteapp собирает и запускает основное приложение учебного центра.
package instituteapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/institute-app/internal/cache"
	"github.com/magabrotheeeer/institute-app/internal/config"
	"github.com/magabrotheeeer/institute-app/internal/lib/jwt"
	"github.com/magabrotheeeer/institute-app/internal/migrations"
	authservice "github.com/magabrotheeeer/institute-app/internal/services/auth"
	batchservice "github.com/magabrotheeeer/institute-app/internal/services/batch"
	courseservice "github.com/magabrotheeeer/institute-app/internal/services/course"
	enrollmentservice "github.com/magabrotheeeer/institute-app/internal/services/enrollment"
	"github.com/magabrotheeeer/institute-app/internal/services/session"
	settingsservice "github.com/magabrotheeeer/institute-app/internal/services/settings"
	"github.com/magabrotheeeer/institute-app/internal/sessionstore"
	"github.com/magabrotheeeer/institute-app/internal/storage"
	"github.com/magabrotheeeer/institute-app/internal/watcher"
)

// App держит HTTP-сервер и долгоживущие зависимости приложения.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	watcher *watcher.Watcher
}

// New собирает приложение: хранилище, миграции, кэш, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	sessions := sessionstore.New(cacheRedis)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, sessions, jwtMaker, logger)
	enrollmentService := enrollmentservice.New(db, logger)
	batchService := batchservice.New(db, logger)
	courseService := courseservice.New(db, logger)
	settingsService := settingsservice.New(db, logger)
	collectionWatcher := watcher.New(db, logger)

	// Восстановление прежнего входа при старте.
	sessionRouter := session.New(sessions, logger)
	state, err := sessionRouter.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("session resolved", slog.String("state", string(state)))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:       authService,
		Enrollment: enrollmentService,
		Batch:      batchService,
		Course:     courseService,
		Settings:   settingsService,
		Watcher:    collectionWatcher,
		Storage:    db,
	})

	// WriteTimeout не задан: /watch держит длинные SSE-соединения.
	srv := &http.Server{
		Addr:        cfg.AddressHTTP,
		Handler:     router,
		ReadTimeout: cfg.TimeoutHTTP,
		IdleTimeout: cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		watcher: collectionWatcher,
	}, nil
}

// Run запускает фоновый наблюдатель и HTTP-сервер и блокируется до
// остановки контекста или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.watcher.Close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.watcher.Close()
		a.db.DB.Close()
		return err
	}
}
