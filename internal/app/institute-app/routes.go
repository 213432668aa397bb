// Package instituteapp предоставляет маршруты для основного приложения.
package instituteapp

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/institute-app/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/auth/register"
	batchcreate "github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/create"
	batchlist "github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/list"
	batchremove "github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/remove"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/subscribe"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/subscribers"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/togglemeeting"
	batchupdate "github.com/magabrotheeeer/institute-app/internal/http/handlers/batch/update"
	coursecreate "github.com/magabrotheeeer/institute-app/internal/http/handlers/course/create"
	courselist "github.com/magabrotheeeer/institute-app/internal/http/handlers/course/list"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/course/purchase"
	courseremove "github.com/magabrotheeeer/institute-app/internal/http/handlers/course/remove"
	courseupdate "github.com/magabrotheeeer/institute-app/internal/http/handlers/course/update"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/health"
	profileread "github.com/magabrotheeeer/institute-app/internal/http/handlers/profile/read"
	profileupdate "github.com/magabrotheeeer/institute-app/internal/http/handlers/profile/update"
	settingsread "github.com/magabrotheeeer/institute-app/internal/http/handlers/settings/read"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/settings/updateannouncement"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/settings/updatecontact"
	"github.com/magabrotheeeer/institute-app/internal/http/handlers/watch"
	"github.com/magabrotheeeer/institute-app/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/institute-app/internal/services/auth"
	batchservice "github.com/magabrotheeeer/institute-app/internal/services/batch"
	courseservice "github.com/magabrotheeeer/institute-app/internal/services/course"
	enrollmentservice "github.com/magabrotheeeer/institute-app/internal/services/enrollment"
	settingsservice "github.com/magabrotheeeer/institute-app/internal/services/settings"
	"github.com/magabrotheeeer/institute-app/internal/storage"
	"github.com/magabrotheeeer/institute-app/internal/watcher"
)

// Services — зависимости, необходимые маршрутам приложения.
type Services struct {
	Auth       *authservice.Service
	Enrollment *enrollmentservice.Service
	Batch      *batchservice.Service
	Course     *courseservice.Service
	Settings   *settingsservice.Service
	Watcher    *watcher.Watcher
	Storage    *storage.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(20, 40)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

			r.Post("/logout", logout.New(logger, s.Auth).ServeHTTP)
			r.Get("/profile", profileread.New(logger, s.Auth).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, s.Auth).ServeHTTP)

			r.Get("/batches", batchlist.New(logger, s.Enrollment).ServeHTTP)
			r.Post("/batches/{id}/subscribe", subscribe.New(logger, s.Enrollment).ServeHTTP)

			r.Get("/courses", courselist.New(logger, s.Enrollment).ServeHTTP)
			r.Post("/courses/{id}/purchase", purchase.New(logger, s.Enrollment).ServeHTTP)

			r.Get("/settings", settingsread.New(logger, s.Settings).ServeHTTP)

			r.Get("/watch/{collection}", watch.New(logger, s.Watcher).ServeHTTP)

			// Администраторские конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Post("/batches", batchcreate.New(logger, s.Batch).ServeHTTP)
				r.Put("/batches/{id}", batchupdate.New(logger, s.Batch).ServeHTTP)
				r.Delete("/batches/{id}", batchremove.New(logger, s.Batch).ServeHTTP)
				r.Post("/batches/{id}/meeting", togglemeeting.New(logger, s.Batch).ServeHTTP)
				r.Get("/batches/{id}/subscribers", subscribers.New(logger, s.Enrollment).ServeHTTP)

				r.Post("/courses", coursecreate.New(logger, s.Course).ServeHTTP)
				r.Put("/courses/{id}", courseupdate.New(logger, s.Course).ServeHTTP)
				r.Delete("/courses/{id}", courseremove.New(logger, s.Course).ServeHTTP)

				r.Put("/settings/announcement", updateannouncement.New(logger, s.Settings).ServeHTTP)
				r.Put("/settings/contact", updatecontact.New(logger, s.Settings).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
