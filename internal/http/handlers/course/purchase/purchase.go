// Package purchase реализует HTTP-обработчик покупки курса студентом.
// Покупка только регистрируется, проведения платежа нет.
package purchase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/services/enrollment"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// Handler обрабатывает HTTP-запросы покупки курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики покупок.
type Service interface {
	PurchaseCourse(ctx context.Context, userID, courseID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Покупка курса
// @Description Регистрирует покупку курса текущим пользователем. Повторная покупка возвращает 409.
// @Tags Courses
// @Produce  json
// @Param id path string true "Id курса"
// @Success 200 {object} response.Response "Покупка зарегистрирована"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Failure 409 {object} response.ErrorResponse "Курс уже куплен"
// @Security BearerAuth
// @Router /courses/{id}/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.purchase"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	courseID := chi.URLParam(r, "id")
	if err := h.service.PurchaseCourse(r.Context(), userID, courseID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Error("course not found", slog.String("course_id", courseID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("course not found"))
		case errors.Is(err, enrollment.ErrAlreadyPurchased):
			log.Error("already purchased", slog.String("course_id", courseID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("already purchased"))
		default:
			log.Error("failed to purchase course", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not purchase course"))
		}
		return
	}

	log.Info("course purchased", slog.String("user_id", userID), slog.String("course_id", courseID))
	render.JSON(w, r, response.OK())
}
