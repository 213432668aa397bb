// Package list реализует HTTP-обработчик списка курсов со статусом
// покупки текущего пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/services/enrollment"
)

// Handler обрабатывает HTTP-запросы списка курсов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс сведения курсов с покупками.
type Service interface {
	ListCoursesFor(ctx context.Context, userID string) ([]enrollment.CourseStatus, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список курсов
// @Description Возвращает все курсы, каждый со статусом покупки текущего пользователя.
// @Tags Courses
// @Produce  json
// @Success 200 {object} map[string]any "Список курсов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Security BearerAuth
// @Router /courses [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.list"

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

	courses, err := h.service.ListCoursesFor(r.Context(), userID)
	if err != nil {
		log.Error("failed to list courses", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list courses"))
		return
	}

	log.Info("courses listed", slog.Int("count", len(courses)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"courses": courses,
	}))
}
