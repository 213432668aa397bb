// Package remove реализует HTTP-обработчик удаления курса администратором.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы удаления курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики курсов.
type Service interface {
	Remove(ctx context.Context, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление курса
// @Description Удаляет курс. Записи о покупках в документах пользователей остаются.
// @Tags Courses
// @Produce  json
// @Param id path string true "Id курса"
// @Success 200 {object} response.Response "Курс удален"
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error("failed to remove course", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove course"))
		return
	}

	log.Info("course removed", slog.String("course_id", id))
	render.JSON(w, r, response.OK())
}
