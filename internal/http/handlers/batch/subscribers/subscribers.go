// Package subscribers реализует HTTP-обработчик списка подписчиков потока.
package subscribers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/models"
)

// Handler обрабатывает HTTP-запросы списка подписчиков.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики подписок.
type Service interface {
	Subscribers(ctx context.Context, batchID string) ([]models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписчики потока
// @Description Возвращает пользователей, подписанных на поток. Только для администратора.
// @Tags Batches
// @Produce  json
// @Param id path string true "Id потока"
// @Success 200 {object} map[string]any "Список подписчиков"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Security BearerAuth
// @Router /batches/{id}/subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.batch.subscribers"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	batchID := chi.URLParam(r, "id")
	users, err := h.service.Subscribers(r.Context(), batchID)
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscribers"))
		return
	}

	log.Info("subscribers listed", slog.String("batch_id", batchID), slog.Int("count", len(users)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscribers": users,
	}))
}
