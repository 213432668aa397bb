// Package list реализует HTTP-обработчик списка потоков со статусом
// подписки текущего пользователя.
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

// Handler обрабатывает HTTP-запросы списка потоков.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс сведения потоков с подписками.
type Service interface {
	ListBatchesFor(ctx context.Context, userID string) ([]enrollment.BatchStatus, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список потоков
// @Description Возвращает все потоки, каждый со статусом подписки текущего пользователя.
// @Tags Batches
// @Produce  json
// @Success 200 {object} map[string]any "Список потоков"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Security BearerAuth
// @Router /batches [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.batch.list"

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

	batches, err := h.service.ListBatchesFor(r.Context(), userID)
	if err != nil {
		log.Error("failed to list batches", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list batches"))
		return
	}

	log.Info("batches listed", slog.Int("count", len(batches)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"batches": batches,
	}))
}
