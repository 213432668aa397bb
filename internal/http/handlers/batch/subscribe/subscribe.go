// Package subscribe реализует HTTP-обработчик подписки студента на поток.
package subscribe

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

// Handler обрабатывает HTTP-запросы подписки на поток.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики подписок.
type Service interface {
	SubscribeBatch(ctx context.Context, userID, batchID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписка на поток
// @Description Записывает подписку текущего пользователя. Повторная подписка возвращает 409.
// @Tags Batches
// @Produce  json
// @Param id path string true "Id потока"
// @Success 200 {object} response.Response "Подписка оформлена"
// @Failure 404 {object} response.ErrorResponse "Поток не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка уже оформлена"
// @Security BearerAuth
// @Router /batches/{id}/subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.batch.subscribe"

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

	batchID := chi.URLParam(r, "id")
	if err := h.service.SubscribeBatch(r.Context(), userID, batchID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Error("batch not found", slog.String("batch_id", batchID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("batch not found"))
		case errors.Is(err, enrollment.ErrAlreadySubscribed):
			log.Error("already subscribed", slog.String("batch_id", batchID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("already subscribed"))
		default:
			log.Error("failed to subscribe", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not subscribe"))
		}
		return
	}

	log.Info("batch subscribed", slog.String("user_id", userID), slog.String("batch_id", batchID))
	render.JSON(w, r, response.OK())
}
