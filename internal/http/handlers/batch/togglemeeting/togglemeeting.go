// Package togglemeeting реализует HTTP-обработчик переключения статуса занятия.
package togglemeeting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/services/batch"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// Request — целевой статус занятия.
type Request struct {
	Status string `json:"status" validate:"required,oneof=scheduled started ended"`
}

// Handler обрабатывает HTTP-запросы переключения статуса занятия.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики потоков.
type Service interface {
	ToggleMeeting(ctx context.Context, id, to string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Переключение статуса занятия
// @Description Переводит занятие потока в указанный статус. Подписчики видят изменение без перезапроса.
// @Tags Batches
// @Accept  json
// @Produce  json
// @Param id path string true "Id потока"
// @Param request body Request true "Целевой статус"
// @Success 200 {object} response.Response "Статус изменен"
// @Failure 404 {object} response.ErrorResponse "Поток не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /batches/{id}/meeting [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.batch.togglemeeting"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.ToggleMeeting(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Error("batch not found", slog.String("batch_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("batch not found"))
		case errors.Is(err, batch.ErrInvalidTransition):
			log.Error("invalid meeting transition", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("invalid meeting status transition"))
		default:
			log.Error("failed to toggle meeting", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not change meeting status"))
		}
		return
	}

	log.Info("meeting status changed", slog.String("batch_id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}
