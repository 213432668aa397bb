// Package read реализует HTTP-обработчик чтения настроек: объявления
// и контактных данных учебного центра.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/models"
)

// Handler обрабатывает HTTP-запросы чтения настроек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики настроек.
type Service interface {
	Announcement(ctx context.Context) (models.Announcement, error)
	Contact(ctx context.Context) (models.Contact, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Чтение настроек
// @Description Возвращает объявление и контактные данные. Отсутствующие документы отдаются пустыми.
// @Tags Settings
// @Produce  json
// @Success 200 {object} map[string]any "Настройки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /settings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	announcement, err := h.service.Announcement(r.Context())
	if err != nil {
		log.Error("failed to read announcement", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read settings"))
		return
	}

	contact, err := h.service.Contact(r.Context())
	if err != nil {
		log.Error("failed to read contact details", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read settings"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"announcement": announcement,
		"contact":      contact,
	}))
}
