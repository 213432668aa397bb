// Package watch реализует HTTP-обработчик потоковой выдачи снимков коллекции
// через Server-Sent Events. Клиент получает полный снимок сразу после подписки
// и далее после каждого изменения коллекции.
package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
	"github.com/magabrotheeeer/institute-app/internal/watcher"
)

// Subscriber описывает интерфейс подписки на изменения коллекции.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, fn watcher.Snapshot) (func(), error)
}

// Handler обрабатывает SSE-запросы наблюдения за коллекцией.
type Handler struct {
	log     *slog.Logger
	watcher Subscriber
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, w Subscriber) *Handler {
	return &Handler{log: log, watcher: w}
}

// Наблюдаемые коллекции. Документы users наружу не транслируются.
var watchable = map[string]bool{
	models.BatchesCollection:  true,
	models.CoursesCollection:  true,
	models.SettingsCollection: true,
}

// ServeHTTP godoc
// @Summary Наблюдение за коллекцией
// @Description Отдает снимки коллекции как Server-Sent Events: первый сразу, далее после каждого изменения.
// @Tags Watch
// @Produce  text/event-stream
// @Param collection path string true "Имя коллекции (batches, courses, settings)"
// @Success 200 {string} string "Поток событий"
// @Failure 404 {object} response.ErrorResponse "Коллекция не наблюдается"
// @Security BearerAuth
// @Router /watch/{collection} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watch"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	collection := chi.URLParam(r, "collection")
	if !watchable[collection] {
		log.Error("collection is not watchable", sl.Collection(collection))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("collection is not watchable"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("response writer does not support streaming")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("streaming unsupported"))
		return
	}

	// Снимки сериализуются в канал: запись в ResponseWriter идет
	// только из горутины обработчика.
	snapshots := make(chan []storage.Document, 1)
	unsubscribe, err := h.watcher.Subscribe(r.Context(), collection, func(docs []storage.Document) {
		select {
		case snapshots <- docs:
		case <-r.Context().Done():
		}
	})
	if err != nil {
		log.Error("failed to subscribe", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not subscribe"))
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Info("watch stream opened", sl.Collection(collection))

	for {
		select {
		case <-r.Context().Done():
			log.Info("watch stream closed", sl.Collection(collection))
			return
		case docs := <-snapshots:
			items := make([]map[string]any, 0, len(docs))
			for _, doc := range docs {
				fields := make(map[string]any, len(doc.Fields)+1)
				for k, v := range doc.Fields {
					fields[k] = v
				}
				fields["id"] = doc.ID
				items = append(items, fields)
			}
			payload, err := json.Marshal(items)
			if err != nil {
				log.Error("failed to marshal snapshot", sl.Err(err))
				return
			}
			if _, err := w.Write([]byte("event: snapshot\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
