// Package batch реализует администраторские операции над потоками занятий:
// создание, изменение, удаление и переключение статуса занятия.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/institute-app/internal/lib/timestamp"
	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// ErrInvalidTransition возвращается при недопустимом переходе статуса занятия.
var ErrInvalidTransition = errors.New("invalid meeting status transition")

// Service реализует операции над коллекцией потоков.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// List возвращает все потоки, отсортированные по id.
func (s *Service) List(ctx context.Context) ([]models.Batch, error) {
	const op = "batch.List"

	docs, err := s.store.List(ctx, models.BatchesCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	batches := make([]models.Batch, 0, len(docs))
	for _, doc := range docs {
		var batch models.Batch
		if err := doc.Decode(&batch); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		batches = append(batches, batch)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].ID < batches[j].ID })
	return batches, nil
}

// Get возвращает один поток по id.
func (s *Service) Get(ctx context.Context, id string) (*models.Batch, error) {
	const op = "batch.Get"

	doc, err := s.store.Get(ctx, models.BatchesCollection, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var batch models.Batch
	if err := doc.Decode(&batch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &batch, nil
}

// Create создает новый поток. Статус занятия всегда начинается со scheduled.
func (s *Service) Create(ctx context.Context, req models.DummyBatch) (string, error) {
	const op = "batch.Create"

	batch, err := fromRequest(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	batch.MeetingStatus = models.MeetingScheduled

	fields, err := storage.EncodeFields(batch)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.store.Create(ctx, models.BatchesCollection, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("batch created", slog.String("batch_id", id), slog.String("topic", batch.Topic))
	return id, nil
}

// Update перезаписывает редактируемые поля потока. Статус занятия
// и дата создания этой операцией не меняются.
func (s *Service) Update(ctx context.Context, id string, req models.DummyBatch) error {
	const op = "batch.Update"

	if _, err := s.store.Get(ctx, models.BatchesCollection, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	batch, err := fromRequest(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	batch.UpdatedAt = timestamp.New(time.Now())

	fields, err := storage.EncodeFields(batch)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	delete(fields, "meetingStatus")
	if err := s.store.Merge(ctx, models.BatchesCollection, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("batch updated", slog.String("batch_id", id))
	return nil
}

// Remove удаляет поток. Записи о подписке в документах пользователей
// остаются и отсеиваются при сведении списков.
func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "batch.Remove"

	if err := s.store.Delete(ctx, models.BatchesCollection, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("batch removed", slog.String("batch_id", id))
	return nil
}

// ToggleMeeting переводит статус занятия в указанное состояние.
// Допустимы только переходы scheduled <-> started и завершение занятия.
func (s *Service) ToggleMeeting(ctx context.Context, id, to string) error {
	const op = "batch.ToggleMeeting"

	doc, err := s.store.Get(ctx, models.BatchesCollection, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var batch models.Batch
	if err := doc.Decode(&batch); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !models.ValidMeetingTransition(batch.MeetingStatus, to) {
		return fmt.Errorf("%s: %w: %s -> %s", op, ErrInvalidTransition, batch.MeetingStatus, to)
	}

	fields := map[string]any{
		"meetingStatus": to,
		"updatedAt":     timestamp.New(time.Now()),
	}
	if err := s.store.Merge(ctx, models.BatchesCollection, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("meeting status changed",
		slog.String("batch_id", id),
		slog.String("from", batch.MeetingStatus),
		slog.String("to", to))
	return nil
}

// fromRequest собирает Batch из валидированного запроса, разбирая строки дат.
func fromRequest(req models.DummyBatch) (models.Batch, error) {
	date, err := timestamp.Normalize(req.Date)
	if err != nil {
		return models.Batch{}, fmt.Errorf("parse date: %w", err)
	}
	at, err := timestamp.Normalize(req.Time)
	if err != nil {
		return models.Batch{}, fmt.Errorf("parse time: %w", err)
	}
	return models.Batch{
		Topic:       req.Topic,
		Description: req.Description,
		Date:        timestamp.New(date),
		Time:        timestamp.New(at),
		Duration:    req.Duration,
		ZoomLink:    req.ZoomLink,
		BatchSize:   req.BatchSize,
		Fee:         req.Fee,
	}, nil
}
