// Package course реализует администраторские операции над курсами.
package course

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// Service реализует операции над коллекцией курсов.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// List возвращает все курсы, отсортированные по id.
func (s *Service) List(ctx context.Context) ([]models.Course, error) {
	const op = "course.List"

	docs, err := s.store.List(ctx, models.CoursesCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	courses := make([]models.Course, 0, len(docs))
	for _, doc := range docs {
		var course models.Course
		if err := doc.Decode(&course); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

// Get возвращает один курс по id.
func (s *Service) Get(ctx context.Context, id string) (*models.Course, error) {
	const op = "course.Get"

	doc, err := s.store.Get(ctx, models.CoursesCollection, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var course models.Course
	if err := doc.Decode(&course); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &course, nil
}

// Create создает новый курс.
func (s *Service) Create(ctx context.Context, req models.DummyCourse) (string, error) {
	const op = "course.Create"

	fields, err := storage.EncodeFields(fromRequest(req))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.store.Create(ctx, models.CoursesCollection, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("course created", slog.String("course_id", id), slog.String("name", req.CourseName))
	return id, nil
}

// Update перезаписывает редактируемые поля курса.
func (s *Service) Update(ctx context.Context, id string, req models.DummyCourse) error {
	const op = "course.Update"

	if _, err := s.store.Get(ctx, models.CoursesCollection, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fields, err := storage.EncodeFields(fromRequest(req))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Merge(ctx, models.CoursesCollection, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("course updated", slog.String("course_id", id))
	return nil
}

// Remove удаляет курс. Записи о покупке в документах пользователей
// остаются и отсеиваются при сведении списков.
func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "course.Remove"

	if err := s.store.Delete(ctx, models.CoursesCollection, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("course removed", slog.String("course_id", id))
	return nil
}

func fromRequest(req models.DummyCourse) models.Course {
	return models.Course{
		CourseName:           req.CourseName,
		Description:          req.Description,
		Price:                req.Price,
		Discount:             req.Discount,
		Duration:             req.Duration,
		IsAvailableInDesktop: req.IsAvailableInDesktop,
		Notes:                req.Notes,
	}
}
