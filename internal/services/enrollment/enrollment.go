// Package enrollment сводит записи пользователя о подписках и покупках
// с живыми списками потоков и курсов и выполняет сами операции
// "подписаться на поток" и "купить курс".
package enrollment

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

// ErrAlreadySubscribed возвращается повторной подпиской на тот же поток.
// Состояние пользователя при этом не меняется.
var ErrAlreadySubscribed = errors.New("batch already subscribed")

// ErrAlreadyPurchased возвращается повторной покупкой того же курса.
var ErrAlreadyPurchased = errors.New("course already purchased")

// BatchStatus — поток вместе со статусом подписки текущего пользователя.
type BatchStatus struct {
	Batch        models.Batch `json:"batch"`
	IsSubscribed bool         `json:"is_subscribed"`
	SubscribedOn *time.Time   `json:"subscribed_on,omitempty"`
}

// CourseStatus — курс вместе со статусом покупки текущего пользователя.
type CourseStatus struct {
	Course      models.Course `json:"course"`
	IsPurchased bool          `json:"is_purchased"`
	PurchasedOn *time.Time    `json:"purchased_on,omitempty"`
}

// Service реализует операции подписки и сведение статусов.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// ReconcileBatches сводит живой список потоков с картой подписок пользователя.
//
// Результат содержит по одной записи на каждый живой поток. Записи карты,
// ссылающиеся на несуществующие потоки (поток удалён администратором),
// молча исключаются: это политика гигиены данных, а не ошибка.
func ReconcileBatches(batches []models.Batch, subscribed map[string]models.Subscription) []BatchStatus {
	result := make([]BatchStatus, 0, len(batches))
	for _, batch := range batches {
		status := BatchStatus{Batch: batch}
		if entry, ok := subscribed[batch.ID]; ok {
			status.IsSubscribed = true
			on := entry.SubscribedOn.Time
			status.SubscribedOn = &on
		}
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Batch.ID < result[j].Batch.ID
	})
	return result
}

// ReconcileCourses — симметричное сведение для курсов и карты покупок.
func ReconcileCourses(courses []models.Course, purchased map[string]models.Purchase) []CourseStatus {
	result := make([]CourseStatus, 0, len(courses))
	for _, course := range courses {
		status := CourseStatus{Course: course}
		if entry, ok := purchased[course.ID]; ok {
			status.IsPurchased = true
			on := entry.PurchasedOn.Time
			status.PurchasedOn = &on
		}
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Course.ID < result[j].Course.ID
	})
	return result
}

// ListBatchesFor возвращает сведённый список потоков для пользователя.
func (s *Service) ListBatchesFor(ctx context.Context, userID string) ([]BatchStatus, error) {
	const op = "enrollment.ListBatchesFor"

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

	subscribed, _, err := s.userEnrollment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ReconcileBatches(batches, subscribed), nil
}

// ListCoursesFor возвращает сведённый список курсов для пользователя.
func (s *Service) ListCoursesFor(ctx context.Context, userID string) ([]CourseStatus, error) {
	const op = "enrollment.ListCoursesFor"

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

	_, purchased, err := s.userEnrollment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ReconcileCourses(courses, purchased), nil
}

// SubscribeBatch записывает подписку пользователя на поток.
//
// Запись выполняется условным слиянием "установить, только если отсутствует",
// поэтому две одновременные подписки одного пользователя не затирают друг
// друга и соседние записи карты не страдают. Повторная подписка возвращает
// ErrAlreadySubscribed, не меняя состояния.
func (s *Service) SubscribeBatch(ctx context.Context, userID, batchID string) error {
	const op = "enrollment.SubscribeBatch"

	if _, err := s.store.Get(ctx, models.BatchesCollection, batchID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entry := models.Subscription{SubscribedOn: timestamp.New(time.Now())}
	created, err := s.store.MergeIfAbsent(ctx, models.UsersCollection, userID,
		[]string{"subscribedBatches", batchID}, entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		return ErrAlreadySubscribed
	}

	s.log.Info("batch subscribed",
		slog.String("user_id", userID), slog.String("batch_id", batchID))
	return nil
}

// PurchaseCourse записывает покупку курса. Покупка только регистрируется,
// никакого проведения платежа здесь нет.
func (s *Service) PurchaseCourse(ctx context.Context, userID, courseID string) error {
	const op = "enrollment.PurchaseCourse"

	if _, err := s.store.Get(ctx, models.CoursesCollection, courseID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entry := models.Purchase{PurchasedOn: timestamp.New(time.Now())}
	created, err := s.store.MergeIfAbsent(ctx, models.UsersCollection, userID,
		[]string{"myCourses", courseID}, entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		return ErrAlreadyPurchased
	}

	s.log.Info("course purchased",
		slog.String("user_id", userID), slog.String("course_id", courseID))
	return nil
}

// Subscribers возвращает пользователей, подписанных на поток.
// Фильтрация идёт по коллекции users на стороне клиента,
// как в исходном экране списка подписчиков.
func (s *Service) Subscribers(ctx context.Context, batchID string) ([]models.User, error) {
	const op = "enrollment.Subscribers"

	docs, err := s.store.List(ctx, models.UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []models.User
	for _, doc := range docs {
		var user models.User
		if err := doc.Decode(&user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, ok := user.SubscribedBatches[batchID]; ok {
			result = append(result, user.Sanitized())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// userEnrollment — точечное чтение карт подписок и покупок пользователя.
func (s *Service) userEnrollment(ctx context.Context, userID string) (map[string]models.Subscription, map[string]models.Purchase, error) {
	doc, err := s.store.Get(ctx, models.UsersCollection, userID)
	if err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := doc.Decode(&user); err != nil {
		return nil, nil, err
	}
	return user.SubscribedBatches, user.MyCourses, nil
}
