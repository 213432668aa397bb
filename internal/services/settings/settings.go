// Package settings обслуживает синглтон-документы коллекции settings:
// объявление на главном экране и контактные данные учебного центра.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// Service реализует чтение и редактирование настроек.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Announcement возвращает текущее объявление. Если документ ещё не создан,
// возвращается пустое объявление, а не ошибка.
func (s *Service) Announcement(ctx context.Context) (models.Announcement, error) {
	const op = "settings.Announcement"

	var result models.Announcement
	doc, err := s.store.Get(ctx, models.SettingsCollection, models.SettingAnnouncement)
	if errors.Is(err, storage.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	if err := doc.Decode(&result); err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Contact возвращает текущие контактные данные. Отсутствующий документ
// трактуется как пустые данные.
func (s *Service) Contact(ctx context.Context) (models.Contact, error) {
	const op = "settings.Contact"

	var result models.Contact
	doc, err := s.store.Get(ctx, models.SettingsCollection, models.SettingContact)
	if errors.Is(err, storage.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	if err := doc.Decode(&result); err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateAnnouncement записывает объявление слиянием в фиксированный документ,
// создавая его при первом обращении.
func (s *Service) UpdateAnnouncement(ctx context.Context, req models.DummyAnnouncement) error {
	const op = "settings.UpdateAnnouncement"

	fields := map[string]any{
		"title":   req.Title,
		"message": req.Message,
	}
	if err := s.store.Merge(ctx, models.SettingsCollection, models.SettingAnnouncement, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("announcement updated", slog.String("title", req.Title))
	return nil
}

// UpdateContact записывает контактные данные слиянием в фиксированный документ.
func (s *Service) UpdateContact(ctx context.Context, req models.DummyContact) error {
	const op = "settings.UpdateContact"

	fields := map[string]any{
		"name":      req.Name,
		"line1":     req.Line1,
		"line2":     req.Line2,
		"cityState": req.CityState,
		"pincode":   req.Pincode,
		"phone":     req.Phone,
		"email":     req.Email,
	}
	if err := s.store.Merge(ctx, models.SettingsCollection, models.SettingContact, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contact details updated")
	return nil
}
