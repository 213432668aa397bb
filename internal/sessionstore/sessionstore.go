// Package sessionstore хранит профиль вошедшего пользователя между запусками.
//
// Хранилище держит не более одной записи под фиксированным ключом и является
// единственным источником истины "кто вошёл" для маршрутизатора сессии.
// Хэш пароля в запись не попадает никогда.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/institute-app/internal/models"
)

// sessionKey — фиксированный ключ единственной записи сессии.
const sessionKey = "logged_in_user"

// KV описывает локальное key-value хранилище, поверх которого живёт сессия.
type KV interface {
	// Get возвращает значение по ключу; false — значения нет.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение по ключу.
	Set(ctx context.Context, key, value string) error
	// Remove удаляет ключ.
	Remove(ctx context.Context, key string) error
}

// Store сериализует профиль пользователя в локальное key-value хранилище.
type Store struct {
	kv KV
}

// New создает Store поверх переданного key-value хранилища.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Save записывает профиль пользователя, предварительно удалив хэш пароля.
// Предыдущая запись затирается: сессия на устройстве всегда одна.
func (s *Store) Save(ctx context.Context, user models.User) error {
	const op = "sessionstore.Save"

	raw, err := json.Marshal(user.Sanitized())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.kv.Set(ctx, sessionKey, string(raw)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Load возвращает сохранённый профиль или nil, nil, если сессии нет.
// Отсутствие сессии — не ошибка: вызывающий код трактует его
// как "не аутентифицирован".
func (s *Store) Load(ctx context.Context) (*models.User, error) {
	const op = "sessionstore.Load"

	raw, found, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// Clear удаляет запись сессии (выход из системы).
func (s *Store) Clear(ctx context.Context) error {
	const op = "sessionstore.Clear"

	if err := s.kv.Remove(ctx, sessionKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
