// Package inmem реализует документное хранилище в памяти с той же семантикой,
// что и реализация на PostgreSQL. Используется в тестах наблюдателя коллекций,
// сервисов и сквозных сценариев.
package inmem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// Store — потокобезопасное хранилище документов в памяти.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	listeners   map[int]chan string
	nextID      int
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		listeners:   make(map[int]chan string),
	}
}

// List возвращает все документы коллекции.
func (s *Store) List(_ context.Context, collection string) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []storage.Document
	for id, fields := range s.collections[collection] {
		result = append(result, storage.Document{ID: id, Fields: cloneFields(fields)})
	}
	return result, nil
}

// Get возвращает документ по id или storage.ErrNotFound.
func (s *Store) Get(_ context.Context, collection, id string) (*storage.Document, error) {
	const op = "inmem.Get"
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &storage.Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Query возвращает документы с точным совпадением значения поля.
func (s *Store) Query(_ context.Context, collection, field, value string) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []storage.Document
	for id, fields := range s.collections[collection] {
		if fieldAsString(fields, field) == value {
			result = append(result, storage.Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	return result, nil
}

// QueryIn возвращает документы, у которых поле равно одному из значений.
func (s *Store) QueryIn(ctx context.Context, collection, field string, values []string) ([]storage.Document, error) {
	var result []storage.Document
	for start := 0; start < len(values); start += storage.QueryChunkSize {
		end := start + storage.QueryChunkSize
		if end > len(values) {
			end = len(values)
		}
		for _, value := range values[start:end] {
			docs, err := s.Query(ctx, collection, field, value)
			if err != nil {
				return nil, err
			}
			result = append(result, docs...)
		}
	}
	return result, nil
}

// Create создает документ с серверным id и серверной датой создания.
func (s *Store) Create(_ context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	stored := cloneFields(fields)
	if stored == nil {
		stored = map[string]any{}
	}
	if _, ok := stored["createdAt"]; !ok {
		stored["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	id := uuid.New().String()
	s.collections[collection][id] = stored

	s.mu.Unlock()
	s.notify(collection)
	return id, nil
}

// Put записывает документ с заданным id, создавая его при необходимости.
// Удобно для сидирования тестовых данных и синглтонов settings.
func (s *Store) Put(_ context.Context, collection, id string, fields map[string]any) {
	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	s.collections[collection][id] = cloneFields(fields)
	s.mu.Unlock()
	s.notify(collection)
}

// Merge вливает поля в документ, создавая его при необходимости.
func (s *Store) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		doc = map[string]any{}
		s.collections[collection][id] = doc
	}
	for k, v := range cloneFields(fields) {
		doc[k] = v
	}

	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// MergeIfAbsent атомарно записывает значение по пути, только если его там нет.
func (s *Store) MergeIfAbsent(_ context.Context, collection, id string, path []string, value any) (bool, error) {
	const op = "inmem.MergeIfAbsent"
	if len(path) == 0 {
		return false, fmt.Errorf("%s: empty path", op)
	}
	s.mu.Lock()

	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	parent := doc
	for _, key := range path[:len(path)-1] {
		child, ok := parent[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			parent[key] = child
		}
		parent = child
	}
	leaf := path[len(path)-1]
	if _, exists := parent[leaf]; exists {
		s.mu.Unlock()
		return false, nil
	}
	parent[leaf] = cloneValue(value)

	s.mu.Unlock()
	s.notify(collection)
	return true, nil
}

// Delete удаляет документ. Отсутствующий документ не считается ошибкой.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.collections[collection], id)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// Changes возвращает ленту имён изменившихся коллекций.
func (s *Store) Changes(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	s.nextID++
	key := s.nextID
	ch := make(chan string, 64)
	s.listeners[key] = ch
	s.mu.Unlock()

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.listeners, key)
			s.mu.Unlock()
		}()
		for {
			select {
			case name := <-ch:
				select {
				case out <- name:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) notify(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.listeners {
		select {
		case ch <- collection:
		default:
		}
	}
}

// cloneFields делает глубокую копию через JSON, чтобы вызывающий код
// не мог править данные хранилища через разделяемые карты.
func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return map[string]any{}
	}
	var clone map[string]any
	if err := json.Unmarshal(raw, &clone); err != nil {
		return map[string]any{}
	}
	return clone
}

func cloneValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var clone any
	if err := json.Unmarshal(raw, &clone); err != nil {
		return v
	}
	return clone
}

func fieldAsString(fields map[string]any, path string) string {
	var current any = fields
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[key]
		if !ok {
			return ""
		}
	}
	switch val := current.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return strings.Trim(string(raw), `"`)
	}
}
