// Package storage реализует границу с удалённым документным хранилищем.
//
// Хранилище системы записи — схемалесс: коллекции users, batches, courses и
// settings хранятся как JSON-документы. Пакет определяет контракт Store
// (точечные чтения, запросы на равенство, слияние полей, условная запись и
// лента изменений) и его реализацию на PostgreSQL (jsonb + LISTEN/NOTIFY).
// Реализация в памяти для тестов лежит в подпакете inmem.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound возвращается точечным чтением, когда документа нет.
// Вызывающий код обязан отличать отсутствие документа от ошибки хранилища.
var ErrNotFound = errors.New("document not found")

// QueryChunkSize — максимум значений в одном запросе "поле входит в список".
// Более длинные списки разбиваются на части на стороне клиента.
const QueryChunkSize = 10

// Document — документ коллекции: id плюс произвольные поля.
type Document struct {
	ID     string         // Id документа внутри коллекции
	Fields map[string]any // Поля документа в декодированном виде
}

// Decode раскладывает поля документа в структуру v через JSON.
// Id документа подставляется в поле с тегом "id".
func (d Document) Decode(v any) error {
	const op = "storage.Decode"
	fields := make(map[string]any, len(d.Fields)+1)
	for k, val := range d.Fields {
		fields[k] = val
	}
	fields["id"] = d.ID
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EncodeFields превращает структуру в карту полей документа.
// Поле id из результата исключается: id живёт в ключе документа.
func EncodeFields(v any) (map[string]any, error) {
	const op = "storage.EncodeFields"
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	delete(fields, "id")
	return fields, nil
}

// Store описывает операции удалённого документного хранилища,
// которыми пользуется остальная система.
type Store interface {
	// List возвращает все документы коллекции.
	List(ctx context.Context, collection string) ([]Document, error)
	// Get возвращает документ по id или ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query возвращает документы, у которых поле (допустим путь через точку)
	// в точности равно значению.
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	// QueryIn возвращает документы, у которых поле равно одному из значений.
	// Список значений разбивается на части по QueryChunkSize.
	QueryIn(ctx context.Context, collection, field string, values []string) ([]Document, error)
	// Create создает документ c серверным id и возвращает этот id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Merge вливает поля в документ, не трогая остальные поля.
	// Отсутствующий документ создаётся (семантика "записать со слиянием").
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// MergeIfAbsent атомарно записывает значение по пути, только если его там
	// ещё нет. Возвращает false, если значение уже существовало.
	MergeIfAbsent(ctx context.Context, collection, id string, path []string, value any) (bool, error)
	// Delete удаляет документ. Удаление отсутствующего документа не ошибка.
	Delete(ctx context.Context, collection, id string) error
	// Changes возвращает ленту имён коллекций, в которых что-то изменилось.
	// Канал закрывается при отмене контекста.
	Changes(ctx context.Context) (<-chan string, error)
}
