package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// notifyChannel — канал pg_notify, в который триггер публикует имя коллекции
// изменённого документа. Должен совпадать с миграцией.
const notifyChannel = "documents_changed"

// Storage инкапсулирует соединение с PostgreSQL и реализует Store
// поверх одной таблицы documents (collection, id, data jsonb).
type Storage struct {
	DB         *sql.DB
	connString string
}

// New создаёт подключение к PostgreSQL с ограниченным числом повторов.
func New(connString string) (*Storage, error) {
	const op = "storage.New"
	const connectAttempts = 5

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for attempt := 1; ; attempt++ {
		err = db.PingContext(context.Background())
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}

	return &Storage{
		DB:         db,
		connString: connString,
	}, nil
}

// retryAttempts ограничивает число повторов операции при сетевых сбоях.
const retryAttempts = 3

// withRetry повторяет fn с нарастающей паузой, пока ошибка остаётся сетевой.
// Прочие ошибки (ErrNotFound, нарушения ограничений) возвращаются сразу.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || attempt == retryAttempts || !isTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'documents'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table documents missing or query error: %w", err)
	}
	return nil
}

// List возвращает все документы коллекции.
func (s *Storage) List(ctx context.Context, collection string) ([]Document, error) {
	const op = "storage.List"

	query := `SELECT id, data FROM documents WHERE collection = $1`
	var result []Document
	err := withRetry(ctx, func() error {
		rows, err := s.DB.QueryContext(ctx, query, collection)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer func() { _ = rows.Close() }()
		result, err = scanDocuments(op, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get возвращает документ по id или ErrNotFound.
func (s *Storage) Get(ctx context.Context, collection, id string) (*Document, error) {
	const op = "storage.Get"

	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	err := withRetry(ctx, func() error {
		return s.DB.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc := Document{ID: id}
	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &doc, nil
}

// Query возвращает документы с точным совпадением значения поля.
// Поле может быть путём через точку, например "subscribedBatches.b1".
func (s *Storage) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	const op = "storage.Query"

	query := `SELECT id, data FROM documents
			  WHERE collection = $1 AND data #>> $2::text[] = $3`
	var result []Document
	err := withRetry(ctx, func() error {
		rows, err := s.DB.QueryContext(ctx, query, collection, pgTextPath(field), value)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer func() { _ = rows.Close() }()
		result, err = scanDocuments(op, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryIn возвращает документы, у которых поле равно одному из значений.
// Удалённое хранилище ограничивает такой запрос десятью значениями,
// поэтому длинные списки разбиваются на части здесь.
func (s *Storage) QueryIn(ctx context.Context, collection, field string, values []string) ([]Document, error) {
	const op = "storage.QueryIn"

	var result []Document
	for start := 0; start < len(values); start += QueryChunkSize {
		end := start + QueryChunkSize
		if end > len(values) {
			end = len(values)
		}
		chunk := values[start:end]

		query := `SELECT id, data FROM documents
				  WHERE collection = $1 AND data #>> $2::text[] = ANY($3::text[])`
		var docs []Document
		err := withRetry(ctx, func() error {
			rows, err := s.DB.QueryContext(ctx, query, collection, pgTextPath(field), pgTextArray(chunk))
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			defer func() { _ = rows.Close() }()
			docs, err = scanDocuments(op, rows)
			return err
		})
		if err != nil {
			return nil, err
		}
		result = append(result, docs...)
	}
	return result, nil
}

// Create создает документ с серверным id и серверной датой создания.
func (s *Storage) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	const op = "storage.Create"

	if fields == nil {
		fields = map[string]any{}
	}
	if _, ok := fields["createdAt"]; !ok {
		fields["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Id генерируется заранее, поэтому повтор вставки после сетевого сбоя
	// не создаст дубликат: повторная попытка упрётся в первичный ключ.
	id := uuid.New().String()
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	err = withRetry(ctx, func() error {
		_, err := s.DB.ExecContext(ctx, query, collection, id, raw)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Merge вливает поля в документ, не трогая остальные поля.
// Отсутствующий документ создаётся: так ведут себя синглтоны settings,
// которые пишутся слиянием по фиксированному id.
func (s *Storage) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	const op = "storage.Merge"

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			  ON CONFLICT (collection, id)
			  DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
	err = withRetry(ctx, func() error {
		_, err := s.DB.ExecContext(ctx, query, collection, id, raw)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MergeIfAbsent атомарно записывает значение по пути, только если его там нет.
// Одним UPDATE закрывается гонка "прочитал-проверил-записал" при двух
// одновременных подписках одного пользователя.
func (s *Storage) MergeIfAbsent(ctx context.Context, collection, id string, path []string, value any) (bool, error) {
	const op = "storage.MergeIfAbsent"

	if len(path) == 0 {
		return false, fmt.Errorf("%s: empty path", op)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	fullPath := pgTextArray(path)
	var result sql.Result
	if len(path) == 1 {
		query := `UPDATE documents
				  SET data = jsonb_set(data, $3::text[], $4::jsonb, true), updated_at = now()
				  WHERE collection = $1 AND id = $2 AND data #> $3::text[] IS NULL`
		result, err = s.DB.ExecContext(ctx, query, collection, id, fullPath, raw)
	} else {
		parentPath := pgTextArray(path[:len(path)-1])
		query := `UPDATE documents
				  SET data = jsonb_set(
						jsonb_set(data, $3::text[], COALESCE(data #> $3::text[], '{}'::jsonb), true),
						$4::text[], $5::jsonb, true),
					  updated_at = now()
				  WHERE collection = $1 AND id = $2 AND data #> $4::text[] IS NULL`
		result, err = s.DB.ExecContext(ctx, query, collection, id, parentPath, fullPath, raw)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if affected > 0 {
		return true, nil
	}

	// Ничего не обновили: либо значение уже есть, либо документа нет.
	var exists bool
	probe := `SELECT (data #> $3::text[]) IS NOT NULL FROM documents
			  WHERE collection = $1 AND id = $2`
	err = s.DB.QueryRowContext(ctx, probe, collection, id, fullPath).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return false, nil
}

// Delete удаляет документ. Отсутствующий документ не считается ошибкой.
func (s *Storage) Delete(ctx context.Context, collection, id string) error {
	const op = "storage.Delete"

	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	err := withRetry(ctx, func() error {
		_, err := s.DB.ExecContext(ctx, query, collection, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Changes подписывается на уведомления триггера и отдаёт имена изменившихся
// коллекций. Для LISTEN используется отдельное нативное соединение pgx.
func (s *Storage) Changes(ctx context.Context) (<-chan string, error) {
	const op = "storage.Changes"

	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer func() { _ = conn.Close(context.Background()) }()
		for {
			notification, err := conn.WaitForNotification(ctx)
			if err != nil {
				return
			}
			select {
			case ch <- notification.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func scanDocuments(op string, rows *sql.Rows) ([]Document, error) {
	var result []Document
	for rows.Next() {
		var (
			doc Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// pgTextPath превращает путь через точку в литерал text[] для операторов #> и #>>.
func pgTextPath(field string) string {
	return pgTextArray(strings.Split(field, "."))
}

func pgTextArray(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
