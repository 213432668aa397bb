// Package timestamp нормализует значения "момент времени", приходящие из
// удалённого документного хранилища.
//
// Поле с датой может прийти в одном из четырёх форматов: строка RFC3339/ISO,
// число миллисекунд эпохи, объект {"seconds": n} или {"_seconds": n}.
// Вся работа с датами в системе проходит через Normalize, поэтому остальной
// код видит только time.Time.
package timestamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownShape возвращается, когда значение не похоже ни на один
// из поддерживаемых форматов времени.
var ErrUnknownShape = errors.New("unknown timestamp shape")

// Normalize приводит значение произвольного поддерживаемого формата к time.Time в UTC.
//
// Поддерживаются: time.Time, строка (RFC3339, RFC3339Nano, "2006-01-02"),
// число миллисекунд эпохи (float64/int64/json.Number после декодирования JSON)
// и объекты {"seconds": n[, "nanos": m]} / {"_seconds": n}.
func Normalize(v any) (time.Time, error) {
	const op = "timestamp.Normalize"

	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string:
		return parseString(val)
	case float64:
		return fromEpochMillis(int64(val)), nil
	case int64:
		return fromEpochMillis(val), nil
	case int:
		return fromEpochMillis(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		return fromEpochMillis(n), nil
	case map[string]any:
		return fromSecondsObject(val)
	}
	return time.Time{}, fmt.Errorf("%s: %w: %T", op, ErrUnknownShape, v)
}

// DateString возвращает дату в виде строки формата "Mon Jan 2 2006".
// Неразборчивые значения дают пустую строку, как и в исходном приложении.
func DateString(v any) string {
	t, err := Normalize(v)
	if err != nil {
		return ""
	}
	return t.Format("Mon Jan 2 2006")
}

// TimeString возвращает время в виде строки "15:04".
// Неразборчивые значения дают пустую строку.
func TimeString(v any) string {
	t, err := Normalize(v)
	if err != nil {
		return ""
	}
	return t.Format("15:04")
}

// Time — обёртка над time.Time, принимающая при декодировании JSON любой
// из поддерживаемых форматов. Сериализуется всегда в RFC3339 (UTC).
// Используется во всех моделях на границе с документным хранилищем.
type Time struct {
	time.Time
}

// New создаёт Time из time.Time (в UTC).
func New(t time.Time) Time {
	return Time{Time: t.UTC()}
}

// UnmarshalJSON декодирует любой из четырёх форматов момента времени.
// Литерал null даёт нулевое значение.
func (t *Time) UnmarshalJSON(data []byte) error {
	const op = "timestamp.UnmarshalJSON"
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	parsed, err := Normalize(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON сериализует значение в строку RFC3339 в UTC.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func parseString(s string) (time.Time, error) {
	const op = "timestamp.parseString"
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownShape, s)
}

func fromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromSecondsObject(obj map[string]any) (time.Time, error) {
	const op = "timestamp.fromSecondsObject"
	for _, key := range []string{"seconds", "_seconds"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		secs, err := toInt64(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		var nanos int64
		if rawNanos, ok := obj["nanos"]; ok {
			if nanos, err = toInt64(rawNanos); err != nil {
				return time.Time{}, fmt.Errorf("%s: %w", op, err)
			}
		}
		return time.Unix(secs, nanos).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s: %w", op, ErrUnknownShape)
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case float64:
		return int64(val), nil
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case json.Number:
		return val.Int64()
	}
	return 0, fmt.Errorf("%w: %T", ErrUnknownShape, v)
}
