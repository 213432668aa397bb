package models

import (
	"github.com/magabrotheeeer/institute-app/internal/lib/timestamp"
)

// Статусы занятия потока. Допустимые переходы: scheduled -> started,
// started -> scheduled (остановка администратором) и переход в ended.
const (
	MeetingScheduled = "scheduled"
	MeetingStarted   = "started"
	MeetingEnded     = "ended"
)

// Batch представляет поток (когорту) занятий, на который может подписаться студент.
// Жизненным циклом потока управляет только администратор; записи о подписках
// студентов хранятся в документе пользователя, а не в потоке.
type Batch struct {
	ID            string         `json:"id,omitempty"`       // Id документа потока
	Topic         string         `json:"topic"`              // Тема занятий
	Description   string         `json:"description"`        // Описание
	Date          timestamp.Time `json:"date,omitzero"`      // Дата занятия
	Time          timestamp.Time `json:"time,omitzero"`      // Время занятия
	Duration      string         `json:"duration"`           // Продолжительность
	ZoomLink      string         `json:"zoomLink,omitempty"` // Ссылка на конференцию (непрозрачный URL)
	BatchSize     int            `json:"batchSize"`          // Максимальное число участников
	Fee           float64        `json:"fee"`                // Стоимость участия
	MeetingStatus string         `json:"meetingStatus"`      // Текущий статус занятия
	CreatedAt     timestamp.Time `json:"createdAt,omitzero"` // Дата создания
	UpdatedAt     timestamp.Time `json:"updatedAt,omitzero"` // Дата последнего изменения
}

// ValidMeetingTransition проверяет, допустим ли переход статуса занятия.
func ValidMeetingTransition(from, to string) bool {
	switch {
	case from == MeetingScheduled && to == MeetingStarted:
		return true
	case from == MeetingStarted && to == MeetingScheduled:
		return true
	case to == MeetingEnded && (from == MeetingScheduled || from == MeetingStarted):
		return true
	}
	return false
}

// DummyBatch используется для приёма данных потока из JSON-запроса
// до их валидации и преобразования в Batch. Даты приходят строками RFC3339.
type DummyBatch struct {
	Topic       string  `json:"topic" validate:"required,min=2,max=200"`  // Тема занятий
	Description string  `json:"description" validate:"required,max=2000"` // Описание
	Date        string  `json:"date" validate:"required"`                 // Дата занятия
	Time        string  `json:"time" validate:"required"`                 // Время занятия
	Duration    string  `json:"duration" validate:"required,max=50"`      // Продолжительность
	ZoomLink    string  `json:"zoom_link" validate:"omitempty,max=500"`   // Ссылка на конференцию
	BatchSize   int     `json:"batch_size" validate:"required,gt=0"`      // Максимальное число участников
	Fee         float64 `json:"fee" validate:"gte=0"`                     // Стоимость участия
}
