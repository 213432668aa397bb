package models

import (
	"github.com/magabrotheeeer/institute-app/internal/lib/timestamp"
)

// Course представляет покупаемый курс, в отличие от потока занятий.
// Жизненным циклом курса управляет только администратор.
type Course struct {
	ID                   string         `json:"id,omitempty"`         // Id документа курса
	CourseName           string         `json:"courseName"`           // Название курса
	Description          string         `json:"description"`          // Описание
	Price                float64        `json:"price"`                // Цена
	Discount             float64        `json:"discount"`             // Скидка
	Duration             string         `json:"duration"`             // Продолжительность
	IsAvailableInDesktop bool           `json:"isAvailableInDesktop"` // Доступен ли в настольной версии
	Notes                string         `json:"notes,omitempty"`      // Примечания
	CreatedAt            timestamp.Time `json:"createdAt,omitzero"`   // Дата создания
}

// DummyCourse используется для приёма данных курса из JSON-запроса
// до их валидации и преобразования в Course.
type DummyCourse struct {
	CourseName           string  `json:"course_name" validate:"required,min=2,max=200"` // Название курса
	Description          string  `json:"description" validate:"required,max=2000"`      // Описание
	Price                float64 `json:"price" validate:"required,gt=0"`                // Цена (>0)
	Discount             float64 `json:"discount" validate:"gte=0"`                     // Скидка
	Duration             string  `json:"duration" validate:"required,max=50"`           // Продолжительность
	IsAvailableInDesktop bool    `json:"is_available_in_desktop"`                       // Доступен ли в настольной версии
	Notes                string  `json:"notes" validate:"omitempty,max=2000"`           // Примечания
}
