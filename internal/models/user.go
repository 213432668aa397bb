// Package models содержит доменные структуры учебного центра: пользователей,
// потоки (batch), курсы и настройки, а также вспомогательные типы для приёма
// данных из JSON-запросов до их валидации.
package models

import (
	"github.com/magabrotheeeer/institute-app/internal/lib/timestamp"
)

// Имена коллекций удалённого документного хранилища.
const (
	UsersCollection    = "users"
	BatchesCollection  = "batches"
	CoursesCollection  = "courses"
	SettingsCollection = "settings"
)

// Роли пользователей.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User представляет зарегистрированного пользователя системы.
//
// PasswordHash хранится только в удалённом документе, перед сохранением
// в локальное хранилище сессии поле обнуляется.
type User struct {
	ID                string                  `json:"id,omitempty"`                // Id документа пользователя
	Email             string                  `json:"email"`                       // Электронная почта
	Name              string                  `json:"name"`                        // Имя
	Mobile            string                  `json:"mobile"`                      // Номер телефона
	Address           string                  `json:"address,omitempty"`           // Адрес
	Role              string                  `json:"role"`                        // Роль: student или admin
	PasswordHash      string                  `json:"password,omitempty"`          // Хэш пароля (только на сервере)
	SubscribedBatches map[string]Subscription `json:"subscribedBatches,omitempty"` // batchID -> запись о подписке
	MyCourses         map[string]Purchase     `json:"myCourses,omitempty"`         // courseID -> запись о покупке
	CreatedAt         timestamp.Time          `json:"createdAt,omitzero"`          // Дата регистрации
}

// Subscription — запись в карте subscribedBatches пользователя.
type Subscription struct {
	SubscribedOn timestamp.Time `json:"subscribedOn"` // Момент подписки на поток
}

// Purchase — запись в карте myCourses пользователя.
type Purchase struct {
	PurchasedOn timestamp.Time `json:"purchasedOn"` // Момент покупки курса
}

// Sanitized возвращает копию пользователя без хэша пароля.
// Только такая копия может попасть в локальное хранилище сессии.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса
// до их валидации и преобразования в User.
type DummyRegister struct {
	Email           string `json:"email" validate:"required,email"`                       // Электронная почта
	Name            string `json:"name" validate:"required,min=2,max=100"`                // Имя
	Mobile          string `json:"mobile" validate:"required,numeric,min=10,max=15"`      // Номер телефона
	Address         string `json:"address" validate:"omitempty,max=300"`                  // Адрес (опционально)
	Password        string `json:"password" validate:"required,min=6"`                    // Пароль
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"` // Подтверждение пароля
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
// Identifier — email или номер телефона.
type DummyLogin struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=100"` // Email или телефон
	Password   string `json:"password" validate:"required,min=6"`           // Пароль
}

// DummyProfileUpdate используется для приёма изменений профиля из JSON-запроса.
type DummyProfileUpdate struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`           // Имя
	Mobile  string `json:"mobile" validate:"required,numeric,min=10,max=15"` // Номер телефона
	Address string `json:"address" validate:"omitempty,max=300"`             // Адрес
}
