package models

// Id синглтон-документов в коллекции settings.
const (
	SettingAnnouncement = "announcement"
	SettingContact      = "contact"
)

// Announcement — объявление на главном экране. Редактируется только
// администратором, читается всеми.
type Announcement struct {
	Title   string `json:"title"`   // Заголовок объявления
	Message string `json:"message"` // Текст объявления
}

// Contact — контактные данные учебного центра.
type Contact struct {
	Name      string `json:"name"`      // Название организации
	Line1     string `json:"line1"`     // Адресная строка 1
	Line2     string `json:"line2"`     // Адресная строка 2
	CityState string `json:"cityState"` // Город и регион
	Pincode   string `json:"pincode"`   // Почтовый индекс
	Phone     string `json:"phone"`     // Телефон
	Email     string `json:"email"`     // Электронная почта
}

// DummyAnnouncement используется для приёма объявления из JSON-запроса.
type DummyAnnouncement struct {
	Title   string `json:"title" validate:"required,max=200"`    // Заголовок
	Message string `json:"message" validate:"required,max=2000"` // Текст
}

// DummyContact используется для приёма контактных данных из JSON-запроса.
type DummyContact struct {
	Name      string `json:"name" validate:"required,max=200"`                 // Название организации
	Line1     string `json:"line1" validate:"omitempty,max=200"`               // Адресная строка 1
	Line2     string `json:"line2" validate:"omitempty,max=200"`               // Адресная строка 2
	CityState string `json:"city_state" validate:"omitempty,max=200"`          // Город и регион
	Pincode   string `json:"pincode" validate:"omitempty,numeric,max=10"`      // Почтовый индекс
	Phone     string `json:"phone" validate:"omitempty,numeric,min=10,max=15"` // Телефон
	Email     string `json:"email" validate:"omitempty,email"`                 // Электронная почта
}
