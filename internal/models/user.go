package models

import "time"

// User зарегистрированный пользователь, хранится поставщиком идентификации.
type User struct {
	UUID         string
	Email        string
	DisplayName  string
	PhotoURL     string
	PasswordHash string
	CreatedAt    time.Time
}

// Ref возвращает непрозрачную ссылку на пользователя без секретов.
func (u *User) Ref() *UserRef {
	return &UserRef{
		ID:          u.UUID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PhotoURL:    u.PhotoURL,
	}
}

// UserRef данные аутентифицированного пользователя, которые видит остальное приложение.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required"`
	PhotoURL    string `json:"photo_url,omitempty" validate:"omitempty,url"`
	Password    string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
