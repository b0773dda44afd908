// Package smtp открывает SMTP-сессии для отправки уведомлений.
package smtp

import (
	"errors"
	"io"
)

var (
	// ErrNotConfigured в конфиге не задан адрес SMTP-сервера.
	ErrNotConfigured = errors.New("smtp host is not configured")
	// ErrNoStartTLS сервер не поддерживает STARTTLS, а он обязателен.
	ErrNoStartTLS = errors.New("smtp server does not support STARTTLS")
	// ErrNoAuth сервер не объявил AUTH, хотя в конфиге задан пароль.
	ErrNoAuth = errors.New("smtp server does not support AUTH")
)

// Client SMTP-сессия после рукопожатия. *smtp.Client удовлетворяет ему напрямую.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает сессии и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
