package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// MaxEmailLen максимальная длина email (RFC 5321)
const MaxEmailLen = 254

// Error is returned when input is rejected before any network call
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateEmail проверяет email, которым пользователь входит в панель
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &Error{Field: "email", Reason: "email cannot be empty"}
	}

	if len(email) > MaxEmailLen {
		return &Error{Field: "email", Reason: fmt.Sprintf("email must not exceed %d characters", MaxEmailLen)}
	}

	addr, err := mail.ParseAddress(email)
	// ParseAddress принимает "Name <a@b>", нам нужен только голый адрес
	if err != nil || addr.Address != email {
		return &Error{Field: "email", Reason: "email must look like name@example.com"}
	}

	return nil
}

// ValidatePassword проверяет что пароль указан.
// Политику паролей задаёт сервер, клиент её не дублирует.
func ValidatePassword(password string) error {
	if password == "" {
		return &Error{Field: "password", Reason: "password cannot be empty"}
	}
	return nil
}
