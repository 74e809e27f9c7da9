package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxUserNameLen — лимит длины отображаемого имени (в рунах, не байтах).
const MaxUserNameLen = 15

type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ValidateUserName проверяет имя на границе стора, до записи.
func ValidateUserName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxUserNameLen {
		return ErrNameTooLong
	}
	return nil
}
