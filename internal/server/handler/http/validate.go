package http

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/password"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

func validateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return models.NewValidationError("email", "value is not a valid email address")
	}
	return nil
}

func validatePassword(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return models.NewValidationError("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(plaintext) > password.MaxLength {
		return models.NewValidationError("password", "must be at most %d bytes", password.MaxLength)
	}
	return nil
}

func validateFullName(name string) error {
	if strings.TrimSpace(name) == "" {
		return models.NewValidationError("full_name", "must not be empty")
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return models.NewValidationError("title", "must not be empty")
	}
	if n > models.MaxTitleLength {
		return models.NewValidationError("title", "must be at most %d characters", models.MaxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if description == "" {
		return models.NewValidationError("description", "must not be empty")
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
