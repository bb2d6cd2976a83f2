package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

const (
	maxNameLength  = 100
	maxTitleLength = 200
)

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return domain.Invalid("name", "is required")
	}
	if n > maxNameLength {
		return domain.Invalid("name", "must be at most 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return domain.Invalid("email", "is not a valid address")
	}
	return nil
}
