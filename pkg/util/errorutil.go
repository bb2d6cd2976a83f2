package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts service and store errors to a DomainError.
// Anything unrecognised is reported as an internal error so store details never reach the client.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return NewDomainError("VALIDATION_FAILED", validationErr.Error(), http.StatusBadRequest,
			map[string]any{"field": validationErr.Field})
	case errors.Is(err, domain.ErrValidation):
		return NewDomainError("VALIDATION_FAILED", "invalid request", http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return NewDomainError("INVALID_OR_EXPIRED_TOKEN", "reset link is invalid or has expired", http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return NewDomainError("UNAUTHORIZED", "authentication required", http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrForbidden):
		return NewDomainError("FORBIDDEN", "insufficient role", http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrEmailTaken):
		return NewDomainError("CONFLICT", "email already registered", http.StatusConflict, nil)
	case errors.Is(err, domain.ErrNotFound):
		de, _ := NewNotFound("resource", nil).(*DomainError)
		return de
	}

	de, _ := NewInternalError(err).(*DomainError)
	return de
}

// fromFiberError covers framework errors such as unmatched routes and body parse failures.
func fromFiberError(err *fiber.Error) *DomainError {
	if err.Code >= http.StatusInternalServerError {
		de, _ := NewInternalError(err).(*DomainError)
		return de
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(err.Code), " ", "_"))
	if code == "" {
		code = "REQUEST_FAILED"
	}
	return NewDomainError(code, err.Message, err.Code, nil)
}
