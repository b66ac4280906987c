package service

import (
	"errors"
	"fmt"

	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"gorm.io/gorm"
)

// Sentinel errors. Handlers map them onto HTTP status codes; wrap them with
// fmt.Errorf("%w: ...") to add detail.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrExternalSource     = errors.New("external source unavailable")
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is a validation failure on a single input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

func (e *FieldError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error { return &FieldError{Field: field, Reason: reason} }

// notFound maps gorm.ErrRecordNotFound onto ErrNotFound and passes anything
// else through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if errors.Is(err, repository.ErrStatusMismatch) {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}
	return err
}

// isUniqueViolation reports a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState() == "23505"
	}
	return false
}
