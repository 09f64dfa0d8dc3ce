package services

import (
	"errors"
	"fmt"

	"github.com/baharkarakas/copywriter-backend/internal/models"
)

var (
	// Validation
	ErrMissingPrompt      = errors.New("please provide a prompt")
	ErrInvalidContentType = errors.New("unknown content type")
	ErrInvalidAmount      = errors.New("amount must be > 0")

	// Ownership
	ErrNotFound  = errors.New("generation not found")
	ErrForbidden = errors.New("not authorized to access this generation")

	ErrInsufficientBalance = errors.New("insufficient tokens")
)

// InsufficientBalanceError reports the balance that was too low and what the
// operation needed. It matches ErrInsufficientBalance under errors.Is.
type InsufficientBalanceError struct {
	Remaining int64
	Required  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient tokens: have %d, need %d", e.Remaining, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// GenerationError wraps a content backend failure. The cause stays reachable
// through errors.Is / errors.As (generator.ErrRateLimited, generator.ErrBackend).
type GenerationError struct {
	ContentType models.ContentType
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.ContentType, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsValidation reports whether err was raised before any work was attempted.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingPrompt) ||
		errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrInvalidAmount)
}
