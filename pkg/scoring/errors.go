package scoring

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the scoring engine. pkg/api maps these to
// HTTP status codes in one place (see pkg/api/errors.go).
var (
	// ErrNotFound is returned when a competition, problem or participant
	// lookup fails.
	ErrNotFound = errors.New("entity not found")

	// ErrTerminated is returned when a write action targets a participant
	// whose is_running is already false (I5).
	ErrTerminated = errors.New("participant is terminated")

	// ErrCompetitionEnded is returned when a write action targets a
	// competition whose end has been declared (I6).
	ErrCompetitionEnded = errors.New("competition has ended")
)

// ValidationError wraps a field-specific input validation failure (4xx).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// NewValidationError constructs a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// BudgetError is returned when an action's token cost exceeds a
// participant's remaining budget (§4.6 "fail if remaining_tokens < cost").
type BudgetError struct {
	Cost      int
	Remaining int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("insufficient tokens: cost %d exceeds remaining %d", e.Cost, e.Remaining)
}

// NewBudgetError constructs a *BudgetError.
func NewBudgetError(cost, remaining int) error {
	return &BudgetError{Cost: cost, Remaining: remaining}
}
