package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrHabitNotFound      = fmt.Errorf("habit %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrNotDue             = errors.New("habit is not due on the requested date")
	ErrFutureDate         = errors.New("date is in the future")
	ErrConflict           = errors.New("conflicting ledger record")
	ErrInvalidInput       = errors.New("invalid power engine input")
	ErrInvalidPolicy      = errors.New("invalid scoring policy")
	ErrInvariantViolation = errors.New("ledger invariant violation")
	ErrUserHalted         = fmt.Errorf("user ledger halted: %w", ErrInvariantViolation)
	ErrConcurrentUpdate   = errors.New("concurrent ledger update")
	ErrLockUnavailable    = errors.New("user lock unavailable")
)
