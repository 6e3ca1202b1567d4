package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated aborts an operation that has no acting user.
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskInactive      = errors.New("task is archived")
	ErrInsufficientFunds = errors.New("insufficient currency")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// PersistenceError reports a failed read or write to the store for one step of
// an operation. Steps after it may still have been applied.
type PersistenceError struct {
	Step string
	Err  error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// DifficultyError rejects a difficulty outside 1..4.
type DifficultyError struct {
	Value int
}

func (e DifficultyError) Error() string {
	return fmt.Sprintf("difficulty %d out of range 1..4", e.Value)
}
