package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResponseNotFound is returned when a submission record does not exist.
	ErrResponseNotFound = errors.New("response not found")
	// ErrUserNotFound is returned when the submitting user is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrValidation marks malformed input. Match with errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a failure of the underlying persistence layer. Match with errors.Is.
	ErrStore = errors.New("store failure")
)

// ValidationError describes why an input was rejected.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a persistence failure with the operation that produced it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStore turns a backend error into a StoreError. Domain errors pass through unchanged.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || errors.Is(err, ErrValidation) || errors.Is(err, ErrStore) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrResponseNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
