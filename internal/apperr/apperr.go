// Package apperr defines the error taxonomy shared by the record store client,
// the projection caches and the suggestion workflow. Every condition here is
// local and recoverable; callers match with errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed marks a record store read error. Caches keep their last
	// good snapshot when they see it.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrUpdateFailed marks a record store write error. State is untouched and
	// the caller may retry.
	ErrUpdateFailed = errors.New("update failed")
	// ErrInvalidStateTransition is returned when a workflow precondition does
	// not hold. Never retried automatically.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrScopeViolation is returned before any write when an actor targets a
	// location outside its scope.
	ErrScopeViolation = errors.New("scope violation")
	// ErrSubscription marks a dropped change-notification channel.
	ErrSubscription = errors.New("subscription error")

	ErrNotFound   = errors.New("not found")
	ErrTimeout    = errors.New("record store timeout")
	ErrValidation = errors.New("validation failed")
)

// Fetch wraps a read error as ErrFetchFailed, tagging deadline exhaustion as
// ErrTimeout as well.
func Fetch(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w: %w", op, ErrFetchFailed, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrFetchFailed, err)
}

// Update wraps a write error as ErrUpdateFailed, tagging deadline exhaustion
// as ErrTimeout as well.
func Update(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w: %w", op, ErrUpdateFailed, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpdateFailed, err)
}

// Transition builds an ErrInvalidStateTransition with context.
func Transition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidStateTransition, fmt.Sprintf(format, args...))
}

// Scope builds an ErrScopeViolation with context.
func Scope(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrScopeViolation, fmt.Sprintf(format, args...))
}

// Subscription wraps a notification channel failure.
func Subscription(table string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w: channel closed", table, ErrSubscription)
	}
	return fmt.Errorf("%s: %w: %w", table, ErrSubscription, err)
}

// Invalid builds an ErrValidation with context.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
