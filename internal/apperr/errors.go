// Package apperr defines the error categories shared by the messaging
// components. Callers branch on category with errors.Is; the concrete
// cause stays wrapped underneath.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks local pre-flight failures (bad file type or
	// size, empty send content). Never the result of network I/O.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthorized marks a send blocked by the mutual-follow gate.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrWrite marks a store-rejected write (send, read receipt,
	// presence, follow edge).
	ErrWrite = errors.New("write rejected")

	// ErrUpload marks a failed object-storage upload.
	ErrUpload = errors.New("upload failed")

	// ErrSubscription marks a live query that failed to establish or
	// dropped. Distinct from an empty result set.
	ErrSubscription = errors.New("subscription failed")

	ErrNotFound = errors.New("not found")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func Write(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrWrite)
}

func Upload(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrUpload)
}

func Subscription(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrSubscription)
}
