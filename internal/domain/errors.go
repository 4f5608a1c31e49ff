package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOfferNotFound signals that no offer exists for the given id.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrConflict signals that the offer row changed between load and save.
	// Safe to retry the whole operation.
	ErrConflict = errors.New("concurrent modification detected")
)

// ValidationError reports malformed input or a violated invariant. The message
// names the first violation found; the caller can fix the input and retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotAvailableError reports an operation that is illegal for the offer's
// current state or ownership. Retrying the same call will not help.
type NotAvailableError struct {
	Reason string
}

func (e *NotAvailableError) Error() string { return e.Reason }

func notAvailablef(format string, args ...any) error {
	return &NotAvailableError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientQuantityError reports demand exceeding the available quantity.
type InsufficientQuantityError struct {
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("not enough quantity available: requested %d, available %d", e.Requested, e.Available)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotAvailable reports whether err is a NotAvailableError.
func IsNotAvailable(err error) bool {
	var na *NotAvailableError
	return errors.As(err, &na)
}

// IsInsufficientQuantity reports whether err is an InsufficientQuantityError.
func IsInsufficientQuantity(err error) bool {
	var iq *InsufficientQuantityError
	return errors.As(err, &iq)
}
