package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden          = errors.New("forbidden: user does not have permission for this action")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrUserAlreadyExists  = errors.New("user with this email or login already exists")

	ErrUserNotFound      = errors.New("user not found")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrBookingNotFound   = errors.New("booking not found")

	ErrDateConflict       = errors.New("apartment is already booked for the selected dates")
	ErrDuplicateReview    = errors.New("a review for this booking already exists")
	ErrApartmentHasOpen   = errors.New("apartment has pending or confirmed bookings")
	ErrBookingModified    = errors.New("booking was modified concurrently, reload and retry")
	ErrInvalidTransition  = errors.New("status transition is not allowed")
	ErrInvalidFileFormat  = errors.New("invalid file format. only .jpg, .jpeg, .png, .webp are allowed")
	ErrFileSizeExceeded   = errors.New("file size exceeds limit")
	ErrApartmentNotBooked = errors.New("apartment is not open for booking")
)

// Kind groups service errors for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	var ve *ValidationError
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &ve),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidFileFormat),
		errors.Is(err, ErrFileSizeExceeded),
		errors.Is(err, ErrApartmentNotBooked):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAccountBlocked):
		return KindForbidden
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrApartmentNotFound), errors.Is(err, ErrBookingNotFound):
		return KindNotFound
	case errors.Is(err, ErrDateConflict), errors.Is(err, ErrDuplicateReview),
		errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrApartmentHasOpen),
		errors.Is(err, ErrBookingModified):
		return KindConflict
	default:
		return KindInternal
	}
}
