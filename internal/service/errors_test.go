package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{invalid("guests", "must be at least 1"), KindValidation},
		{fmt.Errorf("%w: pending -> completed", ErrInvalidTransition), KindValidation},
		{ErrFileSizeExceeded, KindValidation},
		{ErrInvalidCredentials, KindUnauthenticated},
		{ErrUnauthenticated, KindUnauthenticated},
		{fmt.Errorf("%w: owners cannot book", ErrForbidden), KindForbidden},
		{ErrAccountBlocked, KindForbidden},
		{ErrBookingNotFound, KindNotFound},
		{ErrDateConflict, KindConflict},
		{ErrDuplicateReview, KindConflict},
		{ErrUserAlreadyExists, KindConflict},
		{errors.New("connection refused"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "check_out: must be after check_in", invalid("check_out", "must be after check_in").Error())
	assert.Equal(t, "bad input", (&ValidationError{Message: "bad input"}).Error())
}
