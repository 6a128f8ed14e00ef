package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrAuthExpired, "session gone")
	assert.True(t, errors.Is(err, ErrAuthExpired))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "session gone", err.Message)
	assert.Equal(t, "authentication expired, please log in again", ErrAuthExpired.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "missing"))
	assert.Equal(t, "NOT_FOUND", FromError(wrapped).Code)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Nil(t, FromError(nil))
}
