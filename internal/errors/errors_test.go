package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewColumnNotFound("Select", "age")
	assert.Equal(t, `Select failed on "age": column does not exist`, err.Error())

	err = NewInvalidInput("Concat", "column sets differ")
	assert.Equal(t, "Concat failed: column sets differ", err.Error())
}

func TestSentinelMatching(t *testing.T) {
	assert.ErrorIs(t, NewNotFound("FindByVersionName", "raw_1.0"), ErrNotFound)
	assert.ErrorIs(t, NewValidation("FindByVersionName", "raw_1.0", "wrong tag"), ErrValidation)
	assert.ErrorIs(t, NewHashMismatch("FindValidated", "raw_1.0", "aa", "bb"), ErrHashMismatch)
	assert.ErrorIs(t, NewColumnNotFound("Select", "age"), ErrColumnNotFound)

	assert.NotErrorIs(t, NewNotFound("op", "key"), ErrValidation)
}

func TestSentinelMatchingThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading upstream: %w", NewHashMismatch("FindValidated", "raw_1.0", "aa", "bb"))

	assert.True(t, IsHashMismatch(err))
	assert.False(t, IsNotFound(err))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := NewInternal("Append", cause)

	assert.ErrorIs(t, err, cause)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not found", KindNotFound.String())
	assert.Equal(t, "hash mismatch", KindHashMismatch.String())
	assert.Equal(t, "validation failed", KindValidation.String())
}
