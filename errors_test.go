package minifs_test

import (
	"errors"
	"testing"

	"minifs"

	"github.com/stretchr/testify/assert"
)

func TestErrorWithMessage(t *testing.T) {
	newErr := minifs.ErrNoSpaceOnVolume.WithMessage("need 12 blocks, have 3")
	assert.Equal(
		t,
		"No space left on volume: need 12 blocks, have 3",
		newErr.Error(),
		"error message is wrong")
	assert.ErrorIs(t, newErr, minifs.ErrNoSpaceOnVolume)
}

func TestErrorWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := minifs.ErrAllocationFailed.Wrap(originalErr)
	expectedMessage := "Block allocation failed: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, minifs.ErrAllocationFailed, "sentinel not set as parent")
}

func TestErrorWithMessageStacks(t *testing.T) {
	newErr := minifs.ErrNotFound.WithMessage("f.txt").WithMessage("while copying")
	assert.Equal(t, "No such file or directory: f.txt: while copying", newErr.Error())
	assert.ErrorIs(t, newErr, minifs.ErrNotFound)
}
