package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrTermNotFound, "term 2026-1 not found")
	assert.True(t, errors.Is(err, ErrTermNotFound))
	assert.False(t, errors.Is(err, ErrNoTermAvailable))
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "term 2026-1 not found", err.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("outer: %w", ErrGenerationInProgress)
	assert.Equal(t, ErrGenerationInProgress.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp"), ErrInternal.Code, ErrInternal.Status, "failed to load classes")
	assert.Equal(t, "failed to load classes: dial tcp", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "dial tcp")
}
