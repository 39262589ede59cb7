package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCodeWalksTheChain(t *testing.T) {
	inner := New(CodeNotFound, "application not found")
	outer := Wrap(inner, CodeInternal, "load application")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOfUsesOutermost(t *testing.T) {
	err := Wrap(New(CodeNotFound, "x"), CodeConflict, "y")
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, "y", MessageOf(err))
	assert.Empty(t, MessageOf(errors.New("plain")))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCausePreserved(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(fmt.Errorf("dial: %w", cause), CodeUnavailable, "storage down")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unavailable: storage down")
}
