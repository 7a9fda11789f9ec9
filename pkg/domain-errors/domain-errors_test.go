package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndHasCode(t *testing.T) {
	err := New(CodeNotFound, "user not found")

	assert.Equal(t, "user not found", err.Error())
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestErrorMessageFallsBackToCode(t *testing.T) {
	err := New(CodeTimeout, "")
	assert.Equal(t, "timeout", err.Error())
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(CodeUnauthorized, "invalid credentials")
	wrapped := Wrap(inner, CodeInternal, "authenticate")

	assert.True(t, HasCode(wrapped, CodeUnauthorized), "wrapping must not mask the original code")
	assert.True(t, errors.Is(wrapped, inner))
}

func TestWrapPlainError(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := Wrap(inner, CodeInternal, "query store")

	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, inner)
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "username taken"))
	assert.True(t, HasCode(err, CodeConflict))
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeValidation, "first")
	b := New(CodeValidation, "second")
	assert.True(t, errors.Is(a, b))

	c := New(CodeInternal, "other")
	assert.False(t, errors.Is(a, c))
}
