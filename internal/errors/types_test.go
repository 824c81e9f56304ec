package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaygroundErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *PlaygroundError
		want string
	}{
		{
			name: "code and message",
			err:  NewValidationError("BAD_LANGUAGE", "unsupported language"),
			want: "[BAD_LANGUAGE] unsupported language",
		},
		{
			name: "with cause",
			err:  NewStorageError("KV_WRITE", "save failed", errors.New("disk full")),
			want: "[KV_WRITE] save failed: disk full",
		},
		{
			name: "no code",
			err:  &PlaygroundError{Message: "plain"},
			want: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPlaygroundErrorIsAndAs(t *testing.T) {
	sentinel := NewNotFoundError("TEMPLATE_NOT_FOUND", "")
	err := fmt.Errorf("loading: %w", NewNotFoundError("TEMPLATE_NOT_FOUND", "template nope not found"))

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsType(err, ErrorTypeStorage))

	var pe *PlaygroundError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "TEMPLATE_NOT_FOUND", pe.Code)
}

func TestUnwrapAndRecoverable(t *testing.T) {
	cause := errors.New("root")
	err := NewInternalError("X", "wrapped", cause)

	assert.Same(t, cause, errors.Unwrap(err))
	assert.False(t, IsRecoverable(err))
	assert.True(t, IsRecoverable(NewSandboxError("S", "s", nil)))
	assert.False(t, IsRecoverable(errors.New("plain")))
}

func TestWithContext(t *testing.T) {
	err := NewConfigError("PORT", "bad port").WithContext("port", 70000)
	assert.Equal(t, 70000, err.Context["port"])
}

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, WrapStorage(nil, "X", "x"))

	err := WrapStorage(errors.New("locked"), "KV_READ", "read failed")
	assert.True(t, IsType(err, ErrorTypeStorage))
	assert.Contains(t, err.Error(), "locked")
}

func TestStdlibPassthroughs(t *testing.T) {
	base := errors.New("base")
	wrapped := fmt.Errorf("outer: %w", NewSandboxError("S", "s", base))

	assert.True(t, Is(wrapped, base))

	var pe *PlaygroundError
	assert.True(t, As(wrapped, &pe))
	assert.Equal(t, ErrorTypeSandbox, pe.Type)
}
