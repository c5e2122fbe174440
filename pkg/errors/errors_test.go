package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeIndexFormat, "invalid magic"),
			expected: "[INDEX_FORMAT_ERROR] invalid magic",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIndexOpen, "open failed", errors.New("permission denied")),
			expected: "[INDEX_OPEN_ERROR] open failed: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeIndexTruncation, "truncated", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeIndexOpen, "error 1")
	err2 := New(CodeIndexOpen, "error 2")
	err3 := New(CodePlanOpen, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsIndexOpenError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "index open error", err: ErrIndexOpen, expected: true},
		{
			name:     "wrapped index open error",
			err:      Wrap(CodeIndexOpen, "open failed", errors.New("not found")),
			expected: true,
		},
		{name: "other error", err: ErrIndexFormat, expected: false},
		{name: "nil error", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsIndexOpenError(tt.err))
		})
	}
}

func TestIsIndexFormatError(t *testing.T) {
	assert.True(t, IsIndexFormatError(ErrIndexFormat))
	assert.False(t, IsIndexFormatError(ErrIndexOpen))
}

func TestIsIndexTruncationError(t *testing.T) {
	assert.True(t, IsIndexTruncationError(ErrIndexTruncation))
	assert.False(t, IsIndexTruncationError(ErrIndexOpen))
}

func TestIsPlanOpenError(t *testing.T) {
	assert.True(t, IsPlanOpenError(ErrPlanOpen))
	assert.False(t, IsPlanOpenError(ErrIndexOpen))
}

func TestIsIncompatibleQueryError(t *testing.T) {
	assert.True(t, IsIncompatibleQueryError(ErrIncompatibleQuery))
	assert.False(t, IsIncompatibleQueryError(ErrIndexOpen))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeIndexOpen, "open error"),
			expected: CodeIndexOpen,
		},
		{
			name:     "wrapped app error",
			err:      Wrap(CodePlanOpen, "plan missing", errors.New("inner")),
			expected: CodePlanOpen,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: CodeUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeIndexOpen, "cannot open index file"),
			expected: "cannot open index file",
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: "standard error",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}
