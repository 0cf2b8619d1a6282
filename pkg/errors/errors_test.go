package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidSizeSpec, "wrong size: %s", "abc")

	if err.Code != ErrCodeInvalidSizeSpec {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidSizeSpec)
	}

	if err.Message != "wrong size: abc" {
		t.Errorf("Message = %v, want %v", err.Message, "wrong size: abc")
	}

	expected := "INVALID_SIZE_SPEC: wrong size: abc"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRender, cause, "failed to render")

	if err.Code != ErrCodeRender {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRender)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidConfig, "test"),
			code:     ErrCodeInvalidConfig,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidConfig, "test"),
			code:     ErrCodeRender,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeRender, New(ErrCodeUnsupportedFormat, "inner"), "outer"),
			code:     ErrCodeUnsupportedFormat,
			expected: true,
		},
		{
			name:     "typed enlargement error",
			err:      fmt.Errorf("stage: %w", &EnlargementError{File: "a.png"}),
			code:     ErrCodeEnlargement,
			expected: true,
		},
		{
			name:     "typed unused config error",
			err:      &UnusedConfigError{Names: []string{"a.png"}},
			code:     ErrCodeUnusedConfig,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeUnmatchedImage, "test"),
			expected: ErrCodeUnmatchedImage,
		},
		{
			name:     "outermost wins",
			err:      Wrap(ErrCodeRender, &EnlargementError{}, "outer"),
			expected: ErrCodeRender,
		},
		{
			name:     "typed error",
			err:      &EnlargementError{},
			expected: ErrCodeEnlargement,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEnlargementError(t *testing.T) {
	t.Run("width only", func(t *testing.T) {
		err := &EnlargementError{File: "a.png", Width: 100, Height: 50, RequestedWidth: 200}
		expected := `ENLARGEMENT: file "a.png": image enlargement is detected; real width: 100px, required width: 200px`
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("both axes", func(t *testing.T) {
		err := &EnlargementError{File: "a.png", Width: 100, Height: 50, RequestedWidth: 200, RequestedHeight: 60}
		expected := `ENLARGEMENT: file "a.png": image enlargement is detected; real width: 100px, required width: 200px; real height: 50px, required height: 60px`
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("errors.As", func(t *testing.T) {
		var target *EnlargementError
		if !errors.As(fmt.Errorf("wrapped: %w", &EnlargementError{File: "b.jpg"}), &target) {
			t.Fatal("errors.As() = false, want true")
		}
		if target.File != "b.jpg" {
			t.Errorf("File = %v, want %v", target.File, "b.jpg")
		}
	})
}

func TestUnusedConfigError(t *testing.T) {
	err := &UnusedConfigError{Names: []string{"a.png", "*.gif"}}
	expected := `UNUSED_CONFIG: available images do not match the following config: "a.png", "*.gif"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if err.ErrorCode() != ErrCodeUnusedConfig {
		t.Errorf("ErrorCode() = %v, want %v", err.ErrorCode(), ErrCodeUnusedConfig)
	}
}
