package errors

import (
	"errors"
	"testing"
)

func TestServiceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := UpstreamFailure("failed to generate AI reply", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if got := err.Error(); got != "[UPSTREAM_FAILURE] failed to generate AI reply: connection refused" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestGetCodeFromError(t *testing.T) {
	if got := GetCodeFromError(NotFound("conversation not found"), ErrCodeInternal); got != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", got, ErrCodeNotFound)
	}
	if got := GetCodeFromError(errors.New("plain"), ErrCodeInternal); got != ErrCodeInternal {
		t.Errorf("code = %q, want %q", got, ErrCodeInternal)
	}
}

func TestIsCode(t *testing.T) {
	err := InvalidField("rating", "Rating must be between 1 and 5.")
	if !IsCode(err, ErrCodeInvalidArgument) {
		t.Error("expected ErrCodeInvalidArgument")
	}
	if IsCode(err, ErrCodeNotFound) {
		t.Error("did not expect ErrCodeNotFound")
	}
	if err.Field != "rating" {
		t.Errorf("field = %q, want %q", err.Field, "rating")
	}
}
