package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeInvalidPackage, "bad name: %q", "foo/../bar"),
			want: `INVALID_PACKAGE: bad name: "foo/../bar"`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, fmt.Errorf("connection refused"), "fetch failed"),
			want: "NETWORK_ERROR: fetch failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodePackageNotFound, "no such package")

	if !Is(err, ErrCodePackageNotFound) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(stderrors.New("plain"), ErrCodeNetwork) {
		t.Error("Is() = true for non-Error type")
	}
}

func TestIs_Wrapped(t *testing.T) {
	inner := New(ErrCodeTimeout, "deadline exceeded")
	outer := fmt.Errorf("check: %w", inner)

	if !Is(outer, ErrCodeTimeout) {
		t.Error("Is() did not unwrap to find code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidVersion, "x")); got != ErrCodeInvalidVersion {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeInvalidVersion)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q for plain error, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidRequirement, "line 3 does not parse")
	if got := UserMessage(err); got != "line 3 does not parse" {
		t.Errorf("UserMessage() = %q", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage() = %q for plain error", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(ErrCodeInternal, cause, "wrapped")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is() did not find wrapped cause")
	}
}

func TestRateLimitedError(t *testing.T) {
	e := &RateLimitedError{RetryAfter: 30}
	if got := e.Error(); got != "rate limited: retry after 30 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if e.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %q", e.Code())
	}

	e = &RateLimitedError{}
	if got := e.Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
}
