package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"new", New(ErrCodeInvalidGraph, "unknown service: %s", "kafka"), "INVALID_GRAPH: unknown service: kafka"},
		{"wrap", Wrap(ErrCodeIO, cause, "write %s", "system.drawio"), "IO_ERROR: write system.drawio: disk full"},
		{"service", &Error{Code: ErrCodeTemplate, Service: "orders", Message: "skeleton"}, "TEMPLATE_ERROR [orders]: skeleton"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeIO, cause, "failed to write")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	inner := New(ErrCodeInvalidGraph, "inner")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "x"), ErrCodeInvalidInput, true},
		{"other code", New(ErrCodeInvalidInput, "x"), ErrCodeIO, false},
		{"outer of chain", Wrap(ErrCodeTemplate, inner, "outer"), ErrCodeTemplate, true},
		{"inner of chain", Wrap(ErrCodeTemplate, inner, "outer"), ErrCodeInvalidGraph, true},
		{"through fmt wrap", fmt.Errorf("load: %w", inner), ErrCodeInvalidGraph, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeInvalidGraph, "x"), ErrCodeInvalidGraph},
		{"outermost wins", Wrap(ErrCodeIO, New(ErrCodeInvalidGraph, "x"), "y"), ErrCodeIO},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForService(t *testing.T) {
	coded := ForService(New(ErrCodeLayoutInvariant, "overlap"), "orders", "orders")
	var e *Error
	if !errors.As(coded, &e) || e.Service != "orders" || e.Code != ErrCodeLayoutInvariant {
		t.Fatalf("ForService() = %#v", coded)
	}
	if !Is(coded, ErrCodeLayoutInvariant) {
		t.Error("service error should keep its code")
	}

	plain := ForService(errors.New("boom"), "", "system")
	if GetCode(plain) != ErrCodeInternal {
		t.Errorf("plain errors should become %s, got %s", ErrCodeInternal, GetCode(plain))
	}
	if got := plain.Error(); got != "INTERNAL_ERROR: system diagram: boom" {
		t.Errorf("Error() = %q", got)
	}

	if ForService(nil, "a", "a") != nil {
		t.Error("nil should stay nil")
	}
	if err := ForService(context.Canceled, "a", "a"); err != context.Canceled {
		t.Errorf("cancellation should pass through, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), ExitCanceled},
		{"layout", ForService(New(ErrCodeLayoutInvariant, "x"), "a", "a"), ExitLayout},
		{"bad graph", New(ErrCodeInvalidGraph, "x"), ExitUsage},
		{"missing file", New(ErrCodeFileNotFound, "x"), ExitUsage},
		{"broken skeleton", New(ErrCodeTemplate, "x"), ExitUsage},
		{"io", New(ErrCodeIO, "x"), ExitFailure},
		{"plain", errors.New("x"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
