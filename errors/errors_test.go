package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeNotFound, "missing thing", http.StatusNotFound)
	if got := e.Error(); got != "NOT_FOUND: missing thing" {
		t.Errorf("unexpected error string: %q", got)
	}

	cause := stderrors.New("row not found")
	e = e.WithCause(cause)
	if got := e.Error(); got != "NOT_FOUND: missing thing (cause: row not found)" {
		t.Errorf("unexpected error string with cause: %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	e := Upstream("payments", cause)

	if !stderrors.Is(e, cause) {
		t.Error("AppError should unwrap to its cause")
	}
}

func TestNew_RetryableDetection(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeCircuitOpen, true},
		{ErrCodeRateLimited, true},
		{ErrCodeTimeout, true},
		{ErrCodeOverloaded, true},
		{ErrCodeNotFound, false},
		{ErrCodeInternal, false},
		{ErrCodeForbidden, false},
	}
	for _, tc := range cases {
		e := New(tc.code, "x", http.StatusInternalServerError)
		if e.Retryable != tc.want {
			t.Errorf("%s: expected retryable=%v", tc.code, tc.want)
		}
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{CircuitOpen("backend"), http.StatusServiceUnavailable},
		{RateLimited(), http.StatusTooManyRequests},
		{Overloaded(), http.StatusServiceUnavailable},
		{Timeout("fetch"), http.StatusGatewayTimeout},
		{NotFound("user", "42"), http.StatusNotFound},
		{InvalidInput("name", "empty"), http.StatusBadRequest},
		{MissingField("email"), http.StatusBadRequest},
		{Unauthorized(""), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{TokenExpired(), http.StatusUnauthorized},
		{InvalidToken(), http.StatusUnauthorized},
		{Internal(nil), http.StatusInternalServerError},
		{Upstream("db", nil), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if tc.err.HTTPStatus != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.err.Code, tc.want, tc.err.HTTPStatus)
		}
	}
}

func TestCircuitOpen_Details(t *testing.T) {
	e := CircuitOpen("api-backend")
	if e.Details["circuit"] != "api-backend" {
		t.Errorf("expected circuit detail, got %v", e.Details)
	}
	if !e.Retryable {
		t.Error("circuit-open errors are retryable")
	}
}

func TestWithDetail(t *testing.T) {
	e := RateLimited().WithDetail("client", "10.0.0.1")
	if e.Details["client"] != "10.0.0.1" {
		t.Errorf("expected client detail, got %v", e.Details)
	}
}

func TestToResponse(t *testing.T) {
	e := NotFound("profile", "7")
	resp := e.ToResponse()

	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unexpected code: %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("not-found must not be retryable")
	}
	if resp.Error.Details["id"] != "7" {
		t.Errorf("unexpected details: %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	inner := Forbidden("no access")
	wrapped := fmt.Errorf("handler: %w", inner)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError through wrapping")
	}
	if got.Code != ErrCodeForbidden {
		t.Errorf("unexpected code: %s", got.Code)
	}

	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error must not convert")
	}
	if IsAppError(stderrors.New("plain")) {
		t.Error("plain error must not be an AppError")
	}
}
