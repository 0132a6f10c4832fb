package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewInvalidAssignee([]string{"x"}), CodeInvalidAssignee, http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("update: %w", NewInvalidTransition("DONE", "CANCELLED")), CodeInvalidTransition, http.StatusConflict},
		{"bare not-found sentinel", fmt.Errorf("get: %w", ErrRecordNotFound), CodeNotFound, http.StatusNotFound},
		{"unknown error", errors.New("pool exhausted"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.code || got.HTTPStatus != tt.status {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tt.code, tt.status)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	got := ToDomainError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if got.Message != "internal server error" {
		t.Fatalf("message leaked cause: %q", got.Message)
	}
}

func TestNotFoundUnwrapsToSentinel(t *testing.T) {
	err := NewNotFound("ticket", map[string]any{"ticketId": "t-1"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatal("NewNotFound should wrap ErrRecordNotFound")
	}
	if !HasCode(err, CodeNotFound) || HasCode(err, CodeConflict) {
		t.Fatal("HasCode mismatch")
	}
	if HasCode(errors.New("plain"), CodeNotFound) {
		t.Fatal("plain errors carry no code")
	}
}

func TestDownloadFailedKeepsCause(t *testing.T) {
	cause := errors.New("blob missing")
	err := NewDownloadFailed("report.pdf", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through Unwrap")
	}
	if d := ToDomainError(err); d.Details["filename"] != "report.pdf" {
		t.Fatalf("details = %v", d.Details)
	}
}
