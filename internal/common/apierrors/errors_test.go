package apierrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNotFoundCode(t *testing.T) {
	err := NotFound("agent", "abc123")
	if err.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", err.HTTPStatus)
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := AlreadyExists("agent", "url-1")
	wrapped := Wrap(inner, "registering agent")
	if wrapped.Code != CodeAlreadyExists {
		t.Errorf("expected wrapped code %s, got %s", CodeAlreadyExists, wrapped.Code)
	}
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), "doing thing")
	if wrapped.Code != CodeInternalError {
		t.Errorf("expected code %s, got %s", CodeInternalError, wrapped.Code)
	}
}

func TestIs(t *testing.T) {
	err := Unsupported("cancel not supported")
	if !Is(err, CodeUnsupported) {
		t.Error("expected Is to match CodeUnsupported")
	}
	if Is(err, CodeNotFound) {
		t.Error("expected Is to not match CodeNotFound")
	}
}

func TestHTTPStatusDefaultsTo500(t *testing.T) {
	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}
