package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/places", nil))

	if captured == "" {
		t.Fatal("expected a generated request ID in context")
	}
	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("generated request ID %q is not a UUID: %v", captured, err)
	}
	if w.Header().Get(RequestIDHeader) != captured {
		t.Errorf("response header %q does not match context value %q",
			w.Header().Get(RequestIDHeader), captured)
	}
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/search/places", nil)
	r.Header.Set(RequestIDHeader, "upstream-id-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if captured != "upstream-id-42" {
		t.Errorf("context request ID = %q, want upstream-id-42", captured)
	}
	if w.Header().Get(RequestIDHeader) != "upstream-id-42" {
		t.Errorf("response header = %q, want upstream-id-42", w.Header().Get(RequestIDHeader))
	}
}

func TestGetRequestID_MissingReturnsEmpty(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}
