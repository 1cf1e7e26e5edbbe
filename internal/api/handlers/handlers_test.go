package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLaunchErrorStatusFallback(t *testing.T) {
	if got := launchErrorStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
	if got := launchErrorStatus(context.Canceled); got != http.StatusRequestTimeout {
		t.Fatalf("expected 408 for cancelled launch, got %d", got)
	}
}

func TestSameHostOrigin(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://127.0.0.1:8765", true},
		{"http://evil.example", false},
		{"::bad", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8765/api/v1/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := sameHostOrigin(req); got != tc.want {
			t.Fatalf("origin %q: expected %v, got %v", tc.origin, tc.want, got)
		}
	}
}
