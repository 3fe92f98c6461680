package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	store := newFakeStore()
	router, _ := newTestRouter(t, store, nil, nil, testConfig())

	if rr := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	store.pingErr = errStoreDown
	if rr := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
