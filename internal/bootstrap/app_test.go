package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAppWithoutDatabaseRunsStateless(t *testing.T) {
	app, err := NewApp(context.Background(), &Config{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database without a url")
	}
	rr := httptest.NewRecorder()
	app.Server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown before start: %v", err)
	}
}
