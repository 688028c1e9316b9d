package backendserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"p2p-social/internal/address"
	"p2p-social/internal/authutil"
	"p2p-social/internal/message"
)

func TestHealthHandlerStatelessMode(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.healthHandler()(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload healthPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.DBEnabled {
		t.Fatalf("stateless mode should report dbEnabled=false")
	}
}

func TestHealthHandlerWithDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	srv := New(Options{DB: db})
	mock.ExpectPing()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.healthHandler()(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"dbEnabled":true`) {
		t.Fatalf("expected dbEnabled in payload: %s", rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionHandlerIssuesNewIdentity(t *testing.T) {
	srv := New(Options{BasePort: 5000})
	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	rr := httptest.NewRecorder()
	srv.sessionHandler()(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var sess message.Session
	if err := json.Unmarshal(rr.Body.Bytes(), &sess); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if sess.Multiaddr != "/ip4/127.0.0.1/tcp/5000" {
		t.Fatalf("unexpected multiaddr %q", sess.Multiaddr)
	}
	if !address.Valid(sess.Multiaddr + "/p2p/" + string(sess.PeerID)) {
		t.Fatalf("issued identity should form a valid address: %+v", sess)
	}
	info, err := authutil.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	if info.PeerID != sess.PeerID {
		t.Fatalf("token bound to %s, session reports %s", info.PeerID, sess.PeerID)
	}
}

func TestSessionHandlerRenewsExistingIdentity(t *testing.T) {
	srv := New(Options{})
	token, err := authutil.IssueToken("abc123", "/ip4/10.0.0.1/tcp/4001")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"`+token+`"}`))
	rr := httptest.NewRecorder()
	srv.sessionHandler()(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var sess message.Session
	if err := json.Unmarshal(rr.Body.Bytes(), &sess); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if sess.PeerID != "abc123" || sess.Multiaddr != "/ip4/10.0.0.1/tcp/4001" {
		t.Fatalf("identity should be preserved: %+v", sess)
	}
}

func TestSessionHandlerRejectsInvalidToken(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"garbage"}`))
	rr := httptest.NewRecorder()
	srv.sessionHandler()(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestWSHandlerRejectsMissingToken(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()
	srv.wsHandler()(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "social_ws_active_sessions") {
		t.Fatalf("expected backend metrics in exposition")
	}
}

func TestParseTokenFromHeader(t *testing.T) {
	if got := parseTokenFromHeader("bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := parseTokenFromHeader("Basic abc"); got != "" {
		t.Fatalf("non-bearer header should be ignored, got %q", got)
	}
}
