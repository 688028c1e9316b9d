package peer

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"p2p-social/internal/backendserver"
	"p2p-social/internal/message"
)

func newTestConfig(t *testing.T, backendURL string) *Config {
	t.Helper()
	cfg := &Config{
		BackendURL: backendURL,
		Profile:    "alice",
		DataDir:    t.TempDir(),
		Timeout:    2 * time.Second,
	}
	if err := cfg.ensureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return cfg
}

func TestAppSignsInAndPersistsToken(t *testing.T) {
	ts := httptest.NewServer(backendserver.New(backendserver.Options{}).Router())
	defer ts.Close()
	cfg := newTestConfig(t, ts.URL)

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.Start()
	if got := app.Runtime().Self(); got != app.Session.PeerID {
		t.Fatalf("runtime identity %q, session %q", got, app.Session.PeerID)
	}
	raw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	if strings.TrimSpace(string(raw)) != app.Session.Token {
		t.Fatalf("stored token does not match session")
	}
	first := app.Session.PeerID
	app.Shutdown()

	again, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("reopen app: %v", err)
	}
	defer again.Shutdown()
	if again.Session.PeerID != first {
		t.Fatalf("stored token should keep identity %q, got %q", first, again.Session.PeerID)
	}
}

func TestAppKnowsIdentityBeforeStart(t *testing.T) {
	ts := httptest.NewServer(backendserver.New(backendserver.Options{}).Router())
	defer ts.Close()
	cfg := newTestConfig(t, ts.URL)

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Shutdown()
	if got := app.Runtime().Self(); got == "" || got != app.Session.PeerID {
		t.Fatalf("runtime identity %q before start, session %q", got, app.Session.PeerID)
	}
	app.Runtime().Dispatch(message.DMSent{Message: message.DirectMessage{ID: "d1", From: app.Session.PeerID, To: "bob"}})
	if n := len(app.Runtime().Streams().Messages("bob")); n != 1 {
		t.Fatalf("echo should land in bob's thread, got %d", n)
	}
	if n := app.Runtime().Streams().Unread(app.Session.PeerID); n != 0 {
		t.Fatalf("own echo counted unread: %d", n)
	}
}

func TestAppRestoresNicknamesAndBlocks(t *testing.T) {
	ts := httptest.NewServer(backendserver.New(backendserver.Options{}).Router())
	defer ts.Close()
	cfg := newTestConfig(t, ts.URL)

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.Start()
	app.Runtime().ProcessLine("/nick friend1 Alice")
	app.Runtime().ProcessLine("/block spammer")
	app.Shutdown()

	again, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("reopen app: %v", err)
	}
	defer again.Shutdown()
	if name, ok := again.Runtime().Directory().Nickname("friend1"); !ok || name != "Alice" {
		t.Fatalf("nickname not restored: %q %v", name, ok)
	}
	if !again.Runtime().Blocklist().Blocks("spammer") {
		t.Fatalf("block list not restored")
	}
}

func TestEnsureDirsDerivesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{DataDir: base, Profile: "me:9001"}
	if err := cfg.ensureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	if cfg.PeerDir != filepath.Join(base, "me-9001") {
		t.Fatalf("unexpected peer dir %s", cfg.PeerDir)
	}
	if cfg.LocalDB != filepath.Join(cfg.PeerDir, "local.db") || cfg.TokenFile != filepath.Join(cfg.PeerDir, "session.token") {
		t.Fatalf("unexpected derived paths: %+v", cfg)
	}
	if sanitizePathToken("  ") != "peer" || sanitizePathToken("!!") != "peer" {
		t.Fatalf("empty tokens should fall back to peer")
	}
}
