package protocol

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"p2p-social/internal/message"
	"p2p-social/internal/mocks"
	"p2p-social/internal/ui"
)

type recordingSink struct {
	mu            sync.Mutex
	posts         [][]message.Post
	appended      []message.Post
	threads       [][]message.DirectMessage
	dms           []message.DirectMessage
	systems       []string
	peerSnapshots [][]ui.Presence
	notifications []ui.Notification
}

func (s *recordingSink) ShowPosts(_ string, posts []message.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, posts)
}

func (s *recordingSink) ShowPost(_ string, post message.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, post)
}

func (s *recordingSink) ShowThread(_ string, msgs []message.DirectMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = append(s.threads, msgs)
}

func (s *recordingSink) ShowDirectMessage(_ string, msg message.DirectMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dms = append(s.dms, msg)
}

func (s *recordingSink) ShowSystem(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systems = append(s.systems, text)
}

func (s *recordingSink) UpdatePeers(peers []ui.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]ui.Presence, len(peers))
	copy(snapshot, peers)
	s.peerSnapshots = append(s.peerSnapshots, snapshot)
}

func (s *recordingSink) ShowNotification(n ui.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *recordingSink) lastSystem() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.systems) == 0 {
		return ""
	}
	return s.systems[len(s.systems)-1]
}

func (s *recordingSink) appendedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended)
}

func (s *recordingSink) peerUpdates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peerSnapshots)
}

func (s *recordingSink) notificationCopy() []ui.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ui.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

type diagRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (d *diagRecorder) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *diagRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines)
}

func newTestRuntime(t *testing.T) (*Runtime, *recordingSink, *mocks.BackendMock, *diagRecorder) {
	t.Helper()
	sink := &recordingSink{}
	backend := new(mocks.BackendMock)
	diag := &diagRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rt := NewRuntime(ctx, RuntimeOptions{
		Backend:        backend,
		Metrics:        NewMetrics(),
		Sink:           sink,
		Diagnostics:    diag.record,
		RequestTimeout: time.Second,
		Quit:           func() {},
	})
	rt.setInfo(message.MyInfo{PeerID: "me", Multiaddr: "/ip4/127.0.0.1/tcp/4001"})
	return rt, sink, backend, diag
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
