package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"p2p-social/internal/message"
)

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// fakeBackend answers requests with handle and can push frames to the client.
type fakeBackend struct {
	srv    *httptest.Server
	mu     sync.Mutex
	conn   *websocket.Conn
	ready  chan struct{}
	handle func(conn *websocket.Conn, req message.Frame)
}

func newFakeBackend(t *testing.T, handle func(conn *websocket.Conn, req message.Frame)) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{ready: make(chan struct{}), handle: handle}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fb.mu.Lock()
		fb.conn = conn
		fb.mu.Unlock()
		close(fb.ready)
		for {
			var req message.Frame
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if fb.handle != nil {
				fb.handle(conn, req)
			}
		}
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) push(t *testing.T, frame message.Frame) {
	t.Helper()
	<-fb.ready
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NoError(t, fb.conn.WriteJSON(frame))
}

func dialFake(t *testing.T, fb *fakeBackend) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, WebsocketURL(fb.srv.URL), "tok", Options{Diagnostics: func(string, ...any) {}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func reply(conn *websocket.Conn, id string, result any) {
	raw, _ := json.Marshal(result)
	_ = conn.WriteJSON(message.Frame{ID: id, Result: raw})
}

func TestCallsAreCorrelatedById(t *testing.T) {
	var (
		mu   sync.Mutex
		held []message.Frame
	)
	fb := newFakeBackend(t, func(conn *websocket.Conn, req message.Frame) {
		mu.Lock()
		defer mu.Unlock()
		held = append(held, req)
		if len(held) < 2 {
			return
		}
		// answer in reverse order
		for i := len(held) - 1; i >= 0; i-- {
			var p message.PeerParams
			_ = json.Unmarshal(held[i].Params, &p)
			reply(conn, held[i].ID, []message.Post{{ID: "from-" + string(p.PeerID), Author: p.PeerID}})
		}
	})
	client := dialFake(t, fb)

	type result struct {
		peer  message.PeerID
		posts []message.Post
		err   error
	}
	results := make(chan result, 2)
	for _, peer := range []message.PeerID{"alice", "bob"} {
		go func(p message.PeerID) {
			posts, err := client.LoadBoard(context.Background(), p)
			results <- result{peer: p, posts: posts, err: err}
		}(peer)
	}
	for i := 0; i < 2; i++ {
		res := <-results
		require.NoError(t, res.err)
		require.Len(t, res.posts, 1)
		require.Equal(t, "from-"+string(res.peer), res.posts[0].ID)
	}
}

func TestRemoteErrorSurfaces(t *testing.T) {
	fb := newFakeBackend(t, func(conn *websocket.Conn, req message.Frame) {
		_ = conn.WriteJSON(message.Frame{ID: req.ID, Error: "no pending request from Q"})
	})
	client := dialFake(t, fb)

	err := client.AcceptFriendRequest(context.Background(), "Q")
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, message.CmdAcceptFriendRequest, remote.Command)
	require.Contains(t, remote.Error(), "no pending request")
}

func TestPushesAreDecodedOnce(t *testing.T) {
	fb := newFakeBackend(t, nil)
	client := dialFake(t, fb)

	fb.push(t, message.Frame{Event: "made-up"})
	frame, err := message.EncodeEvent(message.FriendRequestReceived{
		Peer:    "Q",
		Request: message.FriendRequest{FromPeerID: "Q", Message: "hi"},
	})
	require.NoError(t, err)
	fb.push(t, frame)

	select {
	case ev := <-client.Events():
		got, ok := ev.(message.FriendRequestReceived)
		require.True(t, ok, "unexpected event %T", ev)
		require.Equal(t, "hi", got.Request.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestCallAfterServerCloseFails(t *testing.T) {
	fb := newFakeBackend(t, func(conn *websocket.Conn, req message.Frame) {
		_ = conn.Close()
	})
	client := dialFake(t, fb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := client.SendPost(ctx, "hello")
	require.ErrorIs(t, err, ErrClosed)

	select {
	case _, open := <-client.Events():
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel should close")
	}
}

func TestOpenSessionDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message.Session{Token: "t", PeerID: "P1", Multiaddr: "/ip4/127.0.0.1/tcp/1"})
	}))
	defer srv.Close()

	sess, err := OpenSession(context.Background(), srv.Client(), srv.URL+"/", "")
	require.NoError(t, err)
	require.Equal(t, message.PeerID("P1"), sess.PeerID)
	require.Equal(t, "t", sess.Token)
}

func TestOpenSessionReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := OpenSession(context.Background(), srv.Client(), srv.URL, "bad")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "invalid token"))
}

func TestWebsocketURL(t *testing.T) {
	require.Equal(t, "ws://localhost:8090/ws", WebsocketURL("http://localhost:8090/"))
	require.Equal(t, "wss://example.org/ws", WebsocketURL("https://example.org"))
}
