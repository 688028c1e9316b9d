package backendserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"p2p-social/internal/message"
)

const (
	sessionBuffer = 64
	writeWait     = 10 * time.Second
)

// session is one websocket connection bound to a peer identity. Frames are
// written by a single goroutine draining send.
type session struct {
	info message.MyInfo
	conn *websocket.Conn
	send chan message.Frame
	done chan struct{}
	once sync.Once
}

func newSession(conn *websocket.Conn, info message.MyInfo) *session {
	return &session{
		info: info,
		conn: conn,
		send: make(chan message.Frame, sessionBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues f for writing. A session that cannot keep up is closed.
func (s *session) enqueue(f message.Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- f:
		return true
	case <-s.done:
		return false
	default:
		s.close()
		return false
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case f := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub tracks open sessions per peer and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[message.PeerID]map[*session]struct{}
}

func newHub() *Hub {
	return &Hub{sessions: make(map[message.PeerID]map[*session]struct{})}
}

// add registers s and reports whether it is the peer's first open session.
func (h *Hub) add(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.info.PeerID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[s.info.PeerID] = set
	}
	set[s] = struct{}{}
	wsActiveSessions.Inc()
	return len(set) == 1
}

// remove unregisters s and reports whether the peer has no sessions left.
func (h *Hub) remove(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.info.PeerID]
	if !ok {
		return false
	}
	if _, ok := set[s]; !ok {
		return false
	}
	delete(set, s)
	wsActiveSessions.Dec()
	if len(set) == 0 {
		delete(h.sessions, s.info.PeerID)
		return true
	}
	return false
}

// Online reports whether peer has at least one open session.
func (h *Hub) Online(peer message.PeerID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[peer]) > 0
}

// Publish delivers ev to every session of peer and returns how many accepted it.
func (h *Hub) Publish(peer message.PeerID, ev message.Event) int {
	frame, err := message.EncodeEvent(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[peer]))
	for s := range h.sessions[peer] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()
	delivered := 0
	for _, s := range targets {
		if s.enqueue(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		incEvent(string(ev.Kind()))
	}
	return delivered
}
