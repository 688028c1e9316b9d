package presence

import (
	"sort"
	"sync"

	"p2p-social/internal/message"
)

// Tracker holds the set of peers that currently have a live connection.
type Tracker struct {
	mu        sync.RWMutex
	connected map[message.PeerID]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{connected: make(map[message.PeerID]struct{})}
}

// OnConnected marks peer as connected and reports whether the set changed.
func (t *Tracker) OnConnected(peer message.PeerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.connected[peer]; ok {
		return false
	}
	t.connected[peer] = struct{}{}
	return true
}

// OnDisconnected removes peer and reports whether the set changed.
func (t *Tracker) OnDisconnected(peer message.PeerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.connected[peer]; !ok {
		return false
	}
	delete(t.connected, peer)
	return true
}

func (t *Tracker) IsConnected(peer message.PeerID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.connected[peer]
	return ok
}

func (t *Tracker) Snapshot() []message.PeerID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]message.PeerID, 0, len(t.connected))
	for p := range t.connected {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
