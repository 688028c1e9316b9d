package peerlist

import (
	"sort"
	"sync"
	"time"

	"p2p-social/internal/message"
)

// Entry is a relay address together with the peer that last announced it.
type Entry struct {
	Address  string         `json:"address"`
	Peer     message.PeerID `json:"peer_id"`
	LastSeen time.Time      `json:"last_seen"`
}

// Store keeps track of relay addresses announced by connected peers.
type Store struct {
	mu       sync.Mutex
	entries  map[string]Entry
	expireIn time.Duration
	now      func() time.Time
}

// NewStore creates a relay list with a given expiry window. A non-positive
// window keeps entries forever.
func NewStore(expireIn time.Duration) *Store {
	return &Store{
		entries:  make(map[string]Entry),
		expireIn: expireIn,
		now:      time.Now,
	}
}

// Register upserts addr as announced by peer.
func (s *Store) Register(addr string, peer message.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = Entry{Address: addr, Peer: peer, LastSeen: s.now()}
}

// List returns all non-expired entries sorted by address.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneExpired()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (s *Store) pruneExpired() {
	if s.expireIn <= 0 {
		return
	}
	deadline := s.now().Add(-s.expireIn)
	for addr, e := range s.entries {
		if e.LastSeen.Before(deadline) {
			delete(s.entries, addr)
		}
	}
}
