package stream

import (
	"errors"
	"sync"

	"p2p-social/internal/message"
)

var (
	// ErrNotMain is returned when a thread view is used where a main view is required.
	ErrNotMain = errors.New("view does not occupy the main slot")
	// ErrNotActive is returned when a main view load is requested for a view
	// other than the active one.
	ErrNotActive = errors.New("view is not active")
)

// Store holds the visible content sequences: one main slot shared by the feed
// and boards, and one sequence per direct-message partner. Pulls are issued
// tickets; a completed pull replaces its sequence only if its ticket is still
// current.
type Store struct {
	mu      sync.Mutex
	gen     uint64
	active  View
	main    *sequence[message.Post]
	threads map[message.PeerID]*sequence[message.DirectMessage]
	unread  map[message.PeerID]int
	visible message.PeerID
}

func NewStore() *Store {
	return &Store{
		active:  Feed(),
		main:    &sequence[message.Post]{},
		threads: make(map[message.PeerID]*sequence[message.DirectMessage]),
		unread:  make(map[message.PeerID]int),
	}
}

func (s *Store) next() uint64 {
	s.gen++
	return s.gen
}

// Active returns the view occupying the main slot.
func (s *Store) Active() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SwitchView makes v the active main view, discards whatever the slot held
// and starts a load for it.
func (s *Store) SwitchView(v View) (Ticket, error) {
	if !v.IsMain() {
		return Ticket{}, ErrNotMain
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = v
	s.main = &sequence[message.Post]{}
	gen := s.next()
	s.main.begin(gen)
	return Ticket{View: v, Gen: gen}, nil
}

// BeginLoad starts a reload of v. Main views must be active; a thread view
// may be loaded at any time.
func (s *Store) BeginLoad(v View) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.next()
	if v.IsMain() {
		if v != s.active {
			return Ticket{}, ErrNotActive
		}
		s.main.begin(gen)
		return Ticket{View: v, Gen: gen}, nil
	}
	s.thread(v.Peer).begin(gen)
	return Ticket{View: v, Gen: gen}, nil
}

// CompletePosts applies a pulled post list. It returns false and changes
// nothing when the ticket is stale.
func (s *Store) CompletePosts(t Ticket, posts []message.Post) bool {
	if !t.View.IsMain() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.View != s.active {
		return false
	}
	return s.main.complete(t.Gen, posts)
}

// CompleteMessages applies a pulled conversation.
func (s *Store) CompleteMessages(t Ticket, msgs []message.DirectMessage) bool {
	if t.View.Kind != ViewThread {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.threads[t.View.Peer]
	if !ok {
		return false
	}
	if !seq.complete(t.Gen, msgs) {
		return false
	}
	if s.visible == t.View.Peer {
		delete(s.unread, t.View.Peer)
	}
	return true
}

// FailLoad ends a load without replacing content.
func (s *Store) FailLoad(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.View.IsMain() {
		if t.View != s.active {
			return false
		}
		return s.main.fail(t.Gen)
	}
	seq, ok := s.threads[t.View.Peer]
	if !ok {
		return false
	}
	return seq.fail(t.Gen)
}

// RoutePost offers a pushed post to the main slot. The feed takes every post;
// a board takes only posts authored by its peer.
func (s *Store) RoutePost(p message.Post) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.Kind == ViewBoard && p.Author != s.active.Peer {
		return Dropped
	}
	return s.main.push(p)
}

// RouteDirectMessage appends dm to the conversation with its partner and
// returns that partner. Messages from others to a thread not currently shown
// count as unread.
func (s *Store) RouteDirectMessage(dm message.DirectMessage, self message.PeerID) (message.PeerID, Outcome) {
	partner := dm.Partner(self)
	if partner == "" {
		return "", Dropped
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.thread(partner).push(dm)
	if dm.From != self && !dm.Read && s.visible != partner {
		s.unread[partner]++
	}
	return partner, out
}

func (s *Store) thread(peer message.PeerID) *sequence[message.DirectMessage] {
	seq, ok := s.threads[peer]
	if !ok {
		seq = &sequence[message.DirectMessage]{}
		s.threads[peer] = seq
	}
	return seq
}

// Posts returns the active main view and a copy of its posts.
func (s *Store) Posts() (View, []message.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.main.snapshot()
}

// Messages returns a copy of the conversation with peer.
func (s *Store) Messages(peer message.PeerID) []message.DirectMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.threads[peer]
	if !ok {
		return nil
	}
	return seq.snapshot()
}

// State reports the load state of v. A main view that is not active is Empty.
func (s *Store) State(v View) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.IsMain() {
		if v != s.active {
			return Empty
		}
		return s.main.state()
	}
	seq, ok := s.threads[v.Peer]
	if !ok {
		return Empty
	}
	return seq.state()
}

// ShowThread marks the conversation with peer as on screen and clears its
// unread count. An empty peer hides any shown thread.
func (s *Store) ShowThread(peer message.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = peer
	if peer != "" {
		delete(s.unread, peer)
	}
}

func (s *Store) VisibleThread() message.PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Store) Unread(peer message.PeerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[peer]
}

func (s *Store) MarkRead(peer message.PeerID) {
	s.mu.Lock()
	delete(s.unread, peer)
	s.mu.Unlock()
}

// UnreadTotal sums unread counts across conversations.
func (s *Store) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.unread {
		total += n
	}
	return total
}
