package backendserver

import (
	"context"
	"sort"
	"sync"

	"p2p-social/internal/message"
)

// Store is the development backend's view of the social graph and content.
type Store interface {
	CreatePeer(ctx context.Context, info message.MyInfo) error
	// AddRequest records req as pending for to. It reports false when a
	// request from the same sender is already pending.
	AddRequest(ctx context.Context, to message.PeerID, req message.FriendRequest) (bool, error)
	// RemoveRequest drops the request from from to to. It reports false when
	// there was none.
	RemoveRequest(ctx context.Context, to, from message.PeerID) (bool, error)
	InboundRequests(ctx context.Context, peer message.PeerID) ([]message.FriendRequest, error)
	AddFriendship(ctx context.Context, a, b message.PeerID) error
	Friends(ctx context.Context, peer message.PeerID) ([]message.PeerID, error)
	AddPost(ctx context.Context, post message.Post) error
	// Feed returns posts by peer and its friends, oldest first.
	Feed(ctx context.Context, peer message.PeerID) ([]message.Post, error)
	Board(ctx context.Context, author message.PeerID) ([]message.Post, error)
	AddDirectMessage(ctx context.Context, dm message.DirectMessage) error
	Conversation(ctx context.Context, a, b message.PeerID) ([]message.DirectMessage, error)
	// MarkRead flags every message from partner to reader as read.
	MarkRead(ctx context.Context, reader, partner message.PeerID) error
}

type friendPair struct {
	a, b message.PeerID
}

type memStore struct {
	mu       sync.RWMutex
	peers    map[message.PeerID]message.MyInfo
	requests map[message.PeerID]map[message.PeerID]message.FriendRequest
	friends  map[friendPair]struct{}
	posts    []message.Post
	dms      []message.DirectMessage
}

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore() Store {
	return &memStore{
		peers:    make(map[message.PeerID]message.MyInfo),
		requests: make(map[message.PeerID]map[message.PeerID]message.FriendRequest),
		friends:  make(map[friendPair]struct{}),
	}
}

func (m *memStore) CreatePeer(_ context.Context, info message.MyInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[info.PeerID] = info
	return nil
}

func (m *memStore) AddRequest(_ context.Context, to message.PeerID, req message.FriendRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inbox, ok := m.requests[to]
	if !ok {
		inbox = make(map[message.PeerID]message.FriendRequest)
		m.requests[to] = inbox
	}
	if _, dup := inbox[req.FromPeerID]; dup {
		return false, nil
	}
	inbox[req.FromPeerID] = req
	return true, nil
}

func (m *memStore) RemoveRequest(_ context.Context, to, from message.PeerID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inbox := m.requests[to]
	if _, ok := inbox[from]; !ok {
		return false, nil
	}
	delete(inbox, from)
	return true, nil
}

func (m *memStore) InboundRequests(_ context.Context, peer message.PeerID) ([]message.FriendRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]message.FriendRequest, 0, len(m.requests[peer]))
	for _, req := range m.requests[peer] {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromPeerID < out[j].FromPeerID })
	return out, nil
}

func (m *memStore) AddFriendship(_ context.Context, a, b message.PeerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.friends[friendPair{a, b}] = struct{}{}
	m.friends[friendPair{b, a}] = struct{}{}
	return nil
}

func (m *memStore) Friends(_ context.Context, peer message.PeerID) ([]message.PeerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []message.PeerID
	for pair := range m.friends {
		if pair.a == peer {
			out = append(out, pair.b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memStore) AddPost(_ context.Context, post message.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, post)
	return nil
}

func (m *memStore) Feed(_ context.Context, peer message.PeerID) ([]message.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []message.Post
	for _, p := range m.posts {
		if p.Author == peer {
			out = append(out, p)
			continue
		}
		if _, ok := m.friends[friendPair{peer, p.Author}]; ok {
			out = append(out, p)
		}
	}
	sortPosts(out)
	return out, nil
}

func (m *memStore) Board(_ context.Context, author message.PeerID) ([]message.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []message.Post
	for _, p := range m.posts {
		if p.Author == author {
			out = append(out, p)
		}
	}
	sortPosts(out)
	return out, nil
}

func (m *memStore) AddDirectMessage(_ context.Context, dm message.DirectMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dms = append(m.dms, dm)
	return nil
}

func (m *memStore) Conversation(_ context.Context, a, b message.PeerID) ([]message.DirectMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []message.DirectMessage
	for _, dm := range m.dms {
		if (dm.From == a && dm.To == b) || (dm.From == b && dm.To == a) {
			out = append(out, dm)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, reader, partner message.PeerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.dms {
		if m.dms[i].To == reader && m.dms[i].From == partner {
			m.dms[i].Read = true
		}
	}
	return nil
}

func sortPosts(posts []message.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].SortKey().Before(posts[j].SortKey()) })
}
