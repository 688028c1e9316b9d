package directory

import (
	"sort"
	"sync"

	"p2p-social/internal/message"
)

const (
	maxDisplayName = 24
	ellipsis       = "..."
	selfMarker     = " (you)"
)

// Directory owns the friend roster, the inbound friend-request queue and the
// local nickname map.
type Directory struct {
	mu        sync.RWMutex
	roster    map[message.PeerID]struct{}
	pending   map[message.PeerID]message.FriendRequest
	nicknames map[message.PeerID]string

	// pullGen orders pending pulls and local removals. removedAt holds the
	// generation of each removal not yet covered by an applied pull.
	pullGen   uint64
	appliedAt uint64
	removedAt map[message.PeerID]uint64
}

func New() *Directory {
	return &Directory{
		roster:    make(map[message.PeerID]struct{}),
		pending:   make(map[message.PeerID]message.FriendRequest),
		nicknames: make(map[message.PeerID]string),
		removedAt: make(map[message.PeerID]uint64),
	}
}

// ReceiveRequest records an inbound request. It returns false when a request
// from the same peer is already pending; the existing one is kept.
func (d *Directory) ReceiveRequest(from message.PeerID, req message.FriendRequest) bool {
	if req.FromPeerID == "" {
		req.FromPeerID = from
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[from]; ok {
		return false
	}
	d.pending[from] = req
	return true
}

// RemoveRequest drops the pending request from peer, if any.
// Pulls begun before the removal will not bring the request back.
func (d *Directory) RemoveRequest(peer message.PeerID) {
	d.mu.Lock()
	delete(d.pending, peer)
	d.pullGen++
	d.removedAt[peer] = d.pullGen
	d.mu.Unlock()
}

// ReplaceRoster overwrites the roster with the pulled friend list.
func (d *Directory) ReplaceRoster(friends []message.PeerID) {
	next := make(map[message.PeerID]struct{}, len(friends))
	for _, p := range friends {
		next[p] = struct{}{}
	}
	d.mu.Lock()
	d.roster = next
	d.mu.Unlock()
}

// BeginPendingPull returns the generation to hand to ApplyPending once the
// pull issued right after it completes.
func (d *Directory) BeginPendingPull() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pullGen++
	return d.pullGen
}

// ReplacePending overwrites the pending queue with the pulled inbound requests.
// Later entries for the same peer are ignored.
func (d *Directory) ReplacePending(reqs []message.FriendRequest) {
	d.ApplyPending(d.BeginPendingPull(), reqs)
}

// ApplyPending installs the result of the pull started at gen. It returns
// false and leaves the queue alone when a newer pull was already applied.
// Requests removed locally after gen are left out of the installed queue.
func (d *Directory) ApplyPending(gen uint64, reqs []message.FriendRequest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen < d.appliedAt {
		return false
	}
	next := make(map[message.PeerID]message.FriendRequest, len(reqs))
	for _, r := range reqs {
		if _, ok := next[r.FromPeerID]; ok || r.FromPeerID == "" {
			continue
		}
		if removed, ok := d.removedAt[r.FromPeerID]; ok && removed > gen {
			continue
		}
		next[r.FromPeerID] = r
	}
	for p, removed := range d.removedAt {
		if removed <= gen {
			delete(d.removedAt, p)
		}
	}
	d.appliedAt = gen
	d.pending = next
	return true
}

func (d *Directory) IsFriend(peer message.PeerID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.roster[peer]
	return ok
}

func (d *Directory) HasPending(peer message.PeerID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.pending[peer]
	return ok
}

// Roster returns the friends sorted by id.
func (d *Directory) Roster() []message.PeerID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]message.PeerID, 0, len(d.roster))
	for p := range d.roster {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Pending returns the inbound requests sorted by sender.
func (d *Directory) Pending() []message.FriendRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]message.FriendRequest, 0, len(d.pending))
	for _, r := range d.pending {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromPeerID < out[j].FromPeerID })
	return out
}

// SetNickname assigns a local display name. An empty name removes it.
func (d *Directory) SetNickname(peer message.PeerID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == "" {
		delete(d.nicknames, peer)
		return
	}
	d.nicknames[peer] = name
}

func (d *Directory) Nickname(peer message.PeerID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.nicknames[peer]
	return name, ok
}

// Nicknames returns a copy of the nickname map.
func (d *Directory) Nicknames() map[message.PeerID]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[message.PeerID]string, len(d.nicknames))
	for k, v := range d.nicknames {
		out[k] = v
	}
	return out
}

// DisplayName projects peer to the label shown in lists and headers.
func (d *Directory) DisplayName(peer, self message.PeerID) string {
	d.mu.RLock()
	name := d.nicknames[peer]
	d.mu.RUnlock()
	return FormatName(peer, name, self)
}

// FormatName is the pure form of DisplayName.
func FormatName(peer message.PeerID, nickname string, self message.PeerID) string {
	name := nickname
	if name == "" {
		name = string(peer)
	}
	if runes := []rune(name); len(runes) > maxDisplayName {
		name = string(runes[:maxDisplayName]) + ellipsis
	}
	if self != "" && peer == self {
		name += selfMarker
	}
	return name
}
