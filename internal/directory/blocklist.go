package directory

import (
	"sort"
	"sync"

	"p2p-social/internal/message"
)

// BlockList keeps peers whose pushes are ignored locally.
type BlockList struct {
	mu      sync.RWMutex
	blocked map[message.PeerID]struct{}
}

func NewBlockList() *BlockList {
	return &BlockList{blocked: make(map[message.PeerID]struct{})}
}

func (b *BlockList) Add(peer message.PeerID) {
	if peer == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked[peer] = struct{}{}
}

func (b *BlockList) Remove(peer message.PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blocked, peer)
}

func (b *BlockList) Blocks(peer message.PeerID) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blocked[peer]
	return ok
}

func (b *BlockList) List() []message.PeerID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]message.PeerID, 0, len(b.blocked))
	for key := range b.blocked {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
