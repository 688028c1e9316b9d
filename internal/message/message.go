package message

import "time"

// PeerID identifies a network participant. It is opaque and stable for the
// lifetime of the peer's identity.
type PeerID string

func (p PeerID) String() string { return string(p) }

// FriendRequest is an inbound request that has not been accepted or denied.
type FriendRequest struct {
	FromPeerID    PeerID `json:"from_peer_id"`
	FromMultiaddr string `json:"from_multiaddr"`
	Message       string `json:"message"`
}

// Post is a feed/board entry.
type Post struct {
	ID        string     `json:"id,omitempty"`
	Author    PeerID     `json:"author_peer_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// SortKey is the display ordering key: edit time when edited, creation time otherwise.
func (p Post) SortKey() time.Time {
	if p.EditedAt != nil {
		return *p.EditedAt
	}
	return p.CreatedAt
}

// Key identifies the post for replay de-duplication. Backends that do not
// assign ids fall back to author and creation time.
func (p Post) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return string(p.Author) + "@" + p.CreatedAt.UTC().Format(time.RFC3339Nano)
}

// DirectMessage belongs to the two-party thread keyed by the non-local peer.
type DirectMessage struct {
	ID        string     `json:"id,omitempty"`
	From      PeerID     `json:"from_peer_id"`
	To        PeerID     `json:"to_peer_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	Read      bool       `json:"read"`
}

// Partner returns the conversation partner from the point of view of self.
func (m DirectMessage) Partner(self PeerID) PeerID {
	if m.From == self {
		return m.To
	}
	return m.From
}

func (m DirectMessage) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return string(m.From) + ">" + string(m.To) + "@" + m.CreatedAt.UTC().Format(time.RFC3339Nano)
}

// MyInfo is the local identity reported by the backend.
type MyInfo struct {
	PeerID    PeerID `json:"peer_id"`
	Multiaddr string `json:"multiaddr"`
}
