package stream

import (
	"fmt"

	"p2p-social/internal/message"
)

// ViewKind distinguishes the logical streams.
type ViewKind int

const (
	ViewFeed ViewKind = iota
	ViewBoard
	ViewThread
)

// View names one logical stream. Feed and Board share the main slot; Thread
// views are direct-message conversations keyed by the partner.
type View struct {
	Kind ViewKind
	Peer message.PeerID
}

func Feed() View                      { return View{Kind: ViewFeed} }
func Board(peer message.PeerID) View  { return View{Kind: ViewBoard, Peer: peer} }
func Thread(peer message.PeerID) View { return View{Kind: ViewThread, Peer: peer} }

// IsMain reports whether v occupies the main content slot.
func (v View) IsMain() bool { return v.Kind == ViewFeed || v.Kind == ViewBoard }

func (v View) String() string {
	switch v.Kind {
	case ViewFeed:
		return "feed"
	case ViewBoard:
		return fmt.Sprintf("board(%s)", v.Peer)
	case ViewThread:
		return fmt.Sprintf("dm(%s)", v.Peer)
	}
	return "unknown"
}

// State is the load state of a stream.
type State int

const (
	Empty State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "empty"
}

// Ticket ties a pull to the view and generation it was issued for. Results
// carrying an outdated ticket are discarded.
type Ticket struct {
	View View
	Gen  uint64
}

// Outcome describes what happened to a pushed item.
type Outcome int

const (
	Dropped Outcome = iota
	Buffered
	Appended
)

func (o Outcome) String() string {
	switch o {
	case Buffered:
		return "buffered"
	case Appended:
		return "appended"
	}
	return "dropped"
}
