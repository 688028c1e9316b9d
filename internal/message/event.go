package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind names an inbound backend push event on the wire.
type EventKind string

const (
	KindPeerConnected          EventKind = "peer-connected"
	KindPeerDisconnected       EventKind = "peer-disconnected"
	KindPostReceived           EventKind = "post-received"
	KindPostSent               EventKind = "post-sent"
	KindDMReceived             EventKind = "dm-received"
	KindDMSent                 EventKind = "dm-sent"
	KindFriendRequestReceived  EventKind = "friend-request-received"
	KindFriendRequestAccepted  EventKind = "friend-request-accepted"
	KindFriendRequestDenied    EventKind = "friend-request-denied"
	KindRefreshFriendList      EventKind = "refresh-friend-list"
	KindRefreshInboundRequests EventKind = "refresh-inbound-friend-requests"
	KindPostsSynced            EventKind = "posts-synced"
	KindBackendError           EventKind = "backend-error"
)

// ErrUnknownEvent is returned when a frame names an event kind this client
// does not understand.
var ErrUnknownEvent = errors.New("unknown event kind")

// Event is the closed set of push events the backend may deliver. Only types
// declared in this package implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

type PeerConnected struct {
	Peer PeerID `json:"peer_id"`
}

type PeerDisconnected struct {
	Peer PeerID `json:"peer_id"`
}

type PostReceived struct {
	Post Post `json:"post"`
}

type PostSent struct {
	Post Post `json:"post"`
}

type DMReceived struct {
	Message DirectMessage `json:"message"`
}

type DMSent struct {
	Message DirectMessage `json:"message"`
}

type FriendRequestReceived struct {
	Peer    PeerID        `json:"peer_id"`
	Request FriendRequest `json:"request"`
}

type FriendRequestAccepted struct {
	Peer PeerID `json:"peer_id"`
}

type FriendRequestDenied struct {
	Peer PeerID `json:"peer_id"`
}

// RefreshFriendList asks the client to pull the roster again.
type RefreshFriendList struct{}

// RefreshInboundRequests asks the client to pull pending requests again.
type RefreshInboundRequests struct{}

// PostsSynced reports that the backend finished a post synchronisation round
// with a peer, so pulled post sequences may be out of date.
type PostsSynced struct{}

// BackendError is a diagnostic raised inside the backend. It carries no state.
type BackendError struct {
	Context string `json:"context"`
	Error   string `json:"error"`
}

func (PeerConnected) Kind() EventKind          { return KindPeerConnected }
func (PeerDisconnected) Kind() EventKind       { return KindPeerDisconnected }
func (PostReceived) Kind() EventKind           { return KindPostReceived }
func (PostSent) Kind() EventKind               { return KindPostSent }
func (DMReceived) Kind() EventKind             { return KindDMReceived }
func (DMSent) Kind() EventKind                 { return KindDMSent }
func (FriendRequestReceived) Kind() EventKind  { return KindFriendRequestReceived }
func (FriendRequestAccepted) Kind() EventKind  { return KindFriendRequestAccepted }
func (FriendRequestDenied) Kind() EventKind    { return KindFriendRequestDenied }
func (RefreshFriendList) Kind() EventKind      { return KindRefreshFriendList }
func (RefreshInboundRequests) Kind() EventKind { return KindRefreshInboundRequests }
func (PostsSynced) Kind() EventKind            { return KindPostsSynced }
func (BackendError) Kind() EventKind           { return KindBackendError }

func (PeerConnected) isEvent()          {}
func (PeerDisconnected) isEvent()       {}
func (PostReceived) isEvent()           {}
func (PostSent) isEvent()               {}
func (DMReceived) isEvent()             {}
func (DMSent) isEvent()                 {}
func (FriendRequestReceived) isEvent()  {}
func (FriendRequestAccepted) isEvent()  {}
func (FriendRequestDenied) isEvent()    {}
func (RefreshFriendList) isEvent()      {}
func (RefreshInboundRequests) isEvent() {}
func (PostsSynced) isEvent()            {}
func (BackendError) isEvent()           {}

// Frame is the JSON envelope exchanged with the backend over the websocket.
// Requests carry ID+Command+Params, responses ID+Result|Error, pushes
// Event+Payload.
type Frame struct {
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   EventKind       `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsEvent reports whether the frame is a push rather than a response.
func (f Frame) IsEvent() bool { return f.Event != "" }

// EncodeEvent wraps ev into a push frame.
func EncodeEvent(ev Event) (Frame, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return Frame{Event: ev.Kind(), Payload: payload}, nil
}

// DecodeEvent turns a push frame into its typed event. This is the only place
// payloads are interpreted.
func DecodeEvent(f Frame) (Event, error) {
	var ev Event
	switch f.Event {
	case KindPeerConnected:
		ev = &PeerConnected{}
	case KindPeerDisconnected:
		ev = &PeerDisconnected{}
	case KindPostReceived:
		ev = &PostReceived{}
	case KindPostSent:
		ev = &PostSent{}
	case KindDMReceived:
		ev = &DMReceived{}
	case KindDMSent:
		ev = &DMSent{}
	case KindFriendRequestReceived:
		ev = &FriendRequestReceived{}
	case KindFriendRequestAccepted:
		ev = &FriendRequestAccepted{}
	case KindFriendRequestDenied:
		ev = &FriendRequestDenied{}
	case KindRefreshFriendList:
		return RefreshFriendList{}, nil
	case KindRefreshInboundRequests:
		return RefreshInboundRequests{}, nil
	case KindPostsSynced:
		return PostsSynced{}, nil
	case KindBackendError:
		ev = &BackendError{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.Event, err)
		}
	}
	return deref(ev), nil
}

func deref(ev Event) Event {
	switch e := ev.(type) {
	case *PeerConnected:
		return *e
	case *PeerDisconnected:
		return *e
	case *PostReceived:
		return *e
	case *PostSent:
		return *e
	case *DMReceived:
		return *e
	case *DMSent:
		return *e
	case *FriendRequestReceived:
		return *e
	case *FriendRequestAccepted:
		return *e
	case *FriendRequestDenied:
		return *e
	case *BackendError:
		return *e
	}
	return ev
}
