package ui

import (
	"time"

	"p2p-social/internal/message"
)

// Presence describes a peer in the roster so each UI can display it.
type Presence struct {
	PeerID  message.PeerID `json:"peer_id"`
	Name    string         `json:"name"`
	Online  bool           `json:"online"`
	Friend  bool           `json:"friend"`
	Unread  int            `json:"unread"`
	Blocked bool           `json:"blocked"`
}

// Notification is used for system level alerts such as requests or DMs.
type Notification struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
}

// Sink is the unified interface every UI surface must satisfy.
type Sink interface {
	// ShowPosts replaces the main stream with a freshly loaded sequence.
	ShowPosts(title string, posts []message.Post)
	ShowPost(title string, post message.Post)
	ShowThread(title string, msgs []message.DirectMessage)
	ShowDirectMessage(title string, msg message.DirectMessage)
	ShowSystem(string)
	UpdatePeers([]Presence)
	ShowNotification(Notification)
}

// Namer maps a peer id to the label shown next to its posts and messages.
type Namer func(message.PeerID) string

// NameSetter is implemented by sinks that label authors through a Namer.
type NameSetter interface {
	SetNamer(Namer)
}

func labelOf(names Namer, peer message.PeerID) string {
	if names == nil {
		return string(peer)
	}
	return names(peer)
}

type multiSink struct {
	sinks []Sink
}

// NewMultiSink fans events out to each registered sink.
func NewMultiSink(sinks ...Sink) Sink {
	return &multiSink{sinks: sinks}
}

func (m *multiSink) each(fn func(Sink)) {
	for _, sink := range m.sinks {
		if sink != nil {
			fn(sink)
		}
	}
}

func (m *multiSink) SetNamer(names Namer) {
	m.each(func(s Sink) {
		if ns, ok := s.(NameSetter); ok {
			ns.SetNamer(names)
		}
	})
}

func (m *multiSink) ShowPosts(title string, posts []message.Post) {
	m.each(func(s Sink) { s.ShowPosts(title, posts) })
}

func (m *multiSink) ShowPost(title string, post message.Post) {
	m.each(func(s Sink) { s.ShowPost(title, post) })
}

func (m *multiSink) ShowThread(title string, msgs []message.DirectMessage) {
	m.each(func(s Sink) { s.ShowThread(title, msgs) })
}

func (m *multiSink) ShowDirectMessage(title string, msg message.DirectMessage) {
	m.each(func(s Sink) { s.ShowDirectMessage(title, msg) })
}

func (m *multiSink) ShowSystem(text string) {
	m.each(func(s Sink) { s.ShowSystem(text) })
}

func (m *multiSink) UpdatePeers(peers []Presence) {
	m.each(func(s Sink) { s.UpdatePeers(peers) })
}

func (m *multiSink) ShowNotification(n Notification) {
	m.each(func(s Sink) { s.ShowNotification(n) })
}
