package interaction

import (
	"context"
	"errors"
	"strings"
	"sync"

	"p2p-social/internal/message"
)

// Modal names one of the dialogs the UI can show.
type Modal int

const (
	ModalNone Modal = iota
	ModalRelaySettings
	ModalSendFriendRequest
	ModalFriendRequests
	ModalProfile
)

func (m Modal) String() string {
	switch m {
	case ModalRelaySettings:
		return "relay-settings"
	case ModalSendFriendRequest:
		return "send-friend-request"
	case ModalFriendRequests:
		return "friend-requests-list"
	case ModalProfile:
		return "profile"
	}
	return "none"
}

// OverlayKind identifies what occupies the overlay slot.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayMenu
	OverlayModal
	OverlayNicknameEdit
)

// MenuAction is an entry of the peer context menu.
type MenuAction int

const (
	ActionViewBoard MenuAction = iota
	ActionSendMessage
	ActionRename
)

var (
	ErrNoMenu     = errors.New("no context menu open")
	ErrNotEditing = errors.New("no nickname edit in progress")
)

// Overlay is a snapshot of the overlay slot. Only the fields relevant to Kind
// are set.
type Overlay struct {
	Kind   OverlayKind
	Modal  Modal
	Target message.PeerID
	X, Y   int
	Draft  string
}

// Navigator switches what the main area and the DM panel show.
type Navigator interface {
	ShowFeed(ctx context.Context) error
	ShowBoard(ctx context.Context, peer message.PeerID) error
	OpenThread(ctx context.Context, peer message.PeerID) error
	CloseThread()
}

// NicknameSetter applies a committed nickname. An empty name clears it.
type NicknameSetter interface {
	SetNickname(peer message.PeerID, name string)
}

// Machine holds ephemeral UI state. Context menu, modal and nickname edit
// share one slot; opening any of them replaces whatever was open.
type Machine struct {
	mu      sync.Mutex
	nav     Navigator
	names   NicknameSetter
	overlay Overlay
	dmOpen  bool
	dmPeer  message.PeerID
}

func New(nav Navigator, names NicknameSetter) *Machine {
	return &Machine{nav: nav, names: names}
}

func (m *Machine) Overlay() Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay
}

func (m *Machine) OpenContextMenu(peer message.PeerID, x, y int) {
	m.mu.Lock()
	m.overlay = Overlay{Kind: OverlayMenu, Target: peer, X: x, Y: y}
	m.mu.Unlock()
}

func (m *Machine) OpenModal(modal Modal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if modal == ModalNone {
		m.overlay = Overlay{}
		return
	}
	m.overlay = Overlay{Kind: OverlayModal, Modal: modal}
}

// Modal returns the open modal, or ModalNone.
func (m *Machine) Modal() Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay.Kind != OverlayModal {
		return ModalNone
	}
	return m.overlay.Modal
}

// Dismiss closes the open overlay. With nothing open it closes the DM panel.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	if m.overlay.Kind != OverlayNone {
		m.overlay = Overlay{}
		m.mu.Unlock()
		return
	}
	wasOpen := m.dmOpen
	m.dmOpen = false
	m.dmPeer = ""
	m.mu.Unlock()
	if wasOpen && m.nav != nil {
		m.nav.CloseThread()
	}
}

// CloseOverlay closes the open overlay and leaves the DM panel alone.
func (m *Machine) CloseOverlay() {
	m.mu.Lock()
	m.overlay = Overlay{}
	m.mu.Unlock()
}

// BeginNicknameEdit starts editing peer's nickname with an empty draft.
func (m *Machine) BeginNicknameEdit(peer message.PeerID) {
	m.mu.Lock()
	m.overlay = Overlay{Kind: OverlayNicknameEdit, Target: peer}
	m.mu.Unlock()
}

func (m *Machine) SetDraft(draft string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay.Kind != OverlayNicknameEdit {
		return ErrNotEditing
	}
	m.overlay.Draft = draft
	return nil
}

// Editing reports the peer being renamed and the current draft.
func (m *Machine) Editing() (message.PeerID, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay.Kind != OverlayNicknameEdit {
		return "", "", false
	}
	return m.overlay.Target, m.overlay.Draft, true
}

// CommitNicknameEdit applies the trimmed draft and returns to idle.
func (m *Machine) CommitNicknameEdit() (message.PeerID, string, error) {
	m.mu.Lock()
	if m.overlay.Kind != OverlayNicknameEdit {
		m.mu.Unlock()
		return "", "", ErrNotEditing
	}
	peer := m.overlay.Target
	name := strings.TrimSpace(m.overlay.Draft)
	m.overlay = Overlay{}
	m.mu.Unlock()
	if m.names != nil {
		m.names.SetNickname(peer, name)
	}
	return peer, name, nil
}

func (m *Machine) CancelNicknameEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay.Kind == OverlayNicknameEdit {
		m.overlay = Overlay{}
	}
}

// SelectFeed shows the feed in the main area.
func (m *Machine) SelectFeed(ctx context.Context) error {
	return m.nav.ShowFeed(ctx)
}

// ActivatePeer handles a single activation of a roster entry.
func (m *Machine) ActivatePeer(ctx context.Context, peer message.PeerID) error {
	return m.nav.ShowBoard(ctx, peer)
}

// DoubleActivatePeer handles a double activation of a roster entry.
func (m *Machine) DoubleActivatePeer(peer message.PeerID) {
	m.BeginNicknameEdit(peer)
}

// OpenDM opens the DM panel on the conversation with peer.
func (m *Machine) OpenDM(ctx context.Context, peer message.PeerID) error {
	m.mu.Lock()
	m.dmOpen = true
	m.dmPeer = peer
	m.mu.Unlock()
	return m.nav.OpenThread(ctx, peer)
}

func (m *Machine) CloseDM() {
	m.mu.Lock()
	m.dmOpen = false
	m.dmPeer = ""
	m.mu.Unlock()
	if m.nav != nil {
		m.nav.CloseThread()
	}
}

// DMPanel reports whether the DM panel is open and on which conversation.
func (m *Machine) DMPanel() (message.PeerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dmPeer, m.dmOpen
}

// ChooseMenuAction runs action against the context menu target and closes
// the menu.
func (m *Machine) ChooseMenuAction(ctx context.Context, action MenuAction) error {
	m.mu.Lock()
	if m.overlay.Kind != OverlayMenu {
		m.mu.Unlock()
		return ErrNoMenu
	}
	target := m.overlay.Target
	m.overlay = Overlay{}
	m.mu.Unlock()

	switch action {
	case ActionViewBoard:
		return m.nav.ShowBoard(ctx, target)
	case ActionSendMessage:
		return m.OpenDM(ctx, target)
	case ActionRename:
		m.BeginNicknameEdit(target)
	}
	return nil
}
