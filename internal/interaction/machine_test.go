package interaction

import (
	"context"
	"errors"
	"testing"

	"p2p-social/internal/directory"
	"p2p-social/internal/message"
)

type recordingNav struct {
	calls []string
}

func (n *recordingNav) ShowFeed(context.Context) error {
	n.calls = append(n.calls, "feed")
	return nil
}

func (n *recordingNav) ShowBoard(_ context.Context, peer message.PeerID) error {
	n.calls = append(n.calls, "board:"+string(peer))
	return nil
}

func (n *recordingNav) OpenThread(_ context.Context, peer message.PeerID) error {
	n.calls = append(n.calls, "dm:"+string(peer))
	return nil
}

func (n *recordingNav) CloseThread() {
	n.calls = append(n.calls, "close")
}

func TestOverlaysAreLastOpenedWins(t *testing.T) {
	m := New(&recordingNav{}, directory.New())
	m.OpenContextMenu("alice", 10, 20)
	m.OpenModal(ModalRelaySettings)
	if got := m.Overlay(); got.Kind != OverlayModal || got.Modal != ModalRelaySettings {
		t.Fatalf("modal should replace the menu: %+v", got)
	}
	m.BeginNicknameEdit("bob")
	if m.Modal() != ModalNone {
		t.Fatalf("nickname edit should replace the modal")
	}
	m.OpenContextMenu("carol", 1, 2)
	if _, _, editing := m.Editing(); editing {
		t.Fatalf("menu should replace the nickname edit")
	}
	if got := m.Overlay(); got.Target != "carol" || got.X != 1 || got.Y != 2 {
		t.Fatalf("unexpected menu state %+v", got)
	}
}

func TestCommitNicknameTrimsAndApplies(t *testing.T) {
	dir := directory.New()
	m := New(&recordingNav{}, dir)
	m.DoubleActivatePeer("ABC123")
	if err := m.SetDraft("  Alice  "); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	peer, name, err := m.CommitNicknameEdit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if peer != "ABC123" || name != "Alice" {
		t.Fatalf("unexpected commit result %s %q", peer, name)
	}
	if got := dir.DisplayName("ABC123", "me"); got != "Alice" {
		t.Fatalf("expected nickname applied, got %q", got)
	}
	if m.Overlay().Kind != OverlayNone {
		t.Fatalf("commit should return to idle")
	}
}

func TestCommitBlankDraftClearsNickname(t *testing.T) {
	dir := directory.New()
	dir.SetNickname("ABC123", "Bob")
	m := New(&recordingNav{}, dir)
	m.BeginNicknameEdit("ABC123")
	_ = m.SetDraft("   ")
	if _, _, err := m.CommitNicknameEdit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok := dir.Nickname("ABC123"); ok {
		t.Fatalf("blank draft should delete the nickname")
	}
}

func TestCancelNicknameEditLeavesDirectory(t *testing.T) {
	dir := directory.New()
	m := New(&recordingNav{}, dir)
	m.BeginNicknameEdit("ABC123")
	_ = m.SetDraft("Zed")
	m.CancelNicknameEdit()
	if _, ok := dir.Nickname("ABC123"); ok {
		t.Fatalf("cancel must not apply the draft")
	}
	if _, _, err := m.CommitNicknameEdit(); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
	if err := m.SetDraft("x"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestDismissClosesOverlayBeforeDMPanel(t *testing.T) {
	nav := &recordingNav{}
	m := New(nav, directory.New())
	if err := m.OpenDM(context.Background(), "bob"); err != nil {
		t.Fatalf("open dm: %v", err)
	}
	m.OpenModal(ModalProfile)
	m.Dismiss()
	if _, open := m.DMPanel(); !open {
		t.Fatalf("first dismiss should only close the modal")
	}
	m.Dismiss()
	if _, open := m.DMPanel(); open {
		t.Fatalf("second dismiss should close the DM panel")
	}
	want := []string{"dm:bob", "close"}
	if len(nav.calls) != len(want) || nav.calls[0] != want[0] || nav.calls[1] != want[1] {
		t.Fatalf("unexpected navigation %v", nav.calls)
	}
}

func TestMenuActionsTargetMenuPeer(t *testing.T) {
	nav := &recordingNav{}
	m := New(nav, directory.New())
	ctx := context.Background()
	if err := m.ChooseMenuAction(ctx, ActionViewBoard); !errors.Is(err, ErrNoMenu) {
		t.Fatalf("expected ErrNoMenu, got %v", err)
	}
	m.OpenContextMenu("alice", 0, 0)
	if err := m.ChooseMenuAction(ctx, ActionViewBoard); err != nil {
		t.Fatalf("view board: %v", err)
	}
	m.OpenContextMenu("bob", 0, 0)
	if err := m.ChooseMenuAction(ctx, ActionSendMessage); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if peer, open := m.DMPanel(); !open || peer != "bob" {
		t.Fatalf("expected DM panel on bob, got %s %v", peer, open)
	}
	m.OpenContextMenu("carol", 0, 0)
	_ = m.ChooseMenuAction(ctx, ActionRename)
	if peer, _, ok := m.Editing(); !ok || peer != "carol" {
		t.Fatalf("rename should start editing carol")
	}
	if len(nav.calls) != 2 || nav.calls[0] != "board:alice" || nav.calls[1] != "dm:bob" {
		t.Fatalf("unexpected navigation %v", nav.calls)
	}
}

func TestActivationNavigates(t *testing.T) {
	nav := &recordingNav{}
	m := New(nav, directory.New())
	ctx := context.Background()
	_ = m.SelectFeed(ctx)
	_ = m.ActivatePeer(ctx, "dave")
	if len(nav.calls) != 2 || nav.calls[0] != "feed" || nav.calls[1] != "board:dave" {
		t.Fatalf("unexpected navigation %v", nav.calls)
	}
}
