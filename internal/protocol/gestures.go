package protocol

import (
	"fmt"

	"p2p-social/internal/interaction"
	"p2p-social/internal/message"
)

// The methods below let a pointer-driven UI steer the interaction machine.
// Errors are reported to the sink since there is no caller to return them to.

func (r *Runtime) ActivatePeer(peer message.PeerID) {
	ctx, cancel := r.requestContext()
	defer cancel()
	r.report(r.machine.ActivatePeer(ctx, peer))
}

func (r *Runtime) DoubleActivatePeer(peer message.PeerID) {
	r.machine.DoubleActivatePeer(peer)
	r.promptRename(peer)
}

func (r *Runtime) OpenPeerMenu(peer message.PeerID, x, y int) {
	r.machine.OpenContextMenu(peer, x, y)
}

// ChooseMenuEntry runs the context menu action at index.
func (r *Runtime) ChooseMenuEntry(index int) {
	ctx, cancel := r.requestContext()
	defer cancel()
	action := interaction.MenuAction(index)
	if action < interaction.ActionViewBoard || action > interaction.ActionRename {
		r.diag("unknown menu entry %d", index)
		r.machine.CloseOverlay()
		return
	}
	if err := r.machine.ChooseMenuAction(ctx, action); err != nil {
		r.report(err)
		return
	}
	if peer, _, editing := r.machine.Editing(); editing {
		r.promptRename(peer)
	}
}

// Escape abandons a nickname edit, or else dismisses the overlay or the DM
// panel.
func (r *Runtime) Escape() {
	if _, _, editing := r.machine.Editing(); editing {
		r.machine.CancelNicknameEdit()
		r.system("rename cancelled")
		return
	}
	r.machine.Dismiss()
}

func (r *Runtime) CloseDM() {
	r.machine.CloseDM()
}

func (r *Runtime) promptRename(peer message.PeerID) {
	r.system(fmt.Sprintf("new name for %s (empty clears, esc cancels):", r.DisplayName(peer)))
}
