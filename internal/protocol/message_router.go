package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"p2p-social/internal/interaction"
	"p2p-social/internal/message"
	"p2p-social/internal/stream"
)

// HandleEvents consumes backend pushes one at a time until events closes or
// the runtime context ends.
func (r *Runtime) HandleEvents(events <-chan message.Event) {
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Dispatch(ev)
		}
	}
}

// Dispatch applies a single backend push. Refresh hints start their pull in
// the background so the event loop keeps draining.
func (r *Runtime) Dispatch(ev message.Event) {
	r.metrics.IncEvent()
	switch e := ev.(type) {
	case message.PeerConnected:
		if !r.presence.OnConnected(e.Peer) {
			r.metrics.IncDuplicate()
			r.diag("duplicate connect from %s", e.Peer)
			return
		}
		r.publishPeers()
	case message.PeerDisconnected:
		if !r.presence.OnDisconnected(e.Peer) {
			r.metrics.IncDuplicate()
			r.diag("disconnect of unknown peer %s", e.Peer)
			return
		}
		r.publishPeers()
	case message.PostReceived:
		r.routePost(e.Post)
	case message.PostSent:
		r.routePost(e.Post)
	case message.DMReceived:
		r.routeDirectMessage(e.Message)
	case message.DMSent:
		r.routeDirectMessage(e.Message)
	case message.FriendRequestReceived:
		if r.absorbBlocked(e.Peer, "friend request") {
			return
		}
		if !r.directory.ReceiveRequest(e.Peer, e.Request) {
			r.metrics.IncDuplicate()
			r.diag("duplicate friend request from %s", e.Peer)
			return
		}
		text := fmt.Sprintf("%s sent you a friend request", r.DisplayName(e.Peer))
		if e.Request.Message != "" {
			text += ": " + e.Request.Message
		}
		r.notify("request", e.Peer, text)
	case message.FriendRequestAccepted:
		r.notify("accepted", e.Peer, fmt.Sprintf("%s accepted your friend request", r.DisplayName(e.Peer)))
		r.background("reload roster", r.ReloadRoster)
	case message.FriendRequestDenied:
		r.notify("denied", e.Peer, fmt.Sprintf("%s declined your friend request", r.DisplayName(e.Peer)))
	case message.RefreshFriendList:
		r.background("reload roster", r.ReloadRoster)
	case message.RefreshInboundRequests:
		r.background("reload requests", r.ReloadPending)
	case message.PostsSynced:
		r.background("reload posts", r.ReloadActive)
	case message.BackendError:
		r.diag("backend error (%s): %s", e.Context, e.Error)
	default:
		r.diag("unhandled event %T", ev)
	}
}

func (r *Runtime) background(what string, pull func(context.Context) error) {
	go func() {
		ctx, cancel := r.requestContext()
		defer cancel()
		if err := pull(ctx); err != nil {
			r.diag("%s: %v", what, err)
		}
	}()
}

func (r *Runtime) absorbBlocked(peer message.PeerID, what string) bool {
	if !r.blocklist.Blocks(peer) {
		return false
	}
	r.metrics.IncBlocked()
	r.diag("ignoring %s from blocked peer %s", what, peer)
	return true
}

func (r *Runtime) routePost(p message.Post) {
	if r.absorbBlocked(p.Author, "post") {
		return
	}
	out := r.streams.RoutePost(p)
	if out == stream.Appended && r.sink != nil {
		r.sink.ShowPost(r.viewTitle(r.streams.Active()), p)
	}
}

func (r *Runtime) routeDirectMessage(dm message.DirectMessage) {
	if r.holdDirectMessage(dm) {
		r.diag("holding direct message %s: %v", dm.ID, ErrNotStarted)
		return
	}
	self := r.Self()
	partner := dm.Partner(self)
	if r.absorbBlocked(partner, "direct message") {
		return
	}
	if partner == "" {
		return
	}
	_, out := r.streams.RouteDirectMessage(dm, self)
	if partner == r.streams.VisibleThread() {
		if out == stream.Appended && r.sink != nil {
			r.sink.ShowDirectMessage(r.viewTitle(stream.Thread(partner)), dm)
		}
		return
	}
	if dm.From != self {
		r.notify("dm", partner, fmt.Sprintf("%s sent you a direct message", r.DisplayName(partner)))
		r.publishPeers()
	}
}

func (r *Runtime) ReadCLIInput(reader io.Reader) {
	buf := bufio.NewReader(reader)
	for {
		line, err := buf.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if strings.TrimSpace(line) != "" {
					r.ProcessLine(line)
				}
				return
			}
			log.Printf("stdin err: %v", err)
			return
		}
		r.ProcessLine(line)
	}
}

// ProcessLine runs a slash command, or publishes line as a post.
func (r *Runtime) ProcessLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	ctx, cancel := r.requestContext()
	defer cancel()
	if strings.HasPrefix(line, "/") {
		r.handleCommand(ctx, line)
		return
	}
	if _, _, editing := r.machine.Editing(); editing {
		_ = r.machine.SetDraft(line)
		r.report(r.commitNickname())
		return
	}
	r.report(r.SendPost(ctx, line))
}

func (r *Runtime) report(err error) {
	if err != nil {
		r.system(err.Error())
	}
}

// resolvePeer maps a nickname back to its peer id; anything else is taken as
// a raw id.
func (r *Runtime) resolvePeer(arg string) message.PeerID {
	for peer, name := range r.directory.Nicknames() {
		if strings.EqualFold(name, arg) {
			return peer
		}
	}
	return message.PeerID(arg)
}

// restAfter returns the text following the first n fields of line.
func restAfter(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}

func (r *Runtime) commitNickname() error {
	peer, name, err := r.machine.CommitNicknameEdit()
	if err != nil {
		return err
	}
	if name == "" {
		r.system(fmt.Sprintf("nickname for %s cleared", peer))
		return nil
	}
	r.system(fmt.Sprintf("%s is now shown as %s", peer, name))
	return nil
}

func (r *Runtime) handleCommand(ctx context.Context, line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case "/feed":
		r.report(r.machine.SelectFeed(ctx))
	case "/board":
		if len(parts) < 2 {
			r.system("usage: /board <peer>")
			return
		}
		r.report(r.machine.ActivatePeer(ctx, r.resolvePeer(parts[1])))
	case "/reload":
		r.report(r.ReloadActive(ctx))
	case "/dm":
		if len(parts) < 3 {
			r.system("usage: /dm <peer> <message>")
			return
		}
		r.report(r.SendDirectMessage(ctx, r.resolvePeer(parts[1]), restAfter(line, 2)))
	case "/open":
		if len(parts) < 2 {
			r.system("usage: /open <peer>")
			return
		}
		r.report(r.machine.OpenDM(ctx, r.resolvePeer(parts[1])))
	case "/close":
		r.machine.Dismiss()
	case "/friends":
		roster := r.directory.Roster()
		if len(roster) == 0 {
			r.system("no friends yet")
			return
		}
		entries := make([]string, 0, len(roster))
		for _, p := range roster {
			status := "offline"
			if r.presence.IsConnected(p) {
				status = "online"
			}
			entries = append(entries, fmt.Sprintf("%s [%s]", r.DisplayName(p), status))
		}
		r.system("friends: " + strings.Join(entries, ", "))
	case "/requests":
		r.machine.OpenModal(interaction.ModalFriendRequests)
		defer r.machine.CloseOverlay()
		pending := r.directory.Pending()
		if len(pending) == 0 {
			r.system("no pending friend requests")
			return
		}
		for _, req := range pending {
			r.system(fmt.Sprintf("request from %s: %s", r.DisplayName(req.FromPeerID), req.Message))
		}
	case "/accept":
		if len(parts) < 2 {
			r.system("usage: /accept <peer>")
			return
		}
		peer := r.resolvePeer(parts[1])
		if err := r.AcceptRequest(ctx, peer); err != nil {
			r.report(err)
			return
		}
		r.machine.CloseOverlay()
		r.system(fmt.Sprintf("%s is now a friend", r.DisplayName(peer)))
	case "/deny":
		if len(parts) < 2 {
			r.system("usage: /deny <peer>")
			return
		}
		peer := r.resolvePeer(parts[1])
		if err := r.DenyRequest(ctx, peer); err != nil {
			r.report(err)
			return
		}
		r.machine.CloseOverlay()
		r.system(fmt.Sprintf("request from %s denied", r.DisplayName(peer)))
	case "/add":
		if len(parts) < 2 {
			r.system("usage: /add <address> [message]")
			return
		}
		r.machine.OpenModal(interaction.ModalSendFriendRequest)
		if err := r.SendFriendRequest(ctx, parts[1], restAfter(line, 2)); err != nil {
			r.report(err)
			return
		}
		r.machine.CloseOverlay()
		r.system("friend request sent")
	case "/relay":
		if len(parts) < 2 {
			r.system("usage: /relay <address>")
			return
		}
		r.machine.OpenModal(interaction.ModalRelaySettings)
		if err := r.ConnectRelay(ctx, parts[1]); err != nil {
			r.report(err)
			return
		}
		r.machine.CloseOverlay()
		r.system("relay connected")
	case "/nick":
		if len(parts) < 2 {
			r.system("usage: /nick <peer> [name]")
			return
		}
		r.machine.BeginNicknameEdit(r.resolvePeer(parts[1]))
		_ = r.machine.SetDraft(restAfter(line, 2))
		r.report(r.commitNickname())
	case "/block":
		if len(parts) < 2 {
			r.system("usage: /block <peer>")
			return
		}
		peer := r.resolvePeer(parts[1])
		r.Block(peer)
		r.system(fmt.Sprintf("blocked %s", peer))
	case "/unblock":
		if len(parts) < 2 {
			r.system("usage: /unblock <peer>")
			return
		}
		peer := r.resolvePeer(parts[1])
		r.Unblock(peer)
		r.system(fmt.Sprintf("unblocked %s", peer))
	case "/blocked":
		r.system(fmt.Sprintf("blocked: %v", r.blocklist.List()))
	case "/whoami":
		r.machine.OpenModal(interaction.ModalProfile)
		defer r.machine.CloseOverlay()
		info, err := r.MyInfo(ctx)
		if err != nil {
			r.report(err)
			return
		}
		r.system(fmt.Sprintf("%s/p2p/%s", info.Multiaddr, info.PeerID))
	case "/stats":
		snap := r.metrics.Snapshot()
		r.system(snap.String())
	case "/quit":
		r.system("bye")
		if r.quit != nil {
			r.quit()
			return
		}
		os.Exit(0)
	default:
		r.system("commands: /feed /board /reload /dm /open /close /friends /requests /accept /deny /add /relay /nick /block /unblock /blocked /whoami /stats /quit")
	}
}
