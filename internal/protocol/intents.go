package protocol

import (
	"context"
	"fmt"
	"strings"

	"p2p-social/internal/address"
	"p2p-social/internal/message"
	"p2p-social/internal/stream"
)

// StartSession asks the backend for the local identity, then pulls the
// roster, the pending requests and the feed. Failures of the follow-up pulls
// are reported to the sink; only the session call itself is returned.
func (r *Runtime) StartSession(ctx context.Context) (message.MyInfo, error) {
	info, err := r.backend.StartSession(ctx)
	if err != nil {
		r.metrics.IncFailure()
		return message.MyInfo{}, fmt.Errorf("start session: %w", err)
	}
	r.setInfo(info)
	r.system(fmt.Sprintf("signed in as %s (%s)", info.PeerID, info.Multiaddr))
	if err := r.ReloadRoster(ctx); err != nil {
		r.system(err.Error())
	}
	if err := r.ReloadPending(ctx); err != nil {
		r.system(err.Error())
	}
	if err := r.ShowFeed(ctx); err != nil {
		r.system(err.Error())
	}
	return info, nil
}

// MyInfo refreshes and returns the local identity.
func (r *Runtime) MyInfo(ctx context.Context) (message.MyInfo, error) {
	info, err := r.backend.GetMyInfo(ctx)
	if err != nil {
		r.metrics.IncFailure()
		return message.MyInfo{}, fmt.Errorf("get my info: %w", err)
	}
	r.setInfo(info)
	return info, nil
}

// ConnectRelay validates raw and asks the backend to dial it.
func (r *Runtime) ConnectRelay(ctx context.Context, raw string) error {
	addr, err := address.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if err := r.backend.ConnectRelay(ctx, addr.String()); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("connect relay: %w", err)
	}
	return nil
}

// SendPost publishes content. The post shows up through the post-sent push.
func (r *Runtime) SendPost(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if err := r.backend.SendPost(ctx, content); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("send post: %w", err)
	}
	return nil
}

// SendFriendRequest validates raw and sends a request to the peer it names.
func (r *Runtime) SendFriendRequest(ctx context.Context, raw, text string) error {
	addr, err := address.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	self := r.Self()
	if self == "" {
		return ErrNotStarted
	}
	if addr.PeerID == self {
		return ErrSelfRequest
	}
	if err := r.backend.SendFriendRequest(ctx, addr.PeerID, addr.Multiaddr, strings.TrimSpace(text)); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("send friend request: %w", err)
	}
	return nil
}

// AcceptRequest accepts peer's request. On a successful ack the request
// leaves the pending queue and the roster is pulled again; on failure
// nothing changes locally.
func (r *Runtime) AcceptRequest(ctx context.Context, peer message.PeerID) error {
	if err := r.backend.AcceptFriendRequest(ctx, peer); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("accept %s: %w", peer, err)
	}
	r.directory.RemoveRequest(peer)
	if err := r.ReloadRoster(ctx); err != nil {
		r.diag("accept %s: %v", peer, err)
	}
	return nil
}

// DenyRequest denies peer's request. The roster is not touched.
func (r *Runtime) DenyRequest(ctx context.Context, peer message.PeerID) error {
	if err := r.backend.DenyFriendRequest(ctx, peer); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("deny %s: %w", peer, err)
	}
	r.directory.RemoveRequest(peer)
	return nil
}

func (r *Runtime) SendDirectMessage(ctx context.Context, peer message.PeerID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if err := r.backend.SendDirectMessage(ctx, peer, content); err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("send dm to %s: %w", peer, err)
	}
	return nil
}

// ReloadRoster replaces the roster with the backend's friend list.
func (r *Runtime) ReloadRoster(ctx context.Context) error {
	r.metrics.IncPull()
	friends, err := r.backend.GetFriendList(ctx)
	if err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("get friend list: %w", err)
	}
	r.directory.ReplaceRoster(friends)
	r.publishPeers()
	return nil
}

// ReloadPending replaces the pending queue with the backend's inbound requests.
func (r *Runtime) ReloadPending(ctx context.Context) error {
	r.metrics.IncPull()
	gen := r.directory.BeginPendingPull()
	reqs, err := r.backend.GetInboundFriendRequests(ctx)
	if err != nil {
		r.metrics.IncFailure()
		return fmt.Errorf("get inbound friend requests: %w", err)
	}
	kept := reqs[:0:0]
	for _, req := range reqs {
		if r.blocklist.Blocks(req.FromPeerID) {
			continue
		}
		kept = append(kept, req)
	}
	if !r.directory.ApplyPending(gen, kept) {
		r.metrics.IncStale()
		r.diag("discarding stale friend request pull")
		return nil
	}
	if n := len(r.directory.Pending()); n > 0 {
		r.system(fmt.Sprintf("%d pending friend request(s)", n))
	}
	return nil
}

// ShowFeed makes the feed the active main view and loads it.
func (r *Runtime) ShowFeed(ctx context.Context) error {
	ticket, err := r.streams.SwitchView(stream.Feed())
	if err != nil {
		return err
	}
	return r.loadMain(ctx, ticket)
}

// ShowBoard makes peer's board the active main view and loads it.
func (r *Runtime) ShowBoard(ctx context.Context, peer message.PeerID) error {
	ticket, err := r.streams.SwitchView(stream.Board(peer))
	if err != nil {
		return err
	}
	return r.loadMain(ctx, ticket)
}

// OpenThread shows the conversation with peer and loads it.
func (r *Runtime) OpenThread(ctx context.Context, peer message.PeerID) error {
	r.streams.ShowThread(peer)
	ticket, err := r.streams.BeginLoad(stream.Thread(peer))
	if err != nil {
		return err
	}
	if err := r.loadThread(ctx, ticket); err != nil {
		return err
	}
	r.publishPeers()
	return nil
}

// CloseThread hides the DM panel's conversation.
func (r *Runtime) CloseThread() {
	r.streams.ShowThread("")
}

// ReloadActive pulls the active main view again.
func (r *Runtime) ReloadActive(ctx context.Context) error {
	ticket, err := r.streams.BeginLoad(r.streams.Active())
	if err != nil {
		return err
	}
	return r.loadMain(ctx, ticket)
}

// SetNickname applies a local nickname and persists it when a local store
// is configured.
func (r *Runtime) SetNickname(peer message.PeerID, name string) {
	r.directory.SetNickname(peer, name)
	if r.local != nil {
		var err error
		if name == "" {
			err = r.local.DeleteNickname(peer)
		} else {
			err = r.local.PutNickname(peer, name)
		}
		if err != nil {
			r.diag("persist nickname %s: %v", peer, err)
		}
	}
	r.publishPeers()
}

// Block hides every push from peer until Unblock.
func (r *Runtime) Block(peer message.PeerID) {
	r.blocklist.Add(peer)
	r.directory.RemoveRequest(peer)
	if r.local != nil {
		if err := r.local.PutBlocked(peer); err != nil {
			r.diag("persist block %s: %v", peer, err)
		}
	}
	r.publishPeers()
}

func (r *Runtime) Unblock(peer message.PeerID) {
	r.blocklist.Remove(peer)
	if r.local != nil {
		if err := r.local.DeleteBlocked(peer); err != nil {
			r.diag("persist unblock %s: %v", peer, err)
		}
	}
	r.publishPeers()
}

func (r *Runtime) loadMain(ctx context.Context, ticket stream.Ticket) error {
	r.metrics.IncPull()
	var (
		posts []message.Post
		err   error
	)
	if ticket.View.Kind == stream.ViewBoard {
		posts, err = r.backend.LoadBoard(ctx, ticket.View.Peer)
	} else {
		posts, err = r.backend.LoadFeed(ctx)
	}
	if err != nil {
		r.streams.FailLoad(ticket)
		r.metrics.IncFailure()
		return fmt.Errorf("load %s: %w", ticket.View, err)
	}
	if !r.streams.CompletePosts(ticket, r.withoutBlockedAuthors(posts)) {
		r.metrics.IncStale()
		r.diag("discarding stale %s result", ticket.View)
		return nil
	}
	if r.sink != nil {
		view, current := r.streams.Posts()
		r.sink.ShowPosts(r.viewTitle(view), current)
	}
	return nil
}

func (r *Runtime) loadThread(ctx context.Context, ticket stream.Ticket) error {
	r.metrics.IncPull()
	msgs, err := r.backend.GetDirectMessages(ctx, ticket.View.Peer)
	if err != nil {
		r.streams.FailLoad(ticket)
		r.metrics.IncFailure()
		return fmt.Errorf("load %s: %w", ticket.View, err)
	}
	if !r.streams.CompleteMessages(ticket, r.withoutBlockedPartners(msgs)) {
		r.metrics.IncStale()
		r.diag("discarding stale %s result", ticket.View)
		return nil
	}
	if r.sink != nil && r.streams.VisibleThread() == ticket.View.Peer {
		r.sink.ShowThread(r.viewTitle(ticket.View), r.streams.Messages(ticket.View.Peer))
	}
	return nil
}

func (r *Runtime) withoutBlockedAuthors(posts []message.Post) []message.Post {
	kept := posts[:0:0]
	for _, p := range posts {
		if r.blocklist.Blocks(p.Author) {
			r.metrics.IncBlocked()
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (r *Runtime) withoutBlockedPartners(msgs []message.DirectMessage) []message.DirectMessage {
	self := r.Self()
	kept := msgs[:0:0]
	for _, m := range msgs {
		if r.blocklist.Blocks(m.Partner(self)) {
			r.metrics.IncBlocked()
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
