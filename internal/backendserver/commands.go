package backendserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"p2p-social/internal/address"
	"p2p-social/internal/message"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errEmptyContent   = errors.New("content required")
	errSelf           = errors.New("cannot target yourself")
	errAlreadyFriends = errors.New("already friends")
	errNoRequest      = errors.New("no pending friend request")
	errMissingPeer    = errors.New("peer_id required")
)

// handle runs one request frame and builds its response.
func (s *Server) handle(ctx context.Context, sess *session, f message.Frame) message.Frame {
	result, err := s.dispatch(ctx, sess, f.Command, f.Params)
	incCommand(f.Command, err)
	resp := message.Frame{ID: f.ID}
	if err != nil {
		s.logger.Debug().Err(err).Str("peer", sess.info.PeerID.String()).Str("command", f.Command).Msg("command failed")
		resp.Error = err.Error()
		return resp
	}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			resp.Error = fmt.Sprintf("encode result: %v", err)
			return resp
		}
		resp.Result = raw
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, sess *session, command string, params json.RawMessage) (any, error) {
	me := sess.info.PeerID
	switch command {
	case message.CmdStartSession, message.CmdGetMyInfo:
		return sess.info, nil
	case message.CmdConnectRelay:
		var p message.RelayParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		addr, err := address.Parse(p.Address)
		if err != nil {
			return nil, err
		}
		s.relays.Register(addr.String(), me)
		return nil, nil
	case message.CmdSendPost:
		var p message.ContentParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, s.sendPost(ctx, me, p.Content)
	case message.CmdSendFriendRequest:
		var p message.FriendRequestParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, s.sendFriendRequest(ctx, sess.info, p)
	case message.CmdAcceptFriendRequest:
		peer, err := decodePeer(params)
		if err != nil {
			return nil, err
		}
		return nil, s.acceptFriendRequest(ctx, me, peer)
	case message.CmdDenyFriendRequest:
		peer, err := decodePeer(params)
		if err != nil {
			return nil, err
		}
		return nil, s.denyFriendRequest(ctx, me, peer)
	case message.CmdGetFriendList:
		return s.store.Friends(ctx, me)
	case message.CmdGetInboundFriendRequests:
		return s.store.InboundRequests(ctx, me)
	case message.CmdLoadFeed:
		return s.store.Feed(ctx, me)
	case message.CmdLoadBoard:
		peer, err := decodePeer(params)
		if err != nil {
			return nil, err
		}
		return s.store.Board(ctx, peer)
	case message.CmdSendDirectMessage:
		var p message.DirectMessageParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, s.sendDirectMessage(ctx, me, p)
	case message.CmdGetDirectMessages:
		peer, err := decodePeer(params)
		if err != nil {
			return nil, err
		}
		msgs, err := s.store.Conversation(ctx, me, peer)
		if err != nil {
			return nil, err
		}
		if err := s.store.MarkRead(ctx, me, peer); err != nil {
			return nil, err
		}
		return msgs, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
}

func (s *Server) sendPost(ctx context.Context, me message.PeerID, content string) error {
	if strings.TrimSpace(content) == "" {
		return errEmptyContent
	}
	post := message.Post{
		ID:        uuid.NewString(),
		Author:    me,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddPost(ctx, post); err != nil {
		return fmt.Errorf("store post: %w", err)
	}
	s.hub.Publish(me, message.PostSent{Post: post})
	friends, err := s.store.Friends(ctx, me)
	if err != nil {
		return fmt.Errorf("friend lookup: %w", err)
	}
	for _, f := range friends {
		s.hub.Publish(f, message.PostReceived{Post: post})
	}
	return nil
}

func (s *Server) sendFriendRequest(ctx context.Context, me message.MyInfo, p message.FriendRequestParams) error {
	if p.PeerID == "" {
		return errMissingPeer
	}
	if p.PeerID == me.PeerID {
		return errSelf
	}
	friends, err := s.store.Friends(ctx, me.PeerID)
	if err != nil {
		return fmt.Errorf("friend lookup: %w", err)
	}
	for _, f := range friends {
		if f == p.PeerID {
			return errAlreadyFriends
		}
	}
	req := message.FriendRequest{FromPeerID: me.PeerID, FromMultiaddr: me.Multiaddr, Message: p.Message}
	added, err := s.store.AddRequest(ctx, p.PeerID, req)
	if err != nil {
		return fmt.Errorf("store request: %w", err)
	}
	if added {
		s.hub.Publish(p.PeerID, message.FriendRequestReceived{Peer: me.PeerID, Request: req})
	}
	return nil
}

func (s *Server) acceptFriendRequest(ctx context.Context, me, from message.PeerID) error {
	removed, err := s.store.RemoveRequest(ctx, me, from)
	if err != nil {
		return fmt.Errorf("remove request: %w", err)
	}
	if !removed {
		return errNoRequest
	}
	if err := s.store.AddFriendship(ctx, me, from); err != nil {
		return fmt.Errorf("store friendship: %w", err)
	}
	s.hub.Publish(from, message.FriendRequestAccepted{Peer: me})
	if s.hub.Online(from) && s.hub.Online(me) {
		s.hub.Publish(me, message.PeerConnected{Peer: from})
		s.hub.Publish(from, message.PeerConnected{Peer: me})
	}
	return nil
}

func (s *Server) denyFriendRequest(ctx context.Context, me, from message.PeerID) error {
	removed, err := s.store.RemoveRequest(ctx, me, from)
	if err != nil {
		return fmt.Errorf("remove request: %w", err)
	}
	if !removed {
		return errNoRequest
	}
	s.hub.Publish(from, message.FriendRequestDenied{Peer: me})
	return nil
}

func (s *Server) sendDirectMessage(ctx context.Context, me message.PeerID, p message.DirectMessageParams) error {
	if p.PeerID == "" {
		return errMissingPeer
	}
	if p.PeerID == me {
		return errSelf
	}
	if strings.TrimSpace(p.Content) == "" {
		return errEmptyContent
	}
	dm := message.DirectMessage{
		ID:        uuid.NewString(),
		From:      me,
		To:        p.PeerID,
		Content:   p.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddDirectMessage(ctx, dm); err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	s.hub.Publish(me, message.DMSent{Message: dm})
	s.hub.Publish(p.PeerID, message.DMReceived{Message: dm})
	return nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func decodePeer(raw json.RawMessage) (message.PeerID, error) {
	var p message.PeerParams
	if err := decodeParams(raw, &p); err != nil {
		return "", err
	}
	if p.PeerID == "" {
		return "", errMissingPeer
	}
	return p.PeerID, nil
}
