package protocol

import (
	"context"
	"errors"

	"p2p-social/internal/message"
)

// Backend is the command surface of the node that owns the peer-to-peer
// transport. Every call is a request/response round trip and may fail.
type Backend interface {
	StartSession(ctx context.Context) (message.MyInfo, error)
	GetMyInfo(ctx context.Context) (message.MyInfo, error)
	ConnectRelay(ctx context.Context, addr string) error
	SendPost(ctx context.Context, content string) error
	SendFriendRequest(ctx context.Context, peer message.PeerID, multiaddr, text string) error
	AcceptFriendRequest(ctx context.Context, peer message.PeerID) error
	DenyFriendRequest(ctx context.Context, peer message.PeerID) error
	GetFriendList(ctx context.Context) ([]message.PeerID, error)
	GetInboundFriendRequests(ctx context.Context) ([]message.FriendRequest, error)
	LoadFeed(ctx context.Context) ([]message.Post, error)
	LoadBoard(ctx context.Context, peer message.PeerID) ([]message.Post, error)
	SendDirectMessage(ctx context.Context, peer message.PeerID, content string) error
	GetDirectMessages(ctx context.Context, peer message.PeerID) ([]message.DirectMessage, error)
}

var (
	ErrNotStarted   = errors.New("session not started")
	ErrEmptyContent = errors.New("content required")
	ErrSelfRequest  = errors.New("cannot send a friend request to yourself")
)

// LocalStore persists purely local cosmetic state. The runtime works without one.
type LocalStore interface {
	PutNickname(peer message.PeerID, name string) error
	DeleteNickname(peer message.PeerID) error
	PutBlocked(peer message.PeerID) error
	DeleteBlocked(peer message.PeerID) error
}
