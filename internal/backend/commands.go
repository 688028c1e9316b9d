package backend

import (
	"context"

	"p2p-social/internal/message"
)

func (c *Client) StartSession(ctx context.Context) (message.MyInfo, error) {
	var info message.MyInfo
	err := c.call(ctx, message.CmdStartSession, nil, &info)
	return info, err
}

func (c *Client) GetMyInfo(ctx context.Context) (message.MyInfo, error) {
	var info message.MyInfo
	err := c.call(ctx, message.CmdGetMyInfo, nil, &info)
	return info, err
}

func (c *Client) ConnectRelay(ctx context.Context, addr string) error {
	return c.call(ctx, message.CmdConnectRelay, message.RelayParams{Address: addr}, nil)
}

func (c *Client) SendPost(ctx context.Context, content string) error {
	return c.call(ctx, message.CmdSendPost, message.ContentParams{Content: content}, nil)
}

func (c *Client) SendFriendRequest(ctx context.Context, peer message.PeerID, multiaddr, text string) error {
	params := message.FriendRequestParams{PeerID: peer, Multiaddr: multiaddr, Message: text}
	return c.call(ctx, message.CmdSendFriendRequest, params, nil)
}

func (c *Client) AcceptFriendRequest(ctx context.Context, peer message.PeerID) error {
	return c.call(ctx, message.CmdAcceptFriendRequest, message.PeerParams{PeerID: peer}, nil)
}

func (c *Client) DenyFriendRequest(ctx context.Context, peer message.PeerID) error {
	return c.call(ctx, message.CmdDenyFriendRequest, message.PeerParams{PeerID: peer}, nil)
}

func (c *Client) GetFriendList(ctx context.Context) ([]message.PeerID, error) {
	var out []message.PeerID
	err := c.call(ctx, message.CmdGetFriendList, nil, &out)
	return out, err
}

func (c *Client) GetInboundFriendRequests(ctx context.Context) ([]message.FriendRequest, error) {
	var out []message.FriendRequest
	err := c.call(ctx, message.CmdGetInboundFriendRequests, nil, &out)
	return out, err
}

func (c *Client) LoadFeed(ctx context.Context) ([]message.Post, error) {
	var out []message.Post
	err := c.call(ctx, message.CmdLoadFeed, nil, &out)
	return out, err
}

func (c *Client) LoadBoard(ctx context.Context, peer message.PeerID) ([]message.Post, error) {
	var out []message.Post
	err := c.call(ctx, message.CmdLoadBoard, message.PeerParams{PeerID: peer}, &out)
	return out, err
}

func (c *Client) SendDirectMessage(ctx context.Context, peer message.PeerID, content string) error {
	params := message.DirectMessageParams{PeerID: peer, Content: content}
	return c.call(ctx, message.CmdSendDirectMessage, params, nil)
}

func (c *Client) GetDirectMessages(ctx context.Context, peer message.PeerID) ([]message.DirectMessage, error) {
	var out []message.DirectMessage
	err := c.call(ctx, message.CmdGetDirectMessages, message.PeerParams{PeerID: peer}, &out)
	return out, err
}
