package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"p2p-social/internal/message"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) StartSession(ctx context.Context) (message.MyInfo, error) {
	args := m.Called(ctx)
	var info message.MyInfo
	if val := args.Get(0); val != nil {
		info = val.(message.MyInfo)
	}
	return info, args.Error(1)
}

func (m *BackendMock) GetMyInfo(ctx context.Context) (message.MyInfo, error) {
	args := m.Called(ctx)
	var info message.MyInfo
	if val := args.Get(0); val != nil {
		info = val.(message.MyInfo)
	}
	return info, args.Error(1)
}

func (m *BackendMock) ConnectRelay(ctx context.Context, addr string) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *BackendMock) SendPost(ctx context.Context, content string) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *BackendMock) SendFriendRequest(ctx context.Context, peer message.PeerID, multiaddr, text string) error {
	args := m.Called(ctx, peer, multiaddr, text)
	return args.Error(0)
}

func (m *BackendMock) AcceptFriendRequest(ctx context.Context, peer message.PeerID) error {
	args := m.Called(ctx, peer)
	return args.Error(0)
}

func (m *BackendMock) DenyFriendRequest(ctx context.Context, peer message.PeerID) error {
	args := m.Called(ctx, peer)
	return args.Error(0)
}

func (m *BackendMock) GetFriendList(ctx context.Context) ([]message.PeerID, error) {
	args := m.Called(ctx)
	var list []message.PeerID
	if val := args.Get(0); val != nil {
		list = val.([]message.PeerID)
	}
	return list, args.Error(1)
}

func (m *BackendMock) GetInboundFriendRequests(ctx context.Context) ([]message.FriendRequest, error) {
	args := m.Called(ctx)
	var list []message.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]message.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *BackendMock) LoadFeed(ctx context.Context) ([]message.Post, error) {
	args := m.Called(ctx)
	var list []message.Post
	if val := args.Get(0); val != nil {
		list = val.([]message.Post)
	}
	return list, args.Error(1)
}

func (m *BackendMock) LoadBoard(ctx context.Context, peer message.PeerID) ([]message.Post, error) {
	args := m.Called(ctx, peer)
	var list []message.Post
	if val := args.Get(0); val != nil {
		list = val.([]message.Post)
	}
	return list, args.Error(1)
}

func (m *BackendMock) SendDirectMessage(ctx context.Context, peer message.PeerID, content string) error {
	args := m.Called(ctx, peer, content)
	return args.Error(0)
}

func (m *BackendMock) GetDirectMessages(ctx context.Context, peer message.PeerID) ([]message.DirectMessage, error) {
	args := m.Called(ctx, peer)
	var list []message.DirectMessage
	if val := args.Get(0); val != nil {
		list = val.([]message.DirectMessage)
	}
	return list, args.Error(1)
}
