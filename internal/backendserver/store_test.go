package backendserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"p2p-social/internal/message"
)

func TestMemoryStoreRequestsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	added, err := st.AddRequest(ctx, "bob", message.FriendRequest{FromPeerID: "alice", Message: "hi"})
	require.NoError(t, err)
	require.True(t, added)
	added, err = st.AddRequest(ctx, "bob", message.FriendRequest{FromPeerID: "alice", Message: "again"})
	require.NoError(t, err)
	require.False(t, added)

	reqs, err := st.InboundRequests(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.Equal(t, "hi", reqs[0].Message)

	removed, err := st.RemoveRequest(ctx, "bob", "alice")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = st.RemoveRequest(ctx, "bob", "alice")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMemoryStoreFeedIncludesFriendsInOrder(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	edited := base.Add(5 * time.Minute)
	require.NoError(t, st.AddFriendship(ctx, "alice", "bob"))
	require.NoError(t, st.AddPost(ctx, message.Post{ID: "1", Author: "bob", CreatedAt: base, EditedAt: &edited}))
	require.NoError(t, st.AddPost(ctx, message.Post{ID: "2", Author: "alice", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, st.AddPost(ctx, message.Post{ID: "3", Author: "carol", CreatedAt: base.Add(2 * time.Minute)}))

	feed, err := st.Feed(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	require.Equal(t, "2", feed[0].ID)
	require.Equal(t, "1", feed[1].ID)

	board, err := st.Board(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, board, 1)

	friends, err := st.Friends(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, []message.PeerID{"alice"}, friends)
}

func TestMemoryStoreConversationAndMarkRead(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.AddDirectMessage(ctx, message.DirectMessage{ID: "b", From: "bob", To: "alice", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, st.AddDirectMessage(ctx, message.DirectMessage{ID: "a", From: "alice", To: "bob", CreatedAt: base}))
	require.NoError(t, st.AddDirectMessage(ctx, message.DirectMessage{ID: "c", From: "carol", To: "alice", CreatedAt: base}))

	conv, err := st.Conversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "a", conv[0].ID)
	require.False(t, conv[1].Read)

	require.NoError(t, st.MarkRead(ctx, "alice", "bob"))
	conv, err = st.Conversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.True(t, conv[1].Read)
	require.False(t, conv[0].Read)
}
