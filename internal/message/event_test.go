package message

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeEventFriendRequest(t *testing.T) {
	frame := Frame{
		Event:   KindFriendRequestReceived,
		Payload: []byte(`{"peer_id":"Q","request":{"from_peer_id":"Q","from_multiaddr":"/ip4/10.0.0.5/tcp/4001","message":"hi"}}`),
	}
	ev, err := DecodeEvent(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := ev.(FriendRequestReceived)
	if !ok {
		t.Fatalf("expected FriendRequestReceived, got %T", ev)
	}
	if req.Peer != "Q" || req.Request.Message != "hi" {
		t.Fatalf("unexpected payload: %+v", req)
	}
}

func TestEncodeDecodeKeepsPost(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	frame, err := EncodeEvent(PostSent{Post: Post{ID: "p1", Author: "A", Content: "hello", CreatedAt: created}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !frame.IsEvent() || frame.Event != KindPostSent {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	ev, err := DecodeEvent(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sent := ev.(PostSent)
	if sent.Post.ID != "p1" || !sent.Post.CreatedAt.Equal(created) {
		t.Fatalf("post mangled: %+v", sent.Post)
	}
}

func TestDecodeEventHintsWithoutPayload(t *testing.T) {
	ev, err := DecodeEvent(Frame{Event: KindRefreshFriendList})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind() != KindRefreshFriendList {
		t.Fatalf("unexpected kind %s", ev.Kind())
	}
}

func TestDecodeEventRejectsUnknownKind(t *testing.T) {
	_, err := DecodeEvent(Frame{Event: "bogus"})
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestPostSortKeyPrefersEdit(t *testing.T) {
	created := time.Unix(100, 0)
	edited := time.Unix(200, 0)
	p := Post{CreatedAt: created}
	if !p.SortKey().Equal(created) {
		t.Fatalf("expected created time")
	}
	p.EditedAt = &edited
	if !p.SortKey().Equal(edited) {
		t.Fatalf("expected edited time")
	}
}

func TestDirectMessagePartner(t *testing.T) {
	dm := DirectMessage{From: "me", To: "bob"}
	if dm.Partner("me") != "bob" {
		t.Fatalf("outgoing dm should key on recipient")
	}
	if dm.Partner("bob") != "me" {
		t.Fatalf("incoming dm should key on sender")
	}
}
