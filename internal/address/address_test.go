package address

import (
	"errors"
	"testing"
)

func TestParseDecomposesAddress(t *testing.T) {
	addr, err := Parse("/ip4/10.0.0.5/tcp/4001/p2p/ABC123")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr.Multiaddr != "/ip4/10.0.0.5/tcp/4001" {
		t.Fatalf("unexpected multiaddr %q", addr.Multiaddr)
	}
	if addr.PeerID != "ABC123" {
		t.Fatalf("unexpected peer id %q", addr.PeerID)
	}
	if addr.String() != "/ip4/10.0.0.5/tcp/4001/p2p/ABC123" {
		t.Fatalf("round trip mismatch: %s", addr)
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	cases := []string{
		"/ip4/999.0.0.1/tcp/4001/p2p/ABC",
		"/ip4/10.0.0/tcp/4001/p2p/ABC",
		"/ip4/10.0.0.5/tcp/0/p2p/ABC",
		"/ip4/10.0.0.5/tcp/123456/p2p/ABC",
		"/ip4/10.0.0.5/tcp/4001/p2p/",
		"/ip4/10.0.0.5/tcp/4001/p2p/AB-C",
		"/ip4/10.0.0.5/udp/4001/p2p/ABC",
		"ip4/10.0.0.5/tcp/4001/p2p/ABC",
		"",
	}
	for _, raw := range cases {
		if Valid(raw) {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
	if _, err := Parse(cases[0]); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidAcceptsBoundaryValues(t *testing.T) {
	for _, raw := range []string{
		"/ip4/0.0.0.0/tcp/1/p2p/a",
		"/ip4/255.255.255.255/tcp/99999/p2p/Z9",
	} {
		if !Valid(raw) {
			t.Fatalf("expected %q to validate", raw)
		}
	}
}
