package presence

import "testing"

func TestOnConnectedIsIdempotent(t *testing.T) {
	once := NewTracker()
	once.OnConnected("p")

	twice := NewTracker()
	if !twice.OnConnected("p") {
		t.Fatalf("first connect should change the set")
	}
	if twice.OnConnected("p") {
		t.Fatalf("second connect should be absorbed")
	}
	a, b := once.Snapshot(), twice.Snapshot()
	if len(a) != len(b) || a[0] != b[0] {
		t.Fatalf("snapshots differ: %v vs %v", a, b)
	}
}

func TestOnDisconnectedUnknownPeer(t *testing.T) {
	tr := NewTracker()
	if tr.OnDisconnected("ghost") {
		t.Fatalf("disconnect of unknown peer should be a no-op")
	}
	tr.OnConnected("p")
	if !tr.IsConnected("p") {
		t.Fatalf("p should be connected")
	}
	if !tr.OnDisconnected("p") || tr.IsConnected("p") {
		t.Fatalf("p should be removed")
	}
	if len(tr.Snapshot()) != 0 {
		t.Fatalf("expected empty presence set")
	}
}
