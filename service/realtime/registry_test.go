package realtime

import (
	"testing"
)

func newTestSession(id string) *Session {
	return NewSession(id, nil, 16, 16)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	r.AddSession(s)

	r.Join("s1", "user:alice:followers")
	r.Join("s1", "user:alice:followers")

	if got := len(r.Members("user:alice:followers")); got != 1 {
		t.Fatalf("expected 1 member after double join, got %d", got)
	}
	if got := len(r.Channels("s1")); got != 1 {
		t.Fatalf("expected 1 channel membership, got %d", got)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	r.AddSession(s)
	r.Join("s1", "user:bob")

	r.Leave("s1", "user:bob")
	r.Leave("s1", "user:bob")
	// leaving a channel we never joined is a no-op too
	r.Leave("s1", "user:carol")

	if got := len(r.Members("user:bob")); got != 0 {
		t.Fatalf("expected 0 members after leave, got %d", got)
	}
}

func TestJoinUnknownSessionIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Join("ghost", "user:alice")
	if got := len(r.Members("user:alice")); got != 0 {
		t.Fatalf("join of unknown session must not register, got %d members", got)
	}
}

func TestRemoveSessionDropsAllMemberships(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	r.AddSession(s)
	r.Join("s1", "user:alice")
	r.Join("s1", "user:bob:followers")

	r.RemoveSession("s1")

	if len(r.Members("user:alice")) != 0 || len(r.Members("user:bob:followers")) != 0 {
		t.Fatal("memberships must vanish with the session")
	}
	if r.Session("s1") != nil {
		t.Fatal("session still resolvable after removal")
	}
	if got := len(r.Channels("s1")); got != 0 {
		t.Fatalf("expected no channels for removed session, got %d", got)
	}
}

func TestMembersSnapshotIsolated(t *testing.T) {
	r := NewRegistry()
	s1, s2 := newTestSession("s1"), newTestSession("s2")
	r.AddSession(s1)
	r.AddSession(s2)
	r.Join("s1", "user:alice:followers")
	r.Join("s2", "user:alice:followers")

	members := r.Members("user:alice:followers")
	r.Leave("s2", "user:alice:followers")

	if len(members) != 2 {
		t.Fatalf("snapshot should keep 2 members, got %d", len(members))
	}
	if got := len(r.Members("user:alice:followers")); got != 1 {
		t.Fatalf("live view should have 1 member, got %d", got)
	}
}
