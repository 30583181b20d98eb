package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func newTestHub() *Hub {
	return NewHub(HubConf{NodeID: "node-test", FanoutWorkers: 4, FanoutQueue: 64})
}

// drainFrame pops one payload off the session's send queue and decodes it.
func drainFrame(t *testing.T, s *Session) *Frame {
	t.Helper()
	select {
	case payload := <-s.Send:
		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("bad frame payload: %v", err)
		}
		return &f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestPublishReachesChannelMembers(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	s := NewSession("s1", nil, 16, 16)
	h.AttachSession(s)
	h.Join("s1", UserChannel("alice"))

	h.Publish(UserChannel("alice"), NewEvent(EventLike, "bob").WithPost("p1"))

	f := drainFrame(t, s)
	if f.Type != FrameEvent {
		t.Fatalf("expected event frame, got %q", f.Type)
	}
	if f.Event == nil || f.Event.Type != EventLike || f.Event.ActorID != "bob" || f.Event.PostID != "p1" {
		t.Fatalf("unexpected event: %+v", f.Event)
	}
}

func TestPublishSkipsNonMembers(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	member := NewSession("s1", nil, 16, 16)
	outsider := NewSession("s2", nil, 16, 16)
	h.AttachSession(member)
	h.AttachSession(outsider)
	h.Join("s1", FollowersChannel("alice"))

	h.Publish(FollowersChannel("alice"), NewEvent(EventNewPost, "alice").WithPost("p1"))

	drainFrame(t, member)
	select {
	case <-outsider.Send:
		t.Fatal("non-member received the event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishOrderPerChannel(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	s := NewSession("s1", nil, 256, 16)
	h.AttachSession(s)
	h.Join("s1", UserChannel("alice"))

	const n = 50
	for i := 0; i < n; i++ {
		h.Publish(UserChannel("alice"), NewEvent(EventComment, "bob").WithPost(fmt.Sprintf("p%03d", i)))
	}

	for i := 0; i < n; i++ {
		f := drainFrame(t, s)
		want := fmt.Sprintf("p%03d", i)
		if f.Event == nil || f.Event.PostID != want {
			t.Fatalf("out of order at %d: want post %s, got %+v", i, want, f.Event)
		}
	}
}

func TestUnwritableSessionIsKicked(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	// buffer of 1: the second delivery cannot be enqueued
	stuck := NewSession("s1", nil, 1, 16)
	healthy := NewSession("s2", nil, 16, 16)
	h.AttachSession(stuck)
	h.AttachSession(healthy)
	h.Join("s1", UserChannel("alice"))
	h.Join("s2", UserChannel("alice"))

	h.Publish(UserChannel("alice"), NewEvent(EventFollow, "bob"))
	h.Publish(UserChannel("alice"), NewEvent(EventFollow, "carol"))

	// healthy member keeps receiving
	drainFrame(t, healthy)
	drainFrame(t, healthy)

	deadline := time.Now().Add(2 * time.Second)
	for h.Registry().Session("s1") != nil {
		if time.Now().After(deadline) {
			t.Fatal("stuck session was not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case <-stuck.Done():
	default:
		t.Fatal("kicked session should be closed")
	}
}

func TestClosedSessionIsKickedOnDelivery(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	s := NewSession("s1", nil, 16, 16)
	h.AttachSession(s)
	h.Join("s1", FollowersChannel("alice"))
	s.Close()

	h.Publish(FollowersChannel("alice"), NewEvent(EventNewPost, "alice").WithPost("p1"))

	deadline := time.Now().Add(2 * time.Second)
	for h.Registry().Session("s1") != nil {
		if time.Now().After(deadline) {
			t.Fatal("closed session was not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type recordingRelay struct {
	ch chan string
}

func (r *recordingRelay) Forward(channel string, e *Event) { r.ch <- channel }

func TestPublishMirrorsThroughRelay(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	relay := &recordingRelay{ch: make(chan string, 1)}
	h.SetRelay(relay)

	h.Publish(UserChannel("alice"), NewEvent(EventLike, "bob"))

	select {
	case ch := <-relay.ch:
		if ch != UserChannel("alice") {
			t.Fatalf("relayed wrong channel %q", ch)
		}
	case <-time.After(time.Second):
		t.Fatal("relay was not invoked")
	}
}

func TestPublishLocalDoesNotRelay(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	relay := &recordingRelay{ch: make(chan string, 1)}
	h.SetRelay(relay)

	h.PublishLocal(UserChannel("alice"), NewEvent(EventLike, "bob"))

	select {
	case <-relay.ch:
		t.Fatal("PublishLocal must not hit the relay")
	case <-time.After(100 * time.Millisecond):
	}
}
