package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"DevLink/service/realtime"
	"DevLink/tools/security"
)

var testJWT = security.Options{Secret: []byte("handler-test-secret"), Alg: "HS256", TTL: time.Hour}

func newHandlerCtx() (*realtime.Context, *realtime.Hub) {
	hub := realtime.NewHub(realtime.HubConf{NodeID: "n1", FanoutWorkers: 2, FanoutQueue: 32})
	return &realtime.Context{Hub: hub}, hub
}

func attach(hub *realtime.Hub, id, userID string) *realtime.Session {
	s := realtime.NewSession(id, nil, 16, 16)
	s.UserID = userID
	hub.AttachSession(s)
	return s
}

// drainReply pops one queued reply frame off the session.
func drainReply(t *testing.T, s *realtime.Session) *realtime.Frame {
	t.Helper()
	select {
	case payload := <-s.Send:
		var f realtime.Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("bad reply: %v", err)
		}
		return &f
	case <-time.After(2 * time.Second):
		t.Fatal("no reply frame")
		return nil
	}
}

func TestAuthHandlerBindsUserAndAutoJoins(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "")

	token, _, err := security.Generate(testJWT, "alice")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	h := NewAuthHandler(testJWT)
	err = h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameAuth,
		Payload: map[string]any{"token": token},
	}, s)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	if s.UserID != "alice" {
		t.Fatalf("session not bound, user=%q", s.UserID)
	}
	if f := drainReply(t, s); f.Type != realtime.FrameAck {
		t.Fatalf("expected ack, got %q", f.Type)
	}
	found := false
	for _, m := range hub.Registry().Members(realtime.UserChannel("alice")) {
		if m.ID == "s1" {
			found = true
		}
	}
	if !found {
		t.Fatal("auth must auto-join the personal channel")
	}
}

func TestAuthHandlerRejectsBadToken(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "")

	h := NewAuthHandler(testJWT)
	err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameAuth,
		Payload: map[string]any{"token": "garbage"},
	}, s)
	if err == nil {
		t.Fatal("expected verification error")
	}
	if s.UserID != "" {
		t.Fatal("session must stay unbound")
	}
	if f := drainReply(t, s); f.Type != realtime.FrameError {
		t.Fatalf("expected error frame, got %q", f.Type)
	}
}

func TestJoinRequiresAuth(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "")

	h := NewJoinHandler()
	if err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameJoin,
		Payload: map[string]any{"channel": realtime.FollowersChannel("alice")},
	}, s); err != nil {
		t.Fatalf("join: %v", err)
	}

	if f := drainReply(t, s); f.Type != realtime.FrameError {
		t.Fatalf("expected error frame, got %q", f.Type)
	}
	if len(hub.Registry().Members(realtime.FollowersChannel("alice"))) != 0 {
		t.Fatal("unauthenticated session must not join")
	}
}

func TestJoinFollowersChannelAllowed(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "bob")

	h := NewJoinHandler()
	if err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameJoin,
		Payload: map[string]any{"channel": realtime.FollowersChannel("alice")},
	}, s); err != nil {
		t.Fatalf("join: %v", err)
	}

	if f := drainReply(t, s); f.Type != realtime.FrameAck {
		t.Fatalf("expected ack, got %q", f.Type)
	}
	if len(hub.Registry().Members(realtime.FollowersChannel("alice"))) != 1 {
		t.Fatal("join did not register")
	}
}

func TestJoinForeignPersonalChannelDenied(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "bob")

	h := NewJoinHandler()
	if err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameJoin,
		Payload: map[string]any{"channel": realtime.UserChannel("alice")},
	}, s); err != nil {
		t.Fatalf("join: %v", err)
	}

	if f := drainReply(t, s); f.Type != realtime.FrameError {
		t.Fatalf("expected error frame, got %q", f.Type)
	}
	if len(hub.Registry().Members(realtime.UserChannel("alice"))) != 0 {
		t.Fatal("foreign personal channel must be denied")
	}
}

func TestLeaveNonMemberStillAcked(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "bob")

	h := NewLeaveHandler()
	if err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameLeave,
		Payload: map[string]any{"channel": realtime.FollowersChannel("alice")},
	}, s); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if f := drainReply(t, s); f.Type != realtime.FrameAck {
		t.Fatalf("expected ack, got %q", f.Type)
	}
}

func TestTypingRelayedToRecipient(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()

	actor := attach(hub, "s1", "bob")
	recipient := attach(hub, "s2", "alice")
	hub.Join("s2", realtime.UserChannel("alice"))

	h := NewTypingStartHandler()
	if err := h.Handle(ctx, &realtime.Frame{
		Type:    realtime.FrameTypingStart,
		Payload: map[string]any{"recipient_id": "alice"},
	}, actor); err != nil {
		t.Fatalf("typing: %v", err)
	}

	f := drainReply(t, recipient)
	if f.Type != realtime.FrameEvent || f.Event == nil {
		t.Fatalf("expected event frame, got %+v", f)
	}
	if f.Event.Type != realtime.EventTypingStart || f.Event.ActorID != "bob" {
		t.Fatalf("wrong event %+v", f.Event)
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	ctx, hub := newHandlerCtx()
	defer hub.Close()
	s := attach(hub, "s1", "")

	h := NewPingHandler()
	if err := h.Handle(ctx, &realtime.Frame{Type: realtime.FramePing}, s); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if f := drainReply(t, s); f.Type != realtime.FramePong {
		t.Fatalf("expected pong, got %q", f.Type)
	}
}
