package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Session represents one connected client. A user may hold several sessions
// (multiple devices), each with its own channel memberships.
//
// Outbound frames go through Send and are drained by a single writer
// goroutine; inbound frames go through Inbox and are processed by a single
// reader task. Neither queue is shared between sessions.
type Session struct {
	ID     string // unique within this gateway node
	UserID string // set after a successful auth frame

	WS    *websocket.Conn
	Send  chan []byte
	Inbox chan *Frame

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(id string, ws *websocket.Conn, sendQueue, inboxQueue int) *Session {
	return &Session{
		ID:    id,
		WS:    ws,
		Send:  make(chan []byte, sendQueue),
		Inbox: make(chan *Frame, inboxQueue),
		done:  make(chan struct{}),
	}
}

func (s *Session) Authorized() bool { return s.UserID != "" }

// Close is idempotent; it wakes the writer and the inbox processor.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) Done() <-chan struct{} { return s.done }

// TrySend enqueues a payload without blocking. ok=false means the session is
// closed or its buffer is full — the caller treats either as an unwritable
// transport.
func (s *Session) TrySend(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.Send <- payload:
		return true
	default:
		return false
	}
}
