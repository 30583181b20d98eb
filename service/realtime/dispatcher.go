package realtime

import (
	"fmt"
)

type Context struct {
	Hub *Hub
}

// Handler processes one inbound frame type.
type Handler interface {
	Type() FrameType
	Handle(ctx *Context, f *Frame, s *Session) error
}

type Dispatcher struct {
	handlers map[FrameType]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[FrameType]Handler)}
}

// Register wires a handler; registration happens at startup, before any
// connection is accepted, so the map is read-only afterwards.
func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, s *Session) error {
	h, ok := d.handlers[f.Type]
	if !ok {
		return fmt.Errorf("no handler for type=%s", f.Type)
	}
	return h.Handle(ctx, f, s)
}
