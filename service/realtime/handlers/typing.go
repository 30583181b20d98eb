package handlers

import (
	"DevLink/service/realtime"
	"DevLink/tools/decode"
)

// Typing indicator relay: the actor's typing state goes straight to the
// recipient's personal channel. Ephemeral by nature — nothing stored,
// nothing invalidated.

type TypingHandler struct {
	frame realtime.FrameType
	event realtime.EventType
}

func NewTypingStartHandler() realtime.Handler {
	return &TypingHandler{frame: realtime.FrameTypingStart, event: realtime.EventTypingStart}
}

func NewTypingStopHandler() realtime.Handler {
	return &TypingHandler{frame: realtime.FrameTypingStop, event: realtime.EventTypingStop}
}

func (h *TypingHandler) Type() realtime.FrameType { return h.frame }

func (h *TypingHandler) Handle(ctx *realtime.Context, f *realtime.Frame, s *realtime.Session) error {
	if !s.Authorized() {
		s.TrySend(realtime.BuildErrorFrame("not authorized"))
		return nil
	}
	payload, err := decode.DecodeMap[realtime.TypingPayload](f.Payload)
	if err != nil || payload.RecipientID == "" {
		s.TrySend(realtime.BuildErrorFrame("typing payload malformed"))
		return nil
	}
	ctx.Hub.Publish(realtime.UserChannel(payload.RecipientID), realtime.NewEvent(h.event, s.UserID))
	return nil
}
