package handlers

import (
	"strings"

	"DevLink/service/realtime"
	"DevLink/tools/decode"
)

// JoinHandler / LeaveHandler manage channel membership. Both are idempotent
// at the registry level; a repeated join or a leave of a non-member changes
// nothing and is still acked.

type JoinHandler struct{}

func NewJoinHandler() realtime.Handler { return &JoinHandler{} }

func (h *JoinHandler) Type() realtime.FrameType { return realtime.FrameJoin }

func (h *JoinHandler) Handle(ctx *realtime.Context, f *realtime.Frame, s *realtime.Session) error {
	ch, ok := requireChannel(f, s)
	if !ok {
		return nil
	}
	if !allowedChannel(ch, s.UserID) {
		s.TrySend(realtime.BuildErrorFrame("channel not allowed"))
		return nil
	}
	ctx.Hub.Join(s.ID, ch)
	s.TrySend(realtime.BuildAckFrame(realtime.FrameJoin, ch))
	return nil
}

type LeaveHandler struct{}

func NewLeaveHandler() realtime.Handler { return &LeaveHandler{} }

func (h *LeaveHandler) Type() realtime.FrameType { return realtime.FrameLeave }

func (h *LeaveHandler) Handle(ctx *realtime.Context, f *realtime.Frame, s *realtime.Session) error {
	ch, ok := requireChannel(f, s)
	if !ok {
		return nil
	}
	ctx.Hub.Leave(s.ID, ch)
	s.TrySend(realtime.BuildAckFrame(realtime.FrameLeave, ch))
	return nil
}

func requireChannel(f *realtime.Frame, s *realtime.Session) (string, bool) {
	if !s.Authorized() {
		s.TrySend(realtime.BuildErrorFrame("not authorized"))
		return "", false
	}
	payload, err := decode.DecodeMap[realtime.ChannelPayload](f.Payload)
	if err != nil || payload.Channel == "" {
		s.TrySend(realtime.BuildErrorFrame("channel payload malformed"))
		return "", false
	}
	return payload.Channel, true
}

// allowedChannel: anyone authenticated may subscribe to a followers
// broadcast channel; a personal channel belongs to its owner only.
func allowedChannel(channel, userID string) bool {
	if strings.HasSuffix(channel, ":followers") {
		return strings.HasPrefix(channel, "user:")
	}
	return channel == realtime.UserChannel(userID)
}
