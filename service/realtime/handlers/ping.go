package handlers

import (
	"DevLink/service/realtime"
)

type PingHandler struct{}

func NewPingHandler() realtime.Handler { return &PingHandler{} }

func (h *PingHandler) Type() realtime.FrameType { return realtime.FramePing }

func (h *PingHandler) Handle(_ *realtime.Context, _ *realtime.Frame, s *realtime.Session) error {
	s.TrySend(realtime.BuildPongFrame())
	return nil
}
