package handlers

import (
	"DevLink/logger"
	"DevLink/service/realtime"
	"DevLink/tools/decode"
	"DevLink/tools/security"
)

// AuthHandler must succeed before a session may join channels or receive
// events. On success the session is bound to its user and auto-joined to the
// personal notification channel.
type AuthHandler struct {
	jwtOpts security.Options
}

func NewAuthHandler(jwtOpts security.Options) realtime.Handler {
	return &AuthHandler{jwtOpts: jwtOpts}
}

func (h *AuthHandler) Type() realtime.FrameType { return realtime.FrameAuth }

func (h *AuthHandler) Handle(ctx *realtime.Context, f *realtime.Frame, s *realtime.Session) error {
	payload, err := decode.DecodeMap[realtime.AuthPayload](f.Payload)
	if err != nil {
		s.TrySend(realtime.BuildErrorFrame("auth payload malformed"))
		return err
	}
	userID, err := security.Verify(h.jwtOpts, payload.Token)
	if err != nil {
		s.TrySend(realtime.BuildErrorFrame("auth failed"))
		return err
	}

	s.UserID = userID
	ctx.Hub.Join(s.ID, realtime.UserChannel(userID))
	s.TrySend(realtime.BuildAckFrame(realtime.FrameAuth, realtime.UserChannel(userID)))
	logger.Infof("[ws] session authorized session=%s user=%s", s.ID, userID)
	return nil
}
