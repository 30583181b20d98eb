package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client→server frame types. Server→client traffic is FrameEvent plus the
// ack/error frames built below.
type FrameType string

const (
	FrameAuth        FrameType = "auth"
	FrameJoin        FrameType = "join"
	FrameLeave       FrameType = "leave"
	FrameTypingStart FrameType = "typingStart"
	FrameTypingStop  FrameType = "typingStop"
	FramePing        FrameType = "ping"

	FrameEvent FrameType = "event"
	FrameAck   FrameType = "ack"
	FrameError FrameType = "error"
	FramePong  FrameType = "pong"
)

type Frame struct {
	Type    FrameType      `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
	Event   *Event         `json:"event,omitempty"`
	Ts      int64          `json:"ts,omitempty"`
}

// ===== 动态 payload 业务结构 =====

type AuthPayload struct {
	Token string `json:"token"`
}

type ChannelPayload struct {
	Channel string `json:"channel"`
}

type TypingPayload struct {
	RecipientID string `json:"recipient_id"`
}

func ParseFrameJSON(raw []byte) (*Frame, error) {
	frame := &Frame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("frame missing type")
	}
	return frame, nil
}

// ---- 构造若干服务端回执 ----

func BuildEventFrame(e *Event) ([]byte, error) {
	return json.Marshal(&Frame{Type: FrameEvent, Event: e, Ts: time.Now().UnixMilli()})
}

func BuildAckFrame(op FrameType, channel string) []byte {
	b, _ := json.Marshal(&Frame{
		Type:    FrameAck,
		Payload: map[string]any{"op": string(op), "channel": channel},
		Ts:      time.Now().UnixMilli(),
	})
	return b
}

func BuildErrorFrame(reason string) []byte {
	b, _ := json.Marshal(&Frame{
		Type:    FrameError,
		Payload: map[string]any{"reason": reason},
		Ts:      time.Now().UnixMilli(),
	})
	return b
}

func BuildPongFrame() []byte {
	b, _ := json.Marshal(&Frame{Type: FramePong, Ts: time.Now().UnixMilli()})
	return b
}
