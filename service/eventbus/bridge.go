package eventbus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"DevLink/logger"
	"DevLink/service/realtime"
)

// Bridge mirrors hub publishes to sibling gateway nodes over core NATS.
// Delivery stays fire-and-forget end to end: no JetStream, no persistence —
// an event a remote node misses is simply missed.
//
// Envelopes are stamped with the origin node so a node never re-delivers its
// own traffic.
type Bridge struct {
	nc      *nats.Conn
	subject string
	nodeID  string
	hub     *realtime.Hub
	sub     *nats.Subscription
}

type envelope struct {
	Origin  string          `json:"origin"`
	Channel string          `json:"channel"`
	Event   *realtime.Event `json:"event"`
}

func NewBridge(url, subject, nodeID string, hub *realtime.Hub) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("devlink-"+nodeID),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	b := &Bridge{nc: nc, subject: subject, nodeID: nodeID, hub: hub}
	b.sub, err = nc.Subscribe(subject, b.onRemote)
	if err != nil {
		nc.Close()
		return nil, err
	}
	logger.Infof("[eventbus] bridge up node=%s subject=%s", nodeID, subject)
	return b, nil
}

// Forward implements realtime.Relay.
func (b *Bridge) Forward(channel string, e *realtime.Event) {
	data, err := json.Marshal(&envelope{Origin: b.nodeID, Channel: channel, Event: e})
	if err != nil {
		logger.Errorf("[eventbus] marshal envelope err=%v", err)
		return
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		// Best effort only; local delivery already happened.
		logger.Warnf("[eventbus] forward dropped channel=%s err=%v", channel, err)
	}
}

func (b *Bridge) onRemote(msg *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		logger.Warnf("[eventbus] bad envelope err=%v", err)
		return
	}
	if env.Origin == b.nodeID || env.Event == nil {
		return
	}
	b.hub.PublishLocal(env.Channel, env.Event)
}

func (b *Bridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.nc.Close()
}
