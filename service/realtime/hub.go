package realtime

import (
	"DevLink/logger"
)

// Relay forwards published events to sibling gateway nodes. The hub works
// without one (single-node deployments pass nil).
type Relay interface {
	Forward(channel string, e *Event)
}

// Hub is the notification fan-out service: a channel registry plus a
// delivery pool. Publish is fire-and-forget — no acks, no retries, no
// persistence, and a dead member never blocks delivery to the rest.
type Hub struct {
	nodeID string
	reg    *Registry
	fan    *Fanout
	relay  Relay
}

type HubConf struct {
	NodeID        string
	FanoutWorkers int
	FanoutQueue   int
}

func NewHub(conf HubConf) *Hub {
	h := &Hub{
		nodeID: conf.NodeID,
		reg:    NewRegistry(),
	}
	h.fan = NewFanout(conf.FanoutWorkers, conf.FanoutQueue, h.deliver)
	return h
}

func (h *Hub) NodeID() string      { return h.nodeID }
func (h *Hub) Registry() *Registry { return h.reg }

// SetRelay wires the cross-node bridge. Must be called before traffic.
func (h *Hub) SetRelay(r Relay) { h.relay = r }

// Join subscribes a session to a channel. Idempotent.
func (h *Hub) Join(sessionID, channel string) {
	h.reg.Join(sessionID, channel)
}

// Leave unsubscribes. Idempotent.
func (h *Hub) Leave(sessionID, channel string) {
	h.reg.Leave(sessionID, channel)
}

// Publish delivers the event to every current member of channel, in publish
// order per channel, and mirrors it to sibling nodes through the relay.
// It never touches the stores or the cache.
func (h *Hub) Publish(channel string, e *Event) {
	h.publishLocal(channel, e)
	if h.relay != nil {
		h.relay.Forward(channel, e)
	}
}

// PublishLocal injects an event without relaying it again — used by the
// bridge for events that originated on another node.
func (h *Hub) PublishLocal(channel string, e *Event) {
	h.publishLocal(channel, e)
}

func (h *Hub) publishLocal(channel string, e *Event) {
	payload, err := BuildEventFrame(e)
	if err != nil {
		logger.Errorf("[hub] encode event failed type=%s err=%v", e.Type, err)
		return
	}
	if !h.fan.Enqueue(channel, payload) {
		logger.Warnf("[hub] fanout queue full, drop event channel=%s type=%s", channel, e.Type)
	}
}

// deliver runs on a fanout worker. An unwritable member (closed conn or
// saturated send buffer) is kicked — the implicit leave — and delivery
// continues to the remaining members.
func (h *Hub) deliver(channel string, payload []byte) {
	for _, s := range h.reg.Members(channel) {
		if !s.TrySend(payload) {
			logger.Infof("[hub] drop unwritable session=%s user=%s channel=%s", s.ID, s.UserID, channel)
			h.Kick(s)
		}
	}
}

// AttachSession registers a freshly upgraded connection.
func (h *Hub) AttachSession(s *Session) {
	h.reg.AddSession(s)
}

// Kick closes the session and removes all of its memberships.
func (h *Hub) Kick(s *Session) {
	s.Close()
	h.reg.RemoveSession(s.ID)
}

func (h *Hub) Close() {
	h.fan.Close()
}
