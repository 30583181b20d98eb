package realtime

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"DevLink/logger"
	"DevLink/tools/ids"
	"DevLink/tools/safe"
)

// ---- 常量参数（建议值） ----
const (
	pingInterval   = 25 * time.Second
	writeWait      = 10 * time.Second
	firstPingDelay = 5 * time.Second // 首个 ping 延后，避免刚连上即写超时
	maxFrameBytes  = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type ServerConf struct {
	SendQueueSize  int
	InboxQueueSize int
}

// Server owns the websocket endpoint: upgrade, session lifecycle, and the
// three per-connection tasks (read loop, inbox processor, writer).
type Server struct {
	hub  *Hub
	disp *Dispatcher
	gen  *ids.Generator
	conf ServerConf
}

func NewServer(hub *Hub, disp *Dispatcher, gen *ids.Generator, conf ServerConf) *Server {
	if conf.SendQueueSize <= 0 {
		conf.SendQueueSize = 256
	}
	if conf.InboxQueueSize <= 0 {
		conf.InboxQueueSize = 64
	}
	return &Server{hub: hub, disp: disp, gen: gen, conf: conf}
}

func (s *Server) Hub() *Hub { return s.hub }

// HandleWS upgrades the request and runs the connection to completion.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	sess := NewSession(s.gen.NextString(), ws, s.conf.SendQueueSize, s.conf.InboxQueueSize)
	s.hub.AttachSession(sess)
	logger.Infof("[ws] connected session=%s remote=%v", sess.ID, ws.RemoteAddr())

	safe.Go(func() { s.writePump(sess) })
	safe.Go(func() { s.inboxLoop(sess) })

	s.readLoop(sess)

	// 退出阶段：注销会话、关闭队列、回收连接
	s.hub.Kick(sess)
	logger.Infof("[ws] closed session=%s user=%s", sess.ID, sess.UserID)
}

// readLoop 只读不写；出错即退出（写协程收尾）。
func (s *Server) readLoop(sess *Session) {
	ws := sess.WS
	ws.SetReadLimit(maxFrameBytes)
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed session=%s err=%v", sess.ID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout session=%s err=%v", sess.ID, rerr)
			} else {
				logger.Infof("[ws] read err session=%s err=%v", sess.ID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrameJSON(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame session=%s err=%v sample=%q", sess.ID, perr, sample)
			continue
		}

		// 每连接一个入站队列，由专属协程消费；满了直接丢弃（客户端重发）
		select {
		case sess.Inbox <- frame:
		case <-sess.Done():
			return
		default:
			logger.Warnf("[ws] inbox full, drop frame session=%s type=%s", sess.ID, frame.Type)
		}
	}
}

// inboxLoop processes inbound frames one at a time, so handler effects for a
// single session are sequential.
func (s *Server) inboxLoop(sess *Session) {
	ctx := &Context{Hub: s.hub}
	for {
		select {
		case frame := <-sess.Inbox:
			if err := s.disp.Dispatch(ctx, frame, sess); err != nil {
				logger.Infof("[ws] handler err session=%s type=%s err=%v", sess.ID, frame.Type, err)
			}
		case <-sess.Done():
			return
		}
	}
}

// writePump is the single writer for the connection: business frames first,
// pings in between, Close on the way out.
func (s *Server) writePump(sess *Session) {
	ws := sess.WS
	ticker := time.NewTicker(pingInterval)
	first := time.NewTimer(firstPingDelay)
	defer func() {
		ticker.Stop()
		first.Stop()
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = ws.Close()
	}()

	for {
		select {
		case payload := <-sess.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write err session=%s user=%s err=%v", sess.ID, sess.UserID, err)
				sess.Close()
				return
			}
		case <-first.C:
			if !s.ping(sess, "first ping") {
				return
			}
		case <-ticker.C:
			if !s.ping(sess, "ping") {
				return
			}
		case <-sess.Done():
			return
		}
	}
}

func (s *Server) ping(sess *Session, what string) bool {
	deadline := time.Now().Add(writeWait)
	_ = sess.WS.SetWriteDeadline(deadline)
	if err := sess.WS.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
		logger.Infof("[ws] %s err session=%s user=%s err=%v", what, sess.ID, sess.UserID, err)
		sess.Close()
		return false
	}
	return true
}
