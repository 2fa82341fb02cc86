package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/pkg/code"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second
)

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient 单个连接及其所属用户
type WebsocketClient struct {
	conn     *gws.Conn
	done     chan struct{}
	doneOnce sync.Once
	UID      string
}

func (c *WebsocketClient) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// 定期发送 Ping 消息
func (c *WebsocketClient) pingLoop(interval time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				lg.Warn("WebsocketServer Client Ping err", zap.String(logger.FieldUID, c.UID), zap.Error(err))
				return
			}
		}
	}
}

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer 按用户维护连接，向某个用户的全部连接推送消息
// 连接在升级前已通过 UserAuthToken 中间件认证
type WebsocketServer struct {
	clients     ConnStorage
	userClients map[string]ConnStorage
	mu          sync.RWMutex
	up          *gws.Upgrader
	config      *WebsocketServerConfig
	logger      *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig, lg *zap.Logger) *WebsocketServer {
	if c.PingInterval <= 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait <= 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	w := &WebsocketServer{
		clients:     make(ConnStorage),
		userClients: make(map[string]ConnStorage),
		config:      &c,
		logger:      lg,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Run 返回升级 WebSocket 的 gin handler
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := GetUID(c)
		if uid == "" {
			NewResponse(c).ToResponse(code.ErrorNotUserAuthToken)
			return
		}

		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("WebsocketServer Upgrade err", zap.String(logger.FieldUID, uid), zap.Error(err))
			return
		}
		client := &WebsocketClient{conn: socket, done: make(chan struct{}), UID: uid}
		w.addClient(client)
		w.logger.Info("WebsocketServer User Enters", zap.String(logger.FieldUID, uid), zap.Int("count", w.UserCount(uid)))

		go client.pingLoop(w.config.PingInterval, w.logger)
		go socket.ReadLoop()
	}
}

// BroadcastToUser 向 uid 的所有连接推送 "action|json"，返回推送的连接数
func (w *WebsocketServer) BroadcastToUser(uid, action string, codeObj *code.Code) int {
	content, err := sonic.Marshal(NewRes(codeObj))
	if err != nil {
		w.logger.Error("WebsocketServer Broadcast marshal err", zap.Error(err))
		return 0
	}
	payload := []byte(fmt.Sprintf("%s|%s", action, content))

	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.userClients[uid]))
	for conn := range w.userClients[uid] {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()

	if len(conns) == 0 {
		return 0
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()
	sent := 0
	for _, conn := range conns {
		if err := b.Broadcast(conn); err == nil {
			sent++
		}
	}
	return sent
}

// UserCount uid 当前的连接数
func (w *WebsocketServer) UserCount(uid string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.userClients[uid])
}

// Count 全部连接数
func (w *WebsocketServer) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

// CloseAll 关闭全部连接
func (w *WebsocketServer) CloseAll() {
	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.clients))
	for conn := range w.clients {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()
	for _, conn := range conns {
		conn.WriteClose(1001, []byte("ServerShutdown"))
	}
}

func (w *WebsocketServer) addClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
	if w.userClients[c.UID] == nil {
		w.userClients[c.UID] = make(ConnStorage)
	}
	w.userClients[c.UID][c.conn] = c
}

func (w *WebsocketServer) removeClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.clients[conn]
	if !ok {
		return nil
	}
	delete(w.clients, conn)
	delete(w.userClients[c.UID], conn)
	if len(w.userClients[c.UID]) == 0 {
		delete(w.userClients, c.UID)
	}
	return c
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	if c := w.removeClient(conn); c != nil {
		c.close()
		w.logger.Info("WebsocketServer User Leave", zap.String(logger.FieldUID, c.UID), zap.Error(err))
	}
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

// OnMessage 客户端只接收推送，除 close 外的消息仅用于续期
func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
	if message.Opcode == gws.OpcodeText && message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
	}
}
