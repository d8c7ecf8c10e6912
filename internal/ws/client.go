package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 1 << 20 // 1MB
)

// Event 是实时通道上统一的事件信封。
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client 代表一条已认证的 WebSocket 连接。连接 ID 在进程内唯一且不透明，
// 物理 socket 归 transport 层所有，Registry 只持有 Client。
type Client struct {
	ID     string
	UserID uint

	hub  string
	conn *websocket.Conn

	// mu 串行化 enqueue 与 close：连接断开与并发推送可能交错，
	// 入队前必须先确认通道还没被关闭。
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub string, userID uint, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// SendEvent 把事件编码后写入该连接的发送队列；队列已满返回 false。
func (c *Client) SendEvent(event string, payload any) bool {
	b, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws marshal event")
		return false
	}
	return c.enqueue(b)
}

func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// close 关闭发送队列，writePump 随之退出并关闭底层连接。幂等，
// 且与 enqueue 互斥，已关闭的连接上的入队只会返回 false，不会 panic。
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump 循环读取入站帧交给 onFrame 处理；连接以任何方式断开时
// cleanup 都保证执行（注销登记正是挂在这里）。
func (c *Client) readPump(onFrame func(data []byte), cleanup func()) {
	defer func() {
		cleanup()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		onFrame(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
