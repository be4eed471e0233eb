package chat

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// channel is one open interview socket. Writes are serialised because the
// dispatch loop and the liveness task share the connection.
type channel struct {
	key    string
	conn   *websocket.Conn
	cancel context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newChannel(key string, conn *websocket.Conn, cancel context.CancelFunc) *channel {
	return &channel{key: key, conn: conn, cancel: cancel}
}

// send writes v as one JSON text frame.
func (c *channel) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// close sends a close frame with reason and closes the socket. Only the first call has any effect.
func (c *channel) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}

// keepAlive sends {"type":"ping"} every interval until ctx is done, then
// closes the socket so a dispatch loop blocked on read returns.
func (c *channel) keepAlive(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close(websocket.CloseNormalClosure, "")
			return
		case <-ticker.C:
			if err := c.send(statusMessage{Type: "ping"}); err != nil {
				log.Debug("ping failed", zap.String("file_name", c.key), zap.Error(err))
				c.cancel()
			}
		}
	}
}

// ConnectionManager tracks open interview channels so they can be closed on shutdown.
type ConnectionManager struct {
	mu          sync.Mutex
	connections map[*channel]struct{}
}

// NewConnectionManager creates an empty manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{connections: make(map[*channel]struct{})}
}

func (cm *ConnectionManager) add(c *channel) {
	cm.mu.Lock()
	cm.connections[c] = struct{}{}
	cm.mu.Unlock()
}

func (cm *ConnectionManager) remove(c *channel) {
	cm.mu.Lock()
	delete(cm.connections, c)
	cm.mu.Unlock()
}

// Count returns the number of open channels.
func (cm *ConnectionManager) Count() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.connections)
}

// CloseAll cancels every channel. Each handler goroutine tears its own channel down.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for c := range cm.connections {
		c.cancel()
	}
}
