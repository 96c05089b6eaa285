// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

// Subscriber is the subset of *nats.Conn the websocket feed uses
type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the feed is read-only and public
		return true
	},
}

// feedClient is a dashboard connected to the run event feed
type feedClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	sub    *nats.Subscription
	once   sync.Once
	config WebSocketConfig
	logger *slog.Logger
}

// PredictionsWebSocketHandler streams run completion events to dashboards
func PredictionsWebSocketHandler(subscriber Subscriber, subject string, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade to websocket", "error", err)
			return
		}

		client := &feedClient{
			conn:   conn,
			send:   make(chan []byte, 16),
			done:   make(chan struct{}),
			config: DefaultWebSocketConfig(),
			logger: logger,
		}

		client.sub, err = subscriber.Subscribe(subject, func(msg *nats.Msg) {
			client.enqueue(msg.Data)
		})
		if err != nil {
			logger.Error("failed to subscribe to run events", "subject", subject, "error", err)
			client.close()
			return
		}

		welcome, _ := json.Marshal(map[string]interface{}{ //nolint:errcheck // static payload
			"type":    "welcome",
			"subject": subject,
			"time":    time.Now().UTC(),
		})
		client.enqueue(welcome)

		go client.writePump()
		go client.readPump()

		logger.Debug("websocket feed connected", "remote", r.RemoteAddr)
	}
}

// enqueue drops the message when the client is gone or too slow
func (c *feedClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("dropping event for slow websocket client")
	}
}

// readPump only watches for disconnects and pongs
func (c *feedClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait)) //nolint:errcheck // reset on every pong
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait)) //nolint:errcheck // write reports failure
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait)) //nolint:errcheck // write reports failure
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.done)
		if c.sub != nil {
			_ = c.sub.Unsubscribe() //nolint:errcheck // connection is going away
		}
		_ = c.conn.Close() //nolint:errcheck // connection is going away
	})
}
