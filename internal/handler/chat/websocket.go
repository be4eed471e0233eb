// Package chat serves the interview channel: one WebSocket per résumé over
// which candidate utterances arrive and interviewer replies are pushed.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
	interviewmodel "github.com/zhouzirui/interview-sim/backend/internal/model/interview"
	interviewsvc "github.com/zhouzirui/interview-sim/backend/internal/service/interview"
)

const (
	defaultPingInterval = 30 * time.Second

	messageNoFileName = "No file_name provided"
)

type exchanger interface {
	Exchange(ctx context.Context, key, utterance string) (interviewsvc.Reply, error)
}

type channelRegistry interface {
	Get(key string) (interviewmodel.Session, error)
	AttachChannel(key string, cancel context.CancelFunc) (func(), error)
}

type inboundMessage struct {
	Type     string `json:"type"`
	FileName string `json:"file_name"`
	Query    string `json:"query"`
}

type statusMessage struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

type responseMessage struct {
	Type     string `json:"type"`
	Response string `json:"response"`
	Audio    string `json:"audio"`
	Finished bool   `json:"finished"`
}

type errorMessage struct {
	Error string `json:"error"`
}

// Options configures WebSocketHandler.
type Options struct {
	PingInterval time.Duration
	Manager      *ConnectionManager
	Log          *zap.Logger
}

// WebSocketHandler serves the interview channel.
type WebSocketHandler struct {
	engine       exchanger
	sessions     channelRegistry
	manager      *ConnectionManager
	pingInterval time.Duration
	upgrader     websocket.Upgrader
	log          *zap.Logger
}

// NewWebSocketHandler creates a handler; zero Options fields take defaults.
func NewWebSocketHandler(engine exchanger, sessions channelRegistry, opts Options) *WebSocketHandler {
	interval := opts.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	manager := opts.Manager
	if manager == nil {
		manager = NewConnectionManager()
	}
	return &WebSocketHandler{
		engine:       engine,
		sessions:     sessions,
		manager:      manager,
		pingInterval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.Named(opts.Log, "websocket"),
	}
}

// RegisterWebSocketRoutes mounts GET /ws/chat.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleWebSocket)
}

// Manager exposes the registry of open channels.
func (h *WebSocketHandler) Manager() *ConnectionManager {
	return h.manager
}

// handleWebSocket runs one channel from upgrade to teardown.
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	readTimeout := 3 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ch := newChannel("", conn, cancel)
	defer ch.close(websocket.CloseNormalClosure, "")

	key, ok := h.handshake(ch)
	if !ok {
		return
	}
	ch.key = key

	detach, err := h.sessions.AttachChannel(key, cancel)
	if err != nil {
		_ = ch.send(errorMessage{Error: apperr.Message(err)})
		return
	}
	defer detach()

	h.manager.add(ch)
	defer h.manager.remove(ch)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch.keepAlive(ctx, h.pingInterval, h.log)
	}()
	defer wg.Wait()
	defer cancel()

	h.log.Info("channel opened", logger.Session(key))
	h.dispatch(ctx, ch, readTimeout)
	h.log.Info("channel closed", logger.Session(key))
}

// handshake reads the first frame, which must name an ingested résumé.
func (h *WebSocketHandler) handshake(ch *channel) (string, bool) {
	var init inboundMessage
	if err := ch.conn.ReadJSON(&init); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			h.log.Debug("handshake read failed", zap.Error(err))
			return "", false
		}
	}

	key := strings.TrimSpace(init.FileName)
	if key == "" {
		_ = ch.send(errorMessage{Error: messageNoFileName})
		return "", false
	}
	if _, err := h.sessions.Get(key); err != nil {
		_ = ch.send(errorMessage{Error: apperr.Message(err)})
		return "", false
	}
	return key, true
}

// dispatch forwards queries to the engine until the socket fails, the
// channel is cancelled or the interview is finished.
func (h *WebSocketHandler) dispatch(ctx context.Context, ch *channel, readTimeout time.Duration) {
	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read error", logger.Session(ch.key), zap.Error(err))
			}
			return
		}
		_ = ch.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "pong" || strings.TrimSpace(msg.Query) == "" {
			continue
		}

		if err := ch.send(statusMessage{Type: "status", Status: "processing"}); err != nil {
			return
		}

		reply, err := h.engine.Exchange(ctx, ch.key, msg.Query)
		// the deadline may have lapsed while the reply was produced
		_ = ch.conn.SetReadDeadline(time.Now().Add(readTimeout))
		switch {
		case errors.Is(err, interviewsvc.ErrEmptyUtterance):
			continue
		case errors.Is(err, interviewsvc.ErrSessionClosed):
			_ = ch.send(errorMessage{Error: err.Error()})
			return
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			if sendErr := ch.send(errorMessage{Error: apperr.Message(err)}); sendErr != nil {
				return
			}
			continue
		}

		if err := ch.send(responseMessage{
			Type:     "response",
			Response: reply.Text,
			Audio:    reply.AudioURL,
			Finished: reply.Finished,
		}); err != nil {
			return
		}
		if reply.Finished {
			return
		}
	}
}
