// Package socket connects the agent to a remote controller over a websocket
// and answers its events with the same envelopes the HTTP server returns.
package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	websocket "github.com/gorilla/websocket"
	constants "github.com/inference-gateway/operator/internal/constants"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	services "github.com/inference-gateway/operator/internal/services"
	zap "go.uber.org/zap"
)

// ConnectionStatus is the outcome of Connect
type ConnectionStatus string

const (
	AlreadyConnected ConnectionStatus = "already_connected"
	Success          ConnectionStatus = "success"
	Failure          ConnectionStatus = "failure"
)

// ScopeInactiveMessage acks events that arrive without a live command scope
const ScopeInactiveMessage = "Command scope is not active"

// Frame is an inbound event
type Frame struct {
	ID    int64           `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack answers the frame with the same id
type Ack struct {
	Ack  int64 `json:"ack"`
	Data any   `json:"data"`
}

// Options configures the controller channel
type Options struct {
	URL   string
	Token string
	// UserInput is served to request_user_input
	UserInput      string
	ConnectTimeout time.Duration
}

// Channel is a single non-reconnecting controller connection
type Channel struct {
	opts     Options
	auto     *services.Automation
	state    *State
	dialer   *websocket.Dialer
	handlers map[string]eventHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	connID  string
	scope   context.Context
	cancel  context.CancelFunc
	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates a disconnected channel
func New(auto *services.Automation, opts Options) *Channel {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = constants.SocketConnectTimeout
	}
	c := &Channel{
		opts:  opts,
		auto:  auto,
		state: NewState(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.ConnectTimeout,
		},
	}
	c.registerEvents()
	return c
}

// State exposes the session flags
func (c *Channel) State() *State {
	return c.state
}

// Connected reports whether a connection is live
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// normalizeURL maps http(s) schemes to ws(s) and gives a bare host ws://
func normalizeURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "ws://"), strings.HasPrefix(raw, "wss://"):
		return raw
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	default:
		return "ws://" + raw
	}
}

// Connect dials the controller once. It never retries.
func (c *Channel) Connect(ctx context.Context) ConnectionStatus {
	if c.Connected() {
		logger.Info("Socket already connected")
		return AlreadyConnected
	}
	_ = c.Close()
	c.state.SetFinishedBrowsing(false)

	url := normalizeURL(c.opts.URL)
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	logger.Info("Connecting to controller", "url", url)
	conn, resp, err := c.dialer.DialContext(dialCtx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		logger.Error("Socket connection failed", "url", url, "error", err)
		return Failure
	}

	scope, stop := context.WithCancel(context.Background())
	connID := uuid.NewString()
	scope = logger.With(scope, zap.String("connection_id", connID))

	c.mu.Lock()
	c.conn = conn
	c.connID = connID
	c.scope = scope
	c.cancel = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)

	logger.Info("Socket connected", "url", url, "connection_id", connID)
	return Success
}

// Close cancels in-flight events and releases the connection
func (c *Channel) Close() error {
	c.mu.Lock()
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel, c.scope = nil, nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := conn.Close()
	c.wg.Wait()
	logger.Info("Socket connection resources released")
	return err
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("Socket disconnected", "error", err)
			c.release(conn)
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Warn("Dropping malformed frame", "error", err)
			continue
		}

		logger.Info("Received event", "event", frame.Event, "id", frame.ID)
		c.handle(c.currentScope(), frame, func(ack Ack) { c.reply(conn, ack) })
	}
}

// release drops conn if it is still current
func (c *Channel) release(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.cancel()
	c.conn, c.cancel, c.scope = nil, nil, nil
	_ = conn.Close()
}

func (c *Channel) currentScope() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

func (c *Channel) reply(conn *websocket.Conn, ack Ack) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(constants.SocketWriteTimeout))
	if err := conn.WriteJSON(ack); err != nil {
		logger.Warn("Failed to send ack", "ack", ack.Ack, "error", err)
	}
}

// handle runs the event in its own goroutine and calls reply exactly once
func (c *Channel) handle(scope context.Context, frame Frame, reply func(Ack)) {
	var once sync.Once
	send := func(ack Ack) { once.Do(func() { reply(ack) }) }
	fail := func(msg string) {
		send(Ack{Ack: frame.ID, Data: domain.Failed[domain.Empty](msg).Envelope()})
	}

	if scope == nil || scope.Err() != nil {
		fail(ScopeInactiveMessage)
		return
	}
	handler, ok := c.handlers[frame.Event]
	if !ok {
		fail(fmt.Sprintf("Unknown event: %s", frame.Event))
		return
	}

	ctx := logger.With(scope, zap.String("event", frame.Event), zap.Int64("id", frame.ID))
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.FromContext(ctx).Error("Event handler panicked", zap.Any("panic", p))
				fail(fmt.Sprintf("Exception: %v", p))
			}
		}()

		data := handler(ctx, frame.Data)
		send(Ack{Ack: frame.ID, Data: data})
		logger.FromContext(ctx).Info("Acked event")
	}()
}
