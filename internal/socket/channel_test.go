package socket

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	websocket "github.com/gorilla/websocket"
	devicetest "github.com/inference-gateway/operator/internal/device/devicetest"
	domain "github.com/inference-gateway/operator/internal/domain"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	services "github.com/inference-gateway/operator/internal/services"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

type peer struct {
	srv    *httptest.Server
	conns  chan *websocket.Conn
	mu     sync.Mutex
	header http.Header
}

func newPeer(t *testing.T) *peer {
	t.Helper()
	p := &peer{conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.header = r.Header.Clone()
		p.mu.Unlock()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p.conns <- conn
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *peer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-p.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("controller never saw a connection")
		return nil
	}
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame Frame) map[string]any {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var ack struct {
		Ack  int64          `json:"ack"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, frame.ID, ack.Ack)
	return ack.Data
}

func newAutomation(t *testing.T) (*services.Automation, *devicetest.Device) {
	t.Helper()
	dev := devicetest.New()
	dev.RootNode = &devicetest.Node{
		Rect:     image.Rect(0, 0, 1080, 1920),
		Children: []*devicetest.Node{{IsEditable: true, IsFocused: true, Rect: image.Rect(0, 0, 100, 100)}},
	}
	coord := overlay.New(overlay.NewLogSurface(overlay.Timing{}), overlay.Options{MessageDuration: time.Minute})
	t.Cleanup(func() { _ = coord.Close() })

	auto := services.NewAutomation(nil)
	auto.Attach(&services.Session{
		Device:   dev,
		Capture:  services.NewCapture(dev, services.CaptureOptions{}),
		Executor: services.NewExecutor(dev),
		Overlay:  coord,
	})
	return auto, dev
}

func connect(t *testing.T, opts Options) (*Channel, *peer, *websocket.Conn) {
	t.Helper()
	auto, _ := newAutomation(t)
	p := newPeer(t)
	opts.URL = strings.TrimPrefix(p.srv.URL, "http://")

	ch := New(auto, opts)
	t.Cleanup(func() { _ = ch.Close() })
	require.Equal(t, Success, ch.Connect(context.Background()))
	return ch, p, p.accept(t)
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"10.0.0.2:3000":          "ws://10.0.0.2:3000",
		"http://host/socket":     "ws://host/socket",
		"https://host":           "wss://host",
		"ws://host:1":            "ws://host:1",
		"wss://secure.host/path": "wss://secure.host/path",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeURL(in), in)
	}
}

func TestConnectStatus(t *testing.T) {
	ch, p, _ := connect(t, Options{Token: "tok"})

	assert.True(t, ch.Connected())
	assert.Equal(t, AlreadyConnected, ch.Connect(context.Background()))

	p.mu.Lock()
	assert.Equal(t, "Bearer tok", p.header.Get("Authorization"))
	p.mu.Unlock()

	require.NoError(t, ch.Close())
	assert.False(t, ch.Connected())
}

func TestConnectFailure(t *testing.T) {
	auto, _ := newAutomation(t)
	ch := New(auto, Options{URL: "127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond})
	assert.Equal(t, Failure, ch.Connect(context.Background()))
	assert.False(t, ch.Connected())
}

func TestCommandEvents(t *testing.T) {
	_, _, conn := connect(t, Options{})

	data := roundTrip(t, conn, Frame{ID: 1, Event: "click_coordinate", Data: json.RawMessage(`{"x":10,"y":20}`)})
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "Click Coordinate (10.0, 20.0) executed successfully.", data["message"])
	assert.NotContains(t, data, "data")

	data = roundTrip(t, conn, Frame{ID: 2, Event: "scroll_coordinate", Data: json.RawMessage(`{"x":500,"y":900,"direction":"down"}`)})
	assert.Equal(t, true, data["success"], data["message"])

	data = roundTrip(t, conn, Frame{ID: 3, Event: "input_text", Data: json.RawMessage(`{"text":"hello"}`)})
	assert.Equal(t, true, data["success"], data["message"])

	data = roundTrip(t, conn, Frame{ID: 4, Event: "capture_screenshot_xml"})
	require.Equal(t, true, data["success"])
	assert.Contains(t, data["data"].(map[string]any)["xml"], "<hierarchy")

	data = roundTrip(t, conn, Frame{ID: 5, Event: "click_coordinate", Data: json.RawMessage(`"oops"`)})
	assert.Equal(t, false, data["success"])
	assert.Contains(t, data["message"], "Invalid event data")
}

func TestIntrospectionEvents(t *testing.T) {
	_, _, conn := connect(t, Options{UserInput: "book a table"})

	data := roundTrip(t, conn, Frame{ID: 1, Event: "request_user_input"})
	assert.Equal(t, map[string]any{
		"success": true,
		"message": "User input requested successfully.",
		"data":    "book a table",
	}, data)

	data = roundTrip(t, conn, Frame{ID: 2, Event: "get_internal_state"})
	assert.Equal(t, map[string]any{"companion_mode": false, "finished_browsing": false}, data)

	roundTrip(t, conn, Frame{ID: 3, Event: "set_companion_mode", Data: json.RawMessage(`{"enabled":true}`)})
	data = roundTrip(t, conn, Frame{ID: 4, Event: "get_internal_state"})
	assert.Equal(t, true, data["companion_mode"])
}

func TestUnknownEvent(t *testing.T) {
	_, _, conn := connect(t, Options{})

	data := roundTrip(t, conn, Frame{ID: 9, Event: "teleport"})
	assert.Equal(t, domain.Envelope{Success: false, Message: "Unknown event: teleport"}, domain.Envelope{
		Success: data["success"].(bool),
		Message: data["message"].(string),
	})
}

func TestHandleAcksExactlyOnce(t *testing.T) {
	auto, _ := newAutomation(t)
	ch := New(auto, Options{})
	ch.handlers["explode"] = func(context.Context, json.RawMessage) any { panic("boom") }

	var mu sync.Mutex
	var acks []Ack
	reply := func(a Ack) {
		mu.Lock()
		defer mu.Unlock()
		acks = append(acks, a)
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(acks)
	}

	ch.handle(nil, Frame{ID: 1, Event: "go_home"}, reply)
	require.Equal(t, 1, count())
	assert.Equal(t, ScopeInactiveMessage, acks[0].Data.(domain.Envelope).Message)

	scope, cancel := context.WithCancel(context.Background())
	ch.handle(scope, Frame{ID: 2, Event: "explode"}, reply)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	ch.handle(scope, Frame{ID: 3, Event: "go_home"}, reply)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, acks, 3)
	assert.Equal(t, "Exception: boom", acks[1].Data.(domain.Envelope).Message)
	assert.Equal(t, ScopeInactiveMessage, acks[2].Data.(domain.Envelope).Message)
}

func TestCloseReleasesScope(t *testing.T) {
	ch, _, conn := connect(t, Options{})
	require.NoError(t, ch.Close())
	assert.Nil(t, ch.currentScope())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}
