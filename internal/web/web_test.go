package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	commands "github.com/inference-gateway/operator/internal/commands"
	domain "github.com/inference-gateway/operator/internal/domain"
	storage "github.com/inference-gateway/operator/internal/infra/storage"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	bcrypt "golang.org/x/crypto/bcrypt"
)

type testGroup []commands.Manifest

func (g testGroup) Manifests() []commands.Manifest { return g }

type fixedTimestamps domain.Timestamps

func (f fixedTimestamps) Timestamps() domain.Timestamps { return domain.Timestamps(f) }

func testRegistry(t *testing.T) *commands.Registry {
	t.Helper()
	reg, err := commands.Build(testGroup{
		{
			Name:        "echo",
			Description: "Echo the text argument.",
			ArgNames:    []string{"text"},
			Handler: func(r *http.Request) commands.Response {
				text := commands.Args(r).String("text")
				if text == nil {
					return commands.BadRequest("Empty text")
				}
				return commands.Result(domain.Succeeded("Echo executed successfully.", *text))
			},
		},
		{
			Name: "block",
			Handler: commands.NoArgs(func(ctx context.Context) commands.Response {
				<-ctx.Done()
				return commands.Result(domain.Failed[domain.Empty]("too late"))
			}),
		},
		{
			Name: "explode",
			Handler: func(*http.Request) commands.Response {
				panic("boom")
			},
		},
	})
	require.NoError(t, err)
	return reg
}

func newDispatcher(t *testing.T, base context.Context, timeout time.Duration) (*Dispatcher, *storage.MemoryStorage) {
	t.Helper()
	journal := storage.NewMemoryStorage(10)
	d, err := NewDispatcher(base, DispatcherOptions{
		Registry:   testRegistry(t),
		OpenAPI:    []byte(`{"openapi":"3.0.0"}`),
		Journal:    journal,
		Timestamps: fixedTimestamps{Screenshot: 1, XML: 2},
		Version:    domain.VersionInfo{Version: "1.2.3"},
		Timeout:    timeout,
	})
	require.NoError(t, err)
	return d, journal
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(header) == 1 {
		req.Header.Set("Authorization", header[0])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) domain.Envelope {
	t.Helper()
	var env domain.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestDispatcherStaticRoutes(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), time.Second)

	rec := get(d, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1.2.3", rec.Body.String())

	rec = get(d, "/timestamps")
	assert.JSONEq(t, `{"screenshot":1,"xml":2}`, rec.Body.String())

	rec = get(d, "/commands")
	var listing []domain.CommandInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing, 3)
	assert.Equal(t, domain.CommandInfo{Name: "echo", Description: "Echo the text argument.", ArgNames: []string{"text"}}, listing[0])
	assert.Equal(t, []string{}, listing[1].ArgNames)

	assert.JSONEq(t, `{"openapi":"3.0.0"}`, get(d, "/openapi.json").Body.String())

	rec = get(d, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/echo")

	assert.Contains(t, get(d, "/client").Body.String(), `data-args="text"`)
	assert.Contains(t, get(d, "/redoc").Body.String(), `spec-url="/openapi.json"`)
	assert.Equal(t, http.StatusOK, get(d, "/static/style.css").Code)

	paths := make([]string, 0, len(d.static))
	for path := range d.static {
		paths = append(paths, path)
	}
	assert.ElementsMatch(t, commands.BuiltinPaths, paths)
}

func TestDispatcherNotFound(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), time.Second)

	rec := get(d, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Not Found", rec.Body.String())
}

func TestDispatcherCommand(t *testing.T) {
	d, journal := newDispatcher(t, context.Background(), time.Second)

	rec := get(d, "/echo?text=hi")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Echo executed successfully.","data":"hi"}`, rec.Body.String())

	rec = get(d, "/echo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Empty text", rec.Body.String())

	entries, err := journal.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "echo", entries[1].Command)
	assert.Equal(t, "text=hi", entries[1].Query)
	assert.True(t, entries[1].Success)
	assert.Equal(t, "Echo executed successfully.", entries[1].Message)
	assert.Equal(t, http.StatusBadRequest, entries[0].Status)
	assert.Equal(t, "Empty text", entries[0].Message)
	assert.NotEmpty(t, entries[0].ID)
}

func TestDispatcherTimeout(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), 20*time.Millisecond)

	rec := get(d, "/block")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.Envelope{Success: false, Message: "Request timed out"}, envelope(t, rec))
}

func TestDispatcherCancelledOnStop(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	d, _ := newDispatcher(t, base, time.Minute)

	time.AfterFunc(20*time.Millisecond, cancel)
	rec := get(d, "/block")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Request cancelled", envelope(t, rec).Message)
}

func TestDispatcherPanic(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), time.Second)

	rec := get(d, "/explode")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error: boom", envelope(t, rec).Message)
}

func TestDispatcherHistory(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), time.Second)
	for i := 0; i < 3; i++ {
		get(d, fmt.Sprintf("/echo?text=%d", i))
	}

	var entries []domain.JournalEntry
	require.NoError(t, json.Unmarshal(get(d, "/history?limit=2").Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "text=2", entries[0].Query)

	rec := get(d, "/history?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid limit", rec.Body.String())
}

func TestAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name   string
		key    string
		hash   string
		header string
		allow  bool
	}{
		{"disabled", "", "", "", true},
		{"plain key", "secret", "", "Bearer secret", true},
		{"wrong key", "secret", "", "Bearer nope", false},
		{"missing scheme", "secret", "", "secret", false},
		{"empty token", "secret", "", "Bearer ", false},
		{"hash", "", string(hash), "Bearer hashed-secret", true},
		{"hash mismatch", "", string(hash), "Bearer secret", false},
		{"either", "secret", string(hash), "Bearer hashed-secret", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allow, NewAuthenticator(tt.key, tt.hash).Allow(tt.header))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	d, _ := newDispatcher(t, context.Background(), time.Second)
	h := NewAuthenticator("secret", "").Middleware(d)

	rec := get(h, "/echo?text=hi")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"success":false,"message":"Unauthorized"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, get(h, "/echo?text=hi", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/commands").Code)
}

type stubListener struct{ net.Listener }

func TestListenWithRetry(t *testing.T) {
	var tried []string
	listen := func(_ context.Context, _, address string) (net.Listener, error) {
		tried = append(tried, address)
		if len(tried) < 3 {
			return nil, &net.OpError{Op: "listen", Net: "tcp", Err: syscall.EADDRINUSE}
		}
		return stubListener{}, nil
	}

	ln, err := listenWithRetry(context.Background(), listen, "127.0.0.1", 8080, 10)
	require.NoError(t, err)
	assert.NotNil(t, ln)
	assert.Equal(t, []string{"127.0.0.1:8080", "127.0.0.1:8081", "127.0.0.1:8082"}, tried)
}

func TestListenWithRetryExhausted(t *testing.T) {
	listen := func(context.Context, string, string) (net.Listener, error) {
		return nil, syscall.EADDRINUSE
	}

	_, err := listenWithRetry(context.Background(), listen, "", 9000, 2)
	var collision *domain.PortCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, 9000, collision.BasePort)
	assert.Equal(t, 2, collision.Attempts)
}

func TestListenWithRetryOtherError(t *testing.T) {
	calls := 0
	listen := func(context.Context, string, string) (net.Listener, error) {
		calls++
		return nil, errors.New("permission denied")
	}

	_, err := listenWithRetry(context.Background(), listen, "", 80, 5)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestServerLifecycle(t *testing.T) {
	srv, err := NewServer(Options{Host: "127.0.0.1", Port: 0, PortAttempts: 1, APIKey: "k"}, DispatcherOptions{
		Registry: testRegistry(t),
		Version:  domain.VersionInfo{Version: "dev"},
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	assert.Error(t, srv.Start(context.Background()))

	port := srv.Port()
	require.NotZero(t, port)
	assert.Contains(t, srv.URL(), fmt.Sprintf(":%d", port))

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	_, open := <-srv.Errors()
	assert.False(t, open)
	assert.Zero(t, srv.Port())
}

func TestServerRestartServesCommands(t *testing.T) {
	srv, err := NewServer(Options{Host: "127.0.0.1", Port: 0, PortAttempts: 1}, DispatcherOptions{
		Registry: testRegistry(t),
		Version:  domain.VersionInfo{Version: "dev"},
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/echo?text=again", srv.Port()))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env domain.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success, env.Message)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	h := corsMiddleware(next, CORSOptions{
		Enabled:        true,
		AllowedOrigins: []string{"http://controller.local"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Authorization"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/clickCoordinate", nil)
	req.Header.Set("Origin", "http://controller.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://controller.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/goHome", nil)
	req.Header.Set("Origin", "http://elsewhere")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	disabled := corsMiddleware(next, CORSOptions{})
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
