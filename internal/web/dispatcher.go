package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	commands "github.com/inference-gateway/operator/internal/commands"
	constants "github.com/inference-gateway/operator/internal/constants"
	domain "github.com/inference-gateway/operator/internal/domain"
	storage "github.com/inference-gateway/operator/internal/infra/storage"
	logger "github.com/inference-gateway/operator/internal/logger"
	zap "go.uber.org/zap"
)

// TimestampSource reports the last capture times served at /timestamps
type TimestampSource interface {
	Timestamps() domain.Timestamps
}

// DispatcherOptions configures a Dispatcher
type DispatcherOptions struct {
	Registry   *commands.Registry
	OpenAPI    []byte
	Journal    storage.JournalStorage
	Timestamps TimestampSource
	Version    domain.VersionInfo
	// Timeout bounds each command; zero means constants.DefaultRequestTimeout
	Timeout time.Duration
}

// Dispatcher routes a request to a static page or a command
type Dispatcher struct {
	opts   DispatcherOptions
	static map[string]http.HandlerFunc
	assets http.Handler

	mu   sync.RWMutex
	base context.Context
}

// NewDispatcher binds command contexts to base: cancelling it cancels every in-flight command
func NewDispatcher(base context.Context, opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRequestTimeout
	}
	assets, err := staticHandler()
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{opts: opts, base: base, assets: assets}
	d.static = map[string]http.HandlerFunc{
		"/":             d.handleIndex,
		"/commands":     d.handleCommands,
		"/openapi.json": d.handleOpenAPI,
		"/redoc":        d.handleRedoc,
		"/client":       d.handleClient,
		"/timestamps":   d.handleTimestamps,
		"/history":      d.handleHistory,
		"/health":       d.handleHealth,
	}
	return d, nil
}

// bind replaces the context new commands derive from
func (d *Dispatcher) bind(base context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.base = base
}

func (d *Dispatcher) baseContext() context.Context {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.base
}

// ServeHTTP tries static routes, then commands, then 404
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := d.static[r.URL.Path]; ok {
		h(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, commands.StaticPrefix) {
		d.assets.ServeHTTP(w, r)
		return
	}
	if route, ok := d.opts.Registry.Lookup(r.URL.Path); ok {
		d.dispatch(w, r, route)
		return
	}
	commands.Text(http.StatusNotFound, "Not Found").Write(w)
}

func (d *Dispatcher) dispatch(w http.ResponseWriter, r *http.Request, route commands.Route) {
	requestID := uuid.NewString()
	base := d.baseContext()
	ctx, cancel := context.WithTimeout(base, d.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(r.Context(), cancel)
	defer stop()
	ctx = logger.WithCommand(ctx, route.Name, requestID)

	started := time.Now()
	done := make(chan commands.Response, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.FromContext(ctx).Error("Command panicked", zap.Any("panic", p), zap.Stack("stack"))
				done <- failure(fmt.Sprintf("Internal server error: %v", p))
			}
		}()
		done <- route.Handler(r.WithContext(ctx))
	}()

	var res commands.Response
	select {
	case res = <-done:
	case <-ctx.Done():
		res = interrupted(base, ctx)
		logger.FromContext(ctx).Warn("Command interrupted", zap.Error(ctx.Err()))
	}

	res.Write(w)
	d.record(ctx, route, r, res, time.Since(started), requestID)
}

func interrupted(base, ctx context.Context) commands.Response {
	if base.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure("Request timed out")
	}
	return failure("Request cancelled")
}

func failure(message string) commands.Response {
	return commands.JSON(http.StatusInternalServerError, domain.Failed[domain.Empty](message).Envelope())
}

// record appends a journal entry; journal failures never affect the response
func (d *Dispatcher) record(ctx context.Context, route commands.Route, r *http.Request, res commands.Response, took time.Duration, requestID string) {
	if d.opts.Journal == nil {
		return
	}

	entry := domain.JournalEntry{
		ID:       requestID,
		Command:  route.Name,
		Query:    r.URL.RawQuery,
		Status:   res.Status,
		Duration: took,
		Time:     time.Now(),
	}
	if res.ContentType == "application/json" {
		var env struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(res.Body, &env); err == nil {
			entry.Success = env.Success
			entry.Message = env.Message
		}
	} else {
		entry.Message = string(res.Body)
	}

	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := d.opts.Journal.Append(appendCtx, entry); err != nil {
		logger.FromContext(ctx).Warn("Failed to append journal entry", zap.Error(err))
	}
}

func (d *Dispatcher) handleHealth(w http.ResponseWriter, _ *http.Request) {
	commands.Text(http.StatusOK, d.opts.Version.String()).Write(w)
}

func (d *Dispatcher) handleCommands(w http.ResponseWriter, _ *http.Request) {
	commands.JSON(http.StatusOK, d.opts.Registry.Commands()).Write(w)
}

func (d *Dispatcher) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	commands.Response{Status: http.StatusOK, ContentType: "application/json", Body: d.opts.OpenAPI}.Write(w)
}

func (d *Dispatcher) handleTimestamps(w http.ResponseWriter, _ *http.Request) {
	var ts domain.Timestamps
	if d.opts.Timestamps != nil {
		ts = d.opts.Timestamps.Timestamps()
	}
	commands.JSON(http.StatusOK, ts).Write(w)
}

func (d *Dispatcher) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			commands.BadRequest("Invalid limit").Write(w)
			return
		}
		limit = n
	}
	if d.opts.Journal == nil {
		commands.JSON(http.StatusOK, []domain.JournalEntry{}).Write(w)
		return
	}

	entries, err := d.opts.Journal.List(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to list journal", "error", err)
		failure(fmt.Sprintf("Internal server error: %v", err)).Write(w)
		return
	}
	commands.JSON(http.StatusOK, entries).Write(w)
}
