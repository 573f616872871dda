package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// Options contains the listener and timeout settings of the command server
type Options struct {
	Host         string
	Port         int
	PortAttempts int
	APIKey       string
	APIKeyHash   string

	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration

	CORS CORSOptions
}

// Server is the local HTTP command server
type Server struct {
	opts       Options
	handler    http.Handler
	dispatcher *Dispatcher
	listen     listenFunc

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	server   *http.Server
	listener net.Listener
	errs     chan error
}

// NewServer builds the handler chain: CORS, auth gate, then dispatcher
func NewServer(opts Options, deps DispatcherOptions) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	deps.Timeout = opts.RequestTimeout

	dispatcher, err := NewDispatcher(ctx, deps)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Server{
		opts:       opts,
		handler:    corsMiddleware(NewAuthenticator(opts.APIKey, opts.APIKeyHash).Middleware(dispatcher), opts.CORS),
		dispatcher: dispatcher,
		listen:     defaultListen,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Handler exposes the full handler chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds a port and serves in the background. A stopped server can be started again.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("command server already running")
	}
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.dispatcher.bind(s.ctx)
	}
	base := s.ctx

	ln, err := listenWithRetry(ctx, s.listen, s.opts.Host, s.opts.Port, s.opts.PortAttempts)
	if err != nil {
		return err
	}

	s.listener = ln
	s.errs = make(chan error, 1)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	go func(srv *http.Server, errs chan<- error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Command server error", "error", err)
			errs <- err
		}
		close(errs)
	}(s.server, s.errs)

	logger.Info("Command server started", "addr", ln.Addr().String(), "lan_url", s.lanURL())
	return nil
}

// Errors yields a fatal serve error, and is closed when serving stops
func (s *Server) Errors() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// Port returns the bound port, or zero before Start
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL is the address a controller on the local network should use
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lanURL()
}

func (s *Server) lanURL() string {
	if s.listener == nil {
		return ""
	}
	host := lanIPv4()
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, s.listener.Addr().(*net.TCPAddr).Port)
}

// Stop cancels every in-flight command and shuts the listener down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	logger.Info("Command server stopped")
	return nil
}
