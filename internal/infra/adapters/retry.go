package adapters

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	logger "github.com/inference-gateway/operator/internal/logger"
)

// RetryConfig contains retry settings for outbound bot requests
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier int
}

// RetryableHTTPClient wraps http.Client with retry on transient failures
type RetryableHTTPClient struct {
	client *http.Client
	config RetryConfig
}

// NewRetryableHTTPClient creates a new retryable HTTP client. MaxAttempts below 2 disables retries.
func NewRetryableHTTPClient(timeout time.Duration, config RetryConfig) *RetryableHTTPClient {
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 1
	}
	return &RetryableHTTPClient{
		client: &http.Client{Timeout: timeout},
		config: config,
	}
}

// Do executes req, replaying its body on each retry
func (r *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if r.config.MaxAttempts < 2 {
		return r.client.Do(req)
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := r.client.Do(attemptReq)
		switch {
		case err == nil && (!retryableStatus(resp.StatusCode) || attempt == r.config.MaxAttempts):
			return resp, nil
		case err == nil:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		case !retryableError(err):
			return nil, err
		default:
			lastErr = err
		}

		if attempt == r.config.MaxAttempts {
			break
		}
		backoff := r.backoff(attempt)
		logger.Debug("Retrying bot request", "attempt", attempt, "backoff", backoff.String(), "error", lastErr)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded, last error: %w", r.config.MaxAttempts, lastErr)
}

// rewind returns a request whose body starts from the beginning
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if attempt == 1 || req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func retryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (r *RetryableHTTPClient) backoff(attempt int) time.Duration {
	d := r.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= time.Duration(r.config.BackoffMultiplier)
	}
	if r.config.MaxBackoff > 0 && d > r.config.MaxBackoff {
		d = r.config.MaxBackoff
	}
	return d
}
