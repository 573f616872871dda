package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	commands "github.com/inference-gateway/operator/internal/commands"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	bcrypt "golang.org/x/crypto/bcrypt"
)

// Paths reachable without credentials
var publicPaths = map[string]bool{
	"/health": true,
}

// Authenticator checks the bearer token of every request
type Authenticator struct {
	key  string
	hash []byte
}

// NewAuthenticator accepts a plaintext key, a bcrypt hash of it, or both.
// With neither, every request passes.
func NewAuthenticator(key, hash string) *Authenticator {
	a := &Authenticator{key: key}
	if hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

// Enabled reports whether a credential is configured
func (a *Authenticator) Enabled() bool {
	return a.key != "" || len(a.hash) > 0
}

// Allow reports whether the Authorization header value grants access
func (a *Authenticator) Allow(header string) bool {
	if !a.Enabled() {
		return true
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	if a.key != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.key)) == 1 {
		return true
	}
	if len(a.hash) > 0 && bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil {
		return true
	}
	return false
}

// Middleware rejects unauthenticated requests with a 401 envelope
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	unauthorized := commands.JSON(http.StatusUnauthorized, domain.Failed[domain.Empty]("Unauthorized").Envelope())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || a.Allow(r.Header.Get("Authorization")) {
			next.ServeHTTP(w, r)
			return
		}
		logger.Debug("Rejected request", "path", r.URL.Path, "remote", r.RemoteAddr)
		unauthorized.Write(w)
	})
}
