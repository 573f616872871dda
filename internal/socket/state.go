package socket

import (
	"sync"

	logger "github.com/inference-gateway/operator/internal/logger"
)

// Session flag names reported by get_internal_state
const (
	FlagCompanionMode    = "companion_mode"
	FlagFinishedBrowsing = "finished_browsing"
)

// State is the flag bag a controller can toggle and read back
type State struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewState returns a state with every flag off
func NewState() *State {
	return &State{flags: map[string]bool{
		FlagCompanionMode:    false,
		FlagFinishedBrowsing: false,
	}}
}

func (s *State) set(flag string, v bool) {
	s.mu.Lock()
	s.flags[flag] = v
	s.mu.Unlock()
	logger.Info("Internal state updated", "flag", flag, "value", v)
}

// SetCompanionMode toggles companion_mode
func (s *State) SetCompanionMode(enabled bool) {
	s.set(FlagCompanionMode, enabled)
}

// SetFinishedBrowsing toggles finished_browsing
func (s *State) SetFinishedBrowsing(finished bool) {
	s.set(FlagFinishedBrowsing, finished)
}

// Snapshot copies the current flags
func (s *State) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.flags))
	for k, v := range s.flags {
		out[k] = v
	}
	return out
}
