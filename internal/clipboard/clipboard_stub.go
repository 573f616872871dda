//go:build !cgo || !(darwin || linux) || test

package clipboard

import (
	"sync"
)

var (
	mu     sync.Mutex
	memory string
)

// Init initializes the clipboard (stub implementation)
func Init() error {
	return nil
}

// WriteText stores text in process memory so tests can observe it
func WriteText(text string) error {
	mu.Lock()
	defer mu.Unlock()
	memory = text
	return nil
}

// ReadText returns what WriteText stored
func ReadText() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	return memory, nil
}
