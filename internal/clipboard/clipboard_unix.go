//go:build cgo && (darwin || linux) && !test

package clipboard

import (
	"fmt"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes the system clipboard once per process
func Init() error {
	initOnce.Do(func() {
		initErr = xclipboard.Init()
	})
	return initErr
}

// WriteText replaces the clipboard content with text
func WriteText(text string) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}

// ReadText returns the current clipboard text
func ReadText() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("clipboard unavailable: %w", err)
	}
	return string(xclipboard.Read(xclipboard.FmtText)), nil
}
