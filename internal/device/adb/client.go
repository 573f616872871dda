package adb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	logger "github.com/inference-gateway/operator/internal/logger"
)

// runner executes a program and returns its stdout
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, err
		}
		return out, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}

// Client runs adb commands against one device
type Client struct {
	path   string
	serial string
	run    runner
}

// NewClient creates a client; an empty serial lets adb pick the only attached device
func NewClient(path, serial string) *Client {
	if path == "" {
		path = "adb"
	}
	return &Client{path: path, serial: serial, run: execRunner}
}

func (c *Client) args(rest ...string) []string {
	if c.serial == "" {
		return rest
	}
	return append([]string{"-s", c.serial}, rest...)
}

// Shell runs a command through `adb shell`
func (c *Client) Shell(ctx context.Context, args ...string) (string, error) {
	out, err := c.run(ctx, c.path, c.args(append([]string{"shell"}, args...)...)...)
	if err != nil {
		logger.Debug("adb shell failed", "args", strings.Join(args, " "), "error", err)
		return "", fmt.Errorf("adb shell %s: %w", args[0], err)
	}
	return string(out), nil
}

// ExecOut runs a command through `adb exec-out`, which keeps binary output intact
func (c *Client) ExecOut(ctx context.Context, args ...string) ([]byte, error) {
	out, err := c.run(ctx, c.path, c.args(append([]string{"exec-out"}, args...)...)...)
	if err != nil {
		return nil, fmt.Errorf("adb exec-out %s: %w", args[0], err)
	}
	return out, nil
}

// State returns the output of `adb get-state`, "device" when ready
func (c *Client) State(ctx context.Context) (string, error) {
	out, err := c.run(ctx, c.path, c.args("get-state")...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// shellEscapes lists characters `input text` passes through the device shell
const shellEscapes = "()<>|;&*\\~\"'`$"

// escapeInputText prepares text for `input text`, which treats %s as a space
func escapeInputText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == ' ':
			b.WriteString("%s")
		case strings.ContainsRune(shellEscapes, r):
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// quoteShell wraps s in single quotes for the device shell
func quoteShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
