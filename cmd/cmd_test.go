package cmd

import (
	"strings"
	"testing"

	config "github.com/inference-gateway/operator/config"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestCommandsMarkdown(t *testing.T) {
	registry, err := detachedRegistry()
	require.NoError(t, err)

	md := commandsMarkdown(registry)
	lines := strings.Split(strings.TrimSpace(md), "\n")
	assert.Len(t, lines, 4+21)
	assert.Contains(t, md, "| /scrollCoordinate | x, y, direction, distance |")
	assert.Contains(t, md, "| /goHome | - |")
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.APIKey = "secret"
	cfg.Notify.Telegram.Token = "123:abc"

	out := masked(cfg)
	assert.Equal(t, "********", out.Server.APIKey)
	assert.Equal(t, "********", out.Notify.Telegram.Token)
	assert.Empty(t, out.Socket.Token)
	assert.Equal(t, "secret", cfg.Server.APIKey)
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "commands", "openapi", "config", "version"} {
		assert.True(t, names[want], want)
	}
}
