package container

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/inference-gateway/operator/config"
	devicetest "github.com/inference-gateway/operator/internal/device/devicetest"
	domain "github.com/inference-gateway/operator/internal/domain"
	adapters "github.com/inference-gateway/operator/internal/infra/adapters"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func newContainer(t *testing.T, mutate func(*config.Config)) (*ServiceContainer, *devicetest.Device) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	dev := devicetest.New()
	dev.RootNode = &devicetest.Node{
		Rect:     image.Rect(0, 0, 1080, 1920),
		Children: []*devicetest.Node{{TextValue: "OK", IsClickable: true, Rect: image.Rect(0, 0, 100, 100)}},
	}

	c, err := NewServiceContainer(context.Background(), cfg, domain.VersionInfo{Version: "test"}, Options{
		Device:  dev,
		Surface: overlay.NewLogSurface(overlay.Timing{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, domain.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env domain.Envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestContainerWiring(t *testing.T) {
	c, _ := newContainer(t, nil)

	assert.Len(t, c.GetRegistry().Routes(), 21)
	assert.Contains(t, string(c.GetOpenAPI()), `"/clickCoordinate"`)
	assert.IsType(t, adapters.LogNotifier{}, c.notifier)
	assert.Nil(t, c.GetChannel())
	assert.False(t, c.GetAutomation().Running())
}

func TestContainerDetachedThenAttached(t *testing.T) {
	c, _ := newContainer(t, nil)
	h := c.GetServer().Handler()

	_, env := get(t, h, "/goHome")
	assert.False(t, env.Success)
	assert.Equal(t, "Accessibility service is not running.", env.Message)

	require.NoError(t, c.AttachDevice(context.Background()))
	assert.True(t, c.GetAutomation().Running())

	rec, env := get(t, h, "/clickNode?nodeId=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success, env.Message)

	entries, err := c.GetJournal().List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "clickNode", entries[0].Command)
	assert.Equal(t, "goHome", entries[1].Command)
}

func TestContainerRecordsCaptureTimestamps(t *testing.T) {
	c, _ := newContainer(t, nil)
	require.NoError(t, c.AttachDevice(context.Background()))
	h := c.GetServer().Handler()

	get(t, h, "/captureScreenshotXml")
	assert.NotZero(t, c.GetTimestamps().Timestamps().XML)

	ts, err := c.GetJournal().LoadTimestamps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.GetTimestamps().Timestamps(), ts)
}

func TestContainerSocketConfigured(t *testing.T) {
	c, _ := newContainer(t, func(cfg *config.Config) {
		cfg.Socket.URL = "localhost:1"
	})
	assert.NotNil(t, c.GetChannel())
}

func TestContainerTelegramRequiresToken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notify.Telegram.Enabled = true

	_, err := NewServiceContainer(context.Background(), cfg, domain.VersionInfo{}, Options{})
	assert.EqualError(t, err, "telegram token is required")
}

func TestContainerUnknownStorage(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = "cassandra"

	_, err := NewServiceContainer(context.Background(), cfg, domain.VersionInfo{}, Options{})
	assert.ErrorContains(t, err, "unsupported storage type: cassandra")
}
