package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	device "github.com/inference-gateway/operator/internal/device"
	devicetest "github.com/inference-gateway/operator/internal/device/devicetest"
	domain "github.com/inference-gateway/operator/internal/domain"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

type memoryTimestamps struct {
	mu    sync.Mutex
	ts    domain.Timestamps
	saves int
}

func (m *memoryTimestamps) SaveTimestamps(_ context.Context, ts domain.Timestamps) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ts = ts
	m.saves++
	return nil
}

func (m *memoryTimestamps) LoadTimestamps(context.Context) (domain.Timestamps, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ts, nil
}

func TestCaptureImageDataURI(t *testing.T) {
	c := NewCapture(devicetest.New(), CaptureOptions{Quality: 50, Scale: 1})

	data, err := c.CaptureImage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data.ImageBase64)
	assert.True(t, strings.HasPrefix(*data.ImageBase64, "data:image/jpeg;base64,"))
	assert.NotContains(t, *data.ImageBase64, "\n")
}

func TestCaptureImageFailure(t *testing.T) {
	dev := devicetest.New()
	dev.CaptureErr = errors.New("permission denied")

	_, err := NewCapture(dev, CaptureOptions{}).CaptureImage(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Screenshot failed: permission denied", err.Error())
}

func TestCaptureImageSerializesCallers(t *testing.T) {
	throttle := 60 * time.Millisecond
	c := NewCapture(devicetest.New(), CaptureOptions{Throttle: throttle})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CaptureImage(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 2*throttle)
}

func TestCaptureImageWaiterGivesUp(t *testing.T) {
	c := NewCapture(devicetest.New(), CaptureOptions{Throttle: 200 * time.Millisecond})

	go func() { _, _ = c.CaptureImage(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.CaptureImage(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCaptureXML(t *testing.T) {
	dev := devicetest.New()
	c := NewCapture(dev, CaptureOptions{})

	data, err := c.CaptureXML(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data.XML)

	dev.RootNode = &devicetest.Node{
		Rect:     image.Rect(0, 0, 1080, 1920),
		Children: []*devicetest.Node{{TextValue: "OK", IsClickable: true, Rect: image.Rect(0, 0, 100, 50)}},
	}
	data, err = c.CaptureXML(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data.XML)
	assert.Contains(t, *data.XML, `text="OK"`)

	nodes, err := c.NodeMap(context.Background())
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Equal(t, "OK", nodes["1"].Text)
}

func TestCaptureMetadata(t *testing.T) {
	c := NewCapture(devicetest.New(), CaptureOptions{})

	meta := c.Metadata()
	assert.Equal(t, "unknown", *meta.PackageName)
	assert.Equal(t, "unknown", *meta.ActivityName)

	c.OnWindowStateChanged(device.WindowEvent{PackageName: "com.example", ClassName: "com.example.Main"})
	meta = c.Metadata()
	assert.Equal(t, "com.example", *meta.PackageName)
	assert.Equal(t, "com.example.Main", *meta.ActivityName)

	c.OnWindowStateChanged(device.WindowEvent{PackageName: "com.other"})
	assert.Equal(t, "unknown", *c.Metadata().ActivityName)
}

func TestTimestampTrackerPersists(t *testing.T) {
	store := &memoryTimestamps{ts: domain.Timestamps{Screenshot: 10, XML: 20}}
	c := NewTimestampTracker(context.Background(), store)
	assert.Equal(t, domain.Timestamps{Screenshot: 10, XML: 20}, c.Timestamps())

	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	c.MarkScreenshot(context.Background())
	c.MarkXML(context.Background())

	want := domain.Timestamps{Screenshot: 1_700_000_000_000, XML: 1_700_000_000_000}
	assert.Equal(t, want, c.Timestamps())
	assert.Equal(t, want, store.ts)
	assert.Equal(t, 2, store.saves)
}

func TestImageOptimizerSettings(t *testing.T) {
	o := NewImageOptimizer(0, 0)
	assert.Equal(t, 1, o.Quality())
	assert.Equal(t, 1.0, o.Scale())

	o.SetQuality(500)
	assert.Equal(t, 100, o.Quality())

	o.SetScale(0.5)
	out := o.resizeIfNeeded(devicetest.Solid(100, 40, color.White))
	assert.Equal(t, image.Rect(0, 0, 50, 20), out.Bounds())
}
