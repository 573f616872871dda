package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	uitree "github.com/inference-gateway/operator/internal/uitree"
)

const unknownWindow = "unknown"

// Capture grabs screenshots and UI trees and tracks the foreground window
type Capture struct {
	dev       device.Device
	optimizer *ImageOptimizer
	throttle  time.Duration

	// sem is the capture lock; a channel so waiters can give up on ctx
	sem chan struct{}

	mu       sync.RWMutex
	pkg      string
	activity string
}

// CaptureOptions configures a Capture
type CaptureOptions struct {
	Quality  int
	Scale    float64
	Throttle time.Duration
}

// NewCapture creates a capture service
func NewCapture(dev device.Device, opts CaptureOptions) *Capture {
	if opts.Throttle < 0 {
		opts.Throttle = constants.CaptureThrottle
	}
	if opts.Quality == 0 {
		opts.Quality = constants.DefaultJPEGQuality
	}
	c := &Capture{
		dev:       dev,
		optimizer: NewImageOptimizer(opts.Quality, opts.Scale),
		throttle:  opts.Throttle,
		sem:       make(chan struct{}, 1),
		pkg:       unknownWindow,
		activity:  unknownWindow,
	}
	return c
}

// Optimizer exposes the runtime-adjustable encoder settings
func (c *Capture) Optimizer() *ImageOptimizer {
	return c.optimizer
}

// CaptureImage grabs one frame as a JPEG data URI. Concurrent callers are
// serialized, and the lock is held for the throttle period after each grab.
func (c *Capture) CaptureImage(ctx context.Context) (domain.CaptureImageData, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return domain.CaptureImageData{}, ctx.Err()
	}
	defer func() { <-c.sem }()

	img, err := c.dev.CaptureScreen(ctx)
	if err != nil {
		return domain.CaptureImageData{}, fmt.Errorf("Screenshot failed: %w", err)
	}
	uri, err := c.optimizer.DataURI(img)
	if err != nil {
		return domain.CaptureImageData{}, err
	}

	select {
	case <-time.After(c.throttle):
	case <-ctx.Done():
		return domain.CaptureImageData{}, ctx.Err()
	}
	return domain.CaptureImageData{ImageBase64: &uri}, nil
}

// Snapshot builds a tree snapshot of the active window; Root is nil without one
func (c *Capture) Snapshot(ctx context.Context) (*uitree.Snapshot, error) {
	root, err := c.dev.Root(ctx)
	if err != nil {
		return nil, err
	}
	snap := uitree.Take(root)
	logger.Debug("UI snapshot taken", "generation", snap.Generation, "empty", snap.Root == nil)
	return snap, nil
}

// CaptureXML serializes the active window; XML is nil when there is none
func (c *Capture) CaptureXML(ctx context.Context) (domain.CaptureXMLData, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return domain.CaptureXMLData{}, err
	}
	if snap.Root == nil {
		return domain.CaptureXMLData{}, nil
	}
	xml, err := uitree.Serialize(snap.Root)
	if err != nil {
		return domain.CaptureXMLData{}, err
	}
	return domain.CaptureXMLData{XML: &xml}, nil
}

// NodeMap indexes the current tree by node id; nil when there is no window
func (c *Capture) NodeMap(ctx context.Context) (map[string]*uitree.Node, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Root == nil {
		return nil, nil
	}
	return uitree.NodeMap(snap.Root), nil
}

// OnWindowStateChanged records the foreground window
func (c *Capture) OnWindowStateChanged(ev device.WindowEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pkg = orUnknown(ev.PackageName)
	c.activity = orUnknown(ev.ClassName)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownWindow
	}
	return s
}

// Metadata returns the last reported foreground package and activity
func (c *Capture) Metadata() domain.MetadataData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pkg, activity := c.pkg, c.activity
	return domain.MetadataData{PackageName: &pkg, ActivityName: &activity}
}
