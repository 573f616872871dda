package x11

import (
	"context"
	"fmt"
	"image"
	"os/exec"
	"sync"
	"time"

	clipboard "github.com/inference-gateway/operator/internal/clipboard"
	device "github.com/inference-gateway/operator/internal/device"
	logger "github.com/inference-gateway/operator/internal/logger"
)

const (
	windowPollPeriod = 500 * time.Millisecond
	typingDelay      = 5 * time.Millisecond
	homeCombo        = "super"
	backCombo        = "alt+Left"
)

// Device drives an X11 desktop. It has no accessibility tree, so Root is always nil.
type Device struct {
	client *client
	dirs   []string

	mu   sync.Mutex
	stop context.CancelFunc
}

var _ device.Device = (*Device)(nil)

// Root returns nil: X11 exposes no accessibility hierarchy
func (d *Device) Root(context.Context) (device.Node, error) {
	return nil, nil
}

func (d *Device) ScreenSize(context.Context) (int, int, error) {
	w, h := d.client.dimensions()
	return w, h, nil
}

// DispatchGesture replays the stroke as an XTEST drag on a background goroutine
func (d *Device) DispatchGesture(ctx context.Context, stroke device.Stroke, cb device.GestureCallback) bool {
	if ctx.Err() != nil {
		return false
	}
	go func() {
		err := d.client.drag(ctx,
			int(stroke.From.X), int(stroke.From.Y),
			int(stroke.To.X), int(stroke.To.Y),
			stroke.Duration)
		if err != nil {
			logger.Debug("Gesture interrupted", "error", err)
		}
		cb(err == nil)
	}()
	return true
}

func (d *Device) CaptureScreen(context.Context) (image.Image, error) {
	return d.client.capture()
}

// PerformGlobalAction maps Home to the super key and Back to alt+Left
func (d *Device) PerformGlobalAction(_ context.Context, action device.GlobalAction) bool {
	combo := homeCombo
	if action == device.GlobalBack {
		combo = backCombo
	}
	if err := d.client.keyCombo(combo); err != nil {
		logger.Warn("Global action failed", "combo", combo, "error", err)
		return false
	}
	return true
}

// InstalledApplications lists XDG desktop entries; hidden entries are not launchable
func (d *Device) InstalledApplications(context.Context) ([]device.Application, error) {
	entries := scanDesktopEntries(d.dirs)
	apps := make([]device.Application, 0, len(entries))
	for _, e := range entries {
		apps = append(apps, device.Application{
			PackageName: e.ID,
			Label:       e.Name,
			Launchable:  !e.NoDisplay && len(execArgs(e.Exec)) > 0,
		})
	}
	return apps, nil
}

// Launch starts the Exec line of the desktop entry whose id is packageName
func (d *Device) Launch(_ context.Context, packageName string) (bool, error) {
	for _, e := range scanDesktopEntries(d.dirs) {
		if e.ID != packageName || e.NoDisplay {
			continue
		}
		args := execArgs(e.Exec)
		if len(args) == 0 {
			return false, nil
		}
		cmd := exec.Command(args[0], args[1:]...)
		if err := cmd.Start(); err != nil {
			return true, fmt.Errorf("failed to launch %s: %w", packageName, err)
		}
		go func() { _ = cmd.Wait() }()
		return true, nil
	}
	return false, nil
}

func (d *Device) SetClipboard(_ context.Context, text string) error {
	return clipboard.WriteText(text)
}

// InputMethod types through XTEST
func (d *Device) InputMethod() device.InputMethod {
	return typist{client: d.client}
}

type typist struct {
	client *client
}

func (t typist) CommitText(ctx context.Context, text string) error {
	return t.client.typeText(ctx, text, typingDelay)
}

// SetWindowListener polls the EWMH active window and reports WM_CLASS changes
func (d *Device) SetWindowListener(fn func(device.WindowEvent)) {
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.stop = cancel
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(windowPollPeriod)
		defer ticker.Stop()

		var last device.WindowEvent
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			instance, class, err := d.client.activeWindow()
			if err != nil {
				continue
			}
			ev := device.WindowEvent{PackageName: instance, ClassName: class}
			if ev == last {
				continue
			}
			last = ev
			fn(ev)
		}
	}()
}

func (d *Device) Close() error {
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	d.mu.Unlock()
	d.client.close()
	return nil
}
