//go:build darwin

package macos

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices
#import <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>

const char* frontmostBundle() {
    NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
    if (app == nil) {
        return "";
    }
    const char *bundleID = [app.bundleIdentifier UTF8String];
    return bundleID ? bundleID : "";
}

const char* frontmostName() {
    NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
    if (app == nil) {
        return "";
    }
    const char *name = [app.localizedName UTF8String];
    return name ? name : "";
}

bool accessibilityTrusted() {
    return AXIsProcessTrusted();
}
*/
import "C"

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"sync"
	"time"

	robotgo "github.com/go-vgo/robotgo"

	clipboard "github.com/inference-gateway/operator/internal/clipboard"
	device "github.com/inference-gateway/operator/internal/device"
	logger "github.com/inference-gateway/operator/internal/logger"
)

const (
	motionStep       = 16 * time.Millisecond
	windowPollPeriod = 500 * time.Millisecond
)

// Device drives the macOS desktop through RobotGo
type Device struct {
	width  int
	height int
	roots  []string

	input sync.Mutex

	mu   sync.Mutex
	stop context.CancelFunc
}

var _ device.Device = (*Device)(nil)

func (d *Device) Root(context.Context) (device.Node, error) {
	return nil, nil
}

func (d *Device) ScreenSize(context.Context) (int, int, error) {
	return d.width, d.height, nil
}

// DispatchGesture presses at From, moves toward To in small steps, and releases
func (d *Device) DispatchGesture(ctx context.Context, stroke device.Stroke, cb device.GestureCallback) bool {
	if ctx.Err() != nil {
		return false
	}
	go func() {
		cb(d.drag(ctx, stroke) == nil)
	}()
	return true
}

func (d *Device) drag(ctx context.Context, stroke device.Stroke) error {
	d.input.Lock()
	defer d.input.Unlock()

	x1, y1 := int(stroke.From.X), int(stroke.From.Y)
	x2, y2 := int(stroke.To.X), int(stroke.To.Y)

	robotgo.Move(x1, y1)
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("failed to press mouse: %w", err)
	}

	steps := int(stroke.Duration / motionStep)
	if steps < 1 {
		steps = 1
	}
	var interrupted error
	for i := 1; i <= steps && interrupted == nil; i++ {
		select {
		case <-ctx.Done():
			interrupted = ctx.Err()
			continue
		case <-time.After(stroke.Duration / time.Duration(steps)):
		}
		robotgo.Move(x1+(x2-x1)*i/steps, y1+(y2-y1)*i/steps)
	}

	if err := robotgo.Toggle("left", "up"); err != nil && interrupted == nil {
		return fmt.Errorf("failed to release mouse: %w", err)
	}
	return interrupted
}

func (d *Device) CaptureScreen(context.Context) (image.Image, error) {
	bitmap := robotgo.CaptureScreen(0, 0, d.width, d.height)
	if bitmap == nil {
		return nil, fmt.Errorf("failed to capture screen")
	}
	defer robotgo.FreeBitmap(bitmap)

	img := robotgo.ToImage(bitmap)
	if img == nil {
		return nil, fmt.Errorf("failed to convert bitmap to image")
	}
	return img, nil
}

// PerformGlobalAction maps Home to cmd+F3 (show desktop) and Back to cmd+[
func (d *Device) PerformGlobalAction(_ context.Context, action device.GlobalAction) bool {
	d.input.Lock()
	defer d.input.Unlock()

	var err error
	switch action {
	case device.GlobalHome:
		err = robotgo.KeyTap("f3", "cmd")
	case device.GlobalBack:
		err = robotgo.KeyTap("[", "cmd")
	default:
		return false
	}
	if err != nil {
		logger.Warn("Global action failed", "error", err)
		return false
	}
	return true
}

func (d *Device) InstalledApplications(context.Context) ([]device.Application, error) {
	bundles := scanBundles(d.roots)
	apps := make([]device.Application, 0, len(bundles))
	for _, b := range bundles {
		apps = append(apps, device.Application{PackageName: b.ID, Label: b.Name, Launchable: true})
	}
	return apps, nil
}

// Launch opens the bundle whose identifier is packageName
func (d *Device) Launch(ctx context.Context, packageName string) (bool, error) {
	for _, b := range scanBundles(d.roots) {
		if b.ID != packageName {
			continue
		}
		if out, err := exec.CommandContext(ctx, "open", b.Path).CombinedOutput(); err != nil {
			return true, fmt.Errorf("failed to open %s: %w (%s)", b.Path, err, out)
		}
		return true, nil
	}
	return false, nil
}

func (d *Device) SetClipboard(_ context.Context, text string) error {
	return clipboard.WriteText(text)
}

func (d *Device) InputMethod() device.InputMethod {
	return typist{d: d}
}

type typist struct {
	d *Device
}

func (t typist) CommitText(ctx context.Context, text string) error {
	t.d.input.Lock()
	defer t.d.input.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Type(text)
	return nil
}

// SetWindowListener polls the frontmost application
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
			ev := device.WindowEvent{
				PackageName: C.GoString(C.frontmostBundle()),
				ClassName:   C.GoString(C.frontmostName()),
			}
			if ev.PackageName == "" || ev == last {
				continue
			}
			last = ev
			fn(ev)
		}
	}()
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	return nil
}

// Provider implements device.Provider for macOS
type Provider struct{}

var _ device.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Open(device.Options) (device.Device, error) {
	if os.Getenv("SSH_CONNECTION") != "" {
		return nil, fmt.Errorf("macOS display not available in SSH session")
	}
	if !bool(C.accessibilityTrusted()) {
		return nil, fmt.Errorf("accessibility permissions required. Grant access in System Settings > Privacy & Security > Accessibility")
	}
	w, h := robotgo.GetScreenSize()
	return &Device{width: w, height: h, roots: applicationRoots()}, nil
}

func (p *Provider) Info() device.Info {
	return device.Info{Name: "macos", SupportsTree: false}
}

func (p *Provider) IsAvailable() bool {
	return true
}

func init() {
	device.Register(NewProvider())
}
