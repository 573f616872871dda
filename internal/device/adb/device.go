package adb

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

const (
	adbKeyboardIME    = "com.android.adbkeyboard/.AdbIME"
	windowPollPeriod  = time.Second
	commandTimeout    = 10 * time.Second
	keyCodeHome       = "KEYCODE_HOME"
	keyCodeBack       = "KEYCODE_BACK"
	launcherCategory  = "android.intent.category.LAUNCHER"
	mainIntentAction  = "android.intent.action.MAIN"
	packageLinePrefix = "package:"
)

var (
	sizePattern  = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)
	focusPattern = regexp.MustCompile(`mCurrentFocus=Window\{\S+ \S+ ([^/\s}]+)(?:/([^\s}]+))?\}`)
)

// Device drives an Android device over adb
type Device struct {
	client *Client

	mu   sync.Mutex
	stop context.CancelFunc
	ime  *keyboard
}

var _ device.Device = (*Device)(nil)

// Root dumps the current hierarchy
func (d *Device) Root(ctx context.Context) (device.Node, error) {
	out, err := d.client.dump(ctx)
	if err != nil {
		return nil, err
	}
	root, err := parseHierarchy(out, d.client)
	if err != nil || root == nil {
		return nil, err
	}
	return root, nil
}

// ScreenSize reads `wm size`, preferring an override size when set
func (d *Device) ScreenSize(ctx context.Context) (int, int, error) {
	out, err := d.client.Shell(ctx, "wm", "size")
	if err != nil {
		return 0, 0, err
	}
	return parseScreenSize(out)
}

func parseScreenSize(out string) (int, int, error) {
	var w, h int
	for _, m := range sizePattern.FindAllStringSubmatch(out, -1) {
		w, _ = strconv.Atoi(m[2])
		h, _ = strconv.Atoi(m[3])
		if m[1] == "Override" {
			break
		}
	}
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("unrecognized wm size output: %q", strings.TrimSpace(out))
	}
	return w, h, nil
}

// DispatchGesture runs `input swipe` in the background; cancellation of ctx cancels the stroke
func (d *Device) DispatchGesture(ctx context.Context, stroke device.Stroke, cb device.GestureCallback) bool {
	if ctx.Err() != nil {
		return false
	}
	args := []string{"input", "swipe",
		formatCoord(stroke.From.X), formatCoord(stroke.From.Y),
		formatCoord(stroke.To.X), formatCoord(stroke.To.Y),
		strconv.FormatInt(stroke.Duration.Milliseconds(), 10),
	}
	go func() {
		_, err := d.client.Shell(ctx, args...)
		cb(err == nil)
	}()
	return true
}

func formatCoord(v float64) string {
	return strconv.Itoa(int(v + 0.5))
}

// CaptureScreen grabs a PNG frame via screencap
func (d *Device) CaptureScreen(ctx context.Context) (image.Image, error) {
	out, err := d.client.ExecOut(ctx, "screencap", "-p")
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screencap output: %w", err)
	}
	return img, nil
}

// PerformGlobalAction sends the matching key event
func (d *Device) PerformGlobalAction(ctx context.Context, action device.GlobalAction) bool {
	key := keyCodeHome
	if action == device.GlobalBack {
		key = keyCodeBack
	}
	_, err := d.client.Shell(ctx, "input", "keyevent", key)
	return err == nil
}

// InstalledApplications lists packages and marks those with a launcher activity.
// adb exposes no application labels, so the package name doubles as label.
func (d *Device) InstalledApplications(ctx context.Context) ([]device.Application, error) {
	out, err := d.client.Shell(ctx, "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	launchable, err := d.launchablePackages(ctx)
	if err != nil {
		return nil, err
	}

	var apps []device.Application
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, packageLinePrefix) {
			continue
		}
		pkg := strings.TrimPrefix(line, packageLinePrefix)
		apps = append(apps, device.Application{PackageName: pkg, Label: pkg, Launchable: launchable[pkg]})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].PackageName < apps[j].PackageName })
	return apps, nil
}

func (d *Device) launchablePackages(ctx context.Context) (map[string]bool, error) {
	out, err := d.client.Shell(ctx, "cmd", "package", "query-activities", "--brief",
		"-a", mainIntentAction, "-c", launcherCategory)
	if err != nil {
		return nil, err
	}
	return parseLaunchable(out), nil
}

// parseLaunchable reads "pkg/activity" lines
func parseLaunchable(out string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if pkg, _, ok := strings.Cut(line, "/"); ok && pkg != "" && !strings.Contains(pkg, " ") {
			set[pkg] = true
		}
	}
	return set
}

// Launch starts the launcher activity through monkey
func (d *Device) Launch(ctx context.Context, packageName string) (bool, error) {
	launchable, err := d.launchablePackages(ctx)
	if err != nil {
		return false, err
	}
	if !launchable[packageName] {
		return false, nil
	}
	if _, err := d.client.Shell(ctx, "monkey", "-p", packageName, "-c", launcherCategory, "1"); err != nil {
		return true, err
	}
	return true, nil
}

// SetClipboard is not reachable through the stock adb shell
func (d *Device) SetClipboard(context.Context, string) error {
	return domain.Errorf(domain.ErrUnsupportedOperation, "Clipboard is not available over adb")
}

// InputMethod returns the ADBKeyboard bridge when it is the active IME
func (d *Device) InputMethod() device.InputMethod {
	d.mu.Lock()
	ime := d.ime
	d.mu.Unlock()
	if ime != nil {
		return ime
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := d.client.Shell(ctx, "settings", "get", "secure", "default_input_method")
	if err != nil || strings.TrimSpace(out) != adbKeyboardIME {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ime == nil {
		d.ime = &keyboard{client: d.client, forget: d.forgetIME}
	}
	return d.ime
}

// forgetIME drops the cached bridge so the next lookup checks the active IME again
func (d *Device) forgetIME() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ime = nil
}

// keyboard commits text through the ADBKeyboard broadcast receiver
type keyboard struct {
	client *Client
	forget func()
}

func (k *keyboard) CommitText(ctx context.Context, text string) error {
	_, err := k.client.Shell(ctx, "am", "broadcast", "-a", "ADB_INPUT_TEXT", "--es", "msg", quoteShell(text))
	if err != nil && k.forget != nil {
		k.forget()
	}
	return err
}

// SetWindowListener polls the focused window and reports changes
func (d *Device) SetWindowListener(fn func(device.WindowEvent)) {
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.stop = cancel
	d.mu.Unlock()

	go d.pollWindow(ctx, fn)
}

func (d *Device) pollWindow(ctx context.Context, fn func(device.WindowEvent)) {
	ticker := time.NewTicker(windowPollPeriod)
	defer ticker.Stop()

	var last device.WindowEvent
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		out, err := d.client.Shell(callCtx, "dumpsys", "window", "windows")
		cancel()
		if err != nil {
			continue
		}
		ev, ok := parseFocus(out)
		if !ok || ev == last {
			continue
		}
		last = ev
		logger.Debug("Foreground window changed", "package", ev.PackageName, "class", ev.ClassName)
		fn(ev)
	}
}

func parseFocus(out string) (device.WindowEvent, bool) {
	m := focusPattern.FindStringSubmatch(out)
	if m == nil {
		return device.WindowEvent{}, false
	}
	ev := device.WindowEvent{PackageName: m[1], ClassName: m[2]}
	if strings.HasPrefix(ev.ClassName, ".") {
		ev.ClassName = ev.PackageName + ev.ClassName
	}
	return ev, true
}

// Close stops the window poller
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	return nil
}
