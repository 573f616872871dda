package x11

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	xgb "github.com/BurntSushi/xgb"
	xproto "github.com/BurntSushi/xgb/xproto"
	xtest "github.com/BurntSushi/xgb/xtest"
	xgbutil "github.com/BurntSushi/xgbutil"
	ewmh "github.com/BurntSushi/xgbutil/ewmh"
	icccm "github.com/BurntSushi/xgbutil/icccm"
	keybind "github.com/BurntSushi/xgbutil/keybind"
	xgraphics "github.com/BurntSushi/xgbutil/xgraphics"

	logger "github.com/inference-gateway/operator/internal/logger"
)

// motionStep is the interval between synthesized pointer motions during a drag
const motionStep = 16 * time.Millisecond

// client wraps the X11 connection. XTEST requests are serialized through mu.
type client struct {
	mu      sync.Mutex
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	display string
}

// Character mapping tables for X11 key names
var (
	shiftChars = map[rune]string{
		'!': "exclam", '@': "at", '#': "numbersign", '$': "dollar",
		'%': "percent", '^': "asciicircum", '&': "ampersand", '*': "asterisk",
		'(': "parenleft", ')': "parenright", '_': "underscore", '+': "plus",
		'{': "braceleft", '}': "braceright", '|': "bar", ':': "colon",
		'"': "quotedbl", '<': "less", '>': "greater", '?': "question",
		'~': "asciitilde",
	}

	punctuationChars = map[rune]string{
		'.': "period", ',': "comma", ';': "semicolon", '\'': "apostrophe",
		'/': "slash", '\\': "backslash", '-': "minus", '=': "equal",
		'[': "bracketleft", ']': "bracketright", '`': "grave",
	}
)

// newClient opens the display and initializes XTEST
func newClient(display string) (*client, error) {
	oldStderr := os.Stderr
	devNull, devErr := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if devErr == nil {
		os.Stderr = devNull
	}

	xu, err := xgbutil.NewConnDisplay(display)

	if devErr == nil {
		os.Stderr = oldStderr
		_ = devNull.Close()
	}

	if err != nil {
		logger.Error("Failed to connect to X11 display", "display", display, "error", err)
		return nil, fmt.Errorf("failed to connect to X11 display %s: %w", display, err)
	}

	if err := xtest.Init(xu.Conn()); err != nil {
		logger.Error("Failed to initialize XTEST extension", "error", err)
		return nil, fmt.Errorf("failed to initialize XTEST extension: %w", err)
	}

	keybind.Initialize(xu)

	return &client{
		xu:      xu,
		conn:    xu.Conn(),
		screen:  xproto.Setup(xu.Conn()).DefaultScreen(xu.Conn()),
		display: display,
	}, nil
}

func (c *client) close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *client) dimensions() (int, int) {
	return int(c.screen.WidthInPixels), int(c.screen.HeightInPixels)
}

// capture grabs the root window
func (c *client) capture() (image.Image, error) {
	ximg, err := xgraphics.NewDrawable(c.xu, xproto.Drawable(c.screen.Root))
	if err != nil {
		return nil, fmt.Errorf("failed to create drawable: %w", err)
	}
	return ximg, nil
}

func (c *client) warp(x, y int) error {
	err := xproto.WarpPointerChecked(
		c.conn,
		xproto.WindowNone,
		c.screen.Root,
		0, 0,
		0, 0,
		int16(x), int16(y),
	).Check()
	if err != nil {
		return fmt.Errorf("failed to move mouse: %w", err)
	}
	return nil
}

func (c *client) button(eventType byte) error {
	if err := xtest.FakeInputChecked(c.conn, eventType, 1, 0, c.screen.Root, 0, 0, 0).Check(); err != nil {
		return fmt.Errorf("failed to send button event: %w", err)
	}
	return nil
}

// drag presses the primary button at (x1,y1), moves linearly to (x2,y2) over d and releases.
// A zero-length drag with a long d is a long press.
func (c *client) drag(ctx context.Context, x1, y1, x2, y2 int, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.warp(x1, y1); err != nil {
		return err
	}
	if err := c.button(xproto.ButtonPress); err != nil {
		return err
	}

	steps := int(d / motionStep)
	if steps < 1 {
		steps = 1
	}
	var cancelled error
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case <-time.After(d / time.Duration(steps)):
		}
		if cancelled != nil {
			break
		}
		x := x1 + (x2-x1)*i/steps
		y := y1 + (y2-y1)*i/steps
		if err := c.warp(x, y); err != nil {
			cancelled = err
			break
		}
	}

	releaseErr := c.button(xproto.ButtonRelease)
	c.conn.Sync()
	if cancelled != nil {
		return cancelled
	}
	return releaseErr
}

// charToKeyInfo maps a character to its X11 key string and shift requirement
type charToKeyInfo struct {
	keyStr     string
	needsShift bool
}

// mapCharToKey converts a character to its X11 key name and shift requirement
func mapCharToKey(char rune) charToKeyInfo {
	if char >= 'A' && char <= 'Z' {
		return charToKeyInfo{keyStr: strings.ToLower(string(char)), needsShift: true}
	}
	if shiftChar, ok := shiftChars[char]; ok {
		return charToKeyInfo{keyStr: shiftChar, needsShift: true}
	}
	if punctChar, ok := punctuationChars[char]; ok {
		return charToKeyInfo{keyStr: punctChar}
	}

	switch char {
	case '\n':
		return charToKeyInfo{keyStr: "Return"}
	case '\t':
		return charToKeyInfo{keyStr: "Tab"}
	case ' ':
		return charToKeyInfo{keyStr: "space"}
	default:
		return charToKeyInfo{keyStr: string(char)}
	}
}

// typeText types text key by key with delay between events
func (c *client) typeText(ctx context.Context, text string, delay time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	root := c.screen.Root
	for _, char := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		keyInfo := mapCharToKey(char)
		keycodes := keybind.StrToKeycodes(c.xu, keyInfo.keyStr)
		if len(keycodes) == 0 {
			logger.Debug("No keycode found for character", "char", string(char), "keyStr", keyInfo.keyStr)
			continue
		}
		c.typeKey(root, keycodes[0], keyInfo.needsShift, delay)
	}

	c.conn.Sync()
	return nil
}

func (c *client) typeKey(root xproto.Window, keycode xproto.Keycode, needsShift bool, delay time.Duration) {
	var shift []xproto.Keycode
	if needsShift {
		shift = keybind.StrToKeycodes(c.xu, "Shift_L")
	}
	if len(shift) > 0 {
		_ = xtest.FakeInput(c.conn, xproto.KeyPress, byte(shift[0]), 0, root, 0, 0, 0)
		time.Sleep(delay)
	}

	_ = xtest.FakeInput(c.conn, xproto.KeyPress, byte(keycode), 0, root, 0, 0, 0)
	time.Sleep(delay)
	_ = xtest.FakeInput(c.conn, xproto.KeyRelease, byte(keycode), 0, root, 0, 0, 0)
	time.Sleep(delay)

	if len(shift) > 0 {
		_ = xtest.FakeInput(c.conn, xproto.KeyRelease, byte(shift[0]), 0, root, 0, 0, 0)
		time.Sleep(delay)
	}
}

var modifierMap = map[string]string{
	"ctrl":    "Control_L",
	"control": "Control_L",
	"alt":     "Alt_L",
	"shift":   "Shift_L",
	"super":   "Super_L",
	"meta":    "Meta_L",
	"win":     "Super_L",
	"cmd":     "Super_L",
}

// keyCombo sends a combination such as "alt+Left" or "super"
func (c *client) keyCombo(combo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	root := c.screen.Root
	parts := strings.Split(strings.ReplaceAll(combo, "-", "+"), "+")
	modifiers := parts[:len(parts)-1]
	mainKey := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := modifierMap[strings.ToLower(mainKey)]; ok {
		mainKey = alias
	}

	var modKeycodes []xproto.Keycode
	for _, mod := range modifiers {
		name, ok := modifierMap[strings.ToLower(strings.TrimSpace(mod))]
		if !ok {
			name = mod
		}
		keycodes := keybind.StrToKeycodes(c.xu, name)
		if len(keycodes) == 0 {
			return fmt.Errorf("no keycode found for modifier: %s", mod)
		}
		modKeycodes = append(modKeycodes, keycodes[0])
	}

	mainKeycodes := keybind.StrToKeycodes(c.xu, mainKey)
	if len(mainKeycodes) == 0 {
		return fmt.Errorf("no keycode found for key: %s", mainKey)
	}

	for _, keycode := range modKeycodes {
		_ = xtest.FakeInput(c.conn, xproto.KeyPress, byte(keycode), 0, root, 0, 0, 0)
		time.Sleep(10 * time.Millisecond)
	}
	_ = xtest.FakeInput(c.conn, xproto.KeyPress, byte(mainKeycodes[0]), 0, root, 0, 0, 0)
	time.Sleep(50 * time.Millisecond)
	_ = xtest.FakeInput(c.conn, xproto.KeyRelease, byte(mainKeycodes[0]), 0, root, 0, 0, 0)
	time.Sleep(10 * time.Millisecond)
	for i := len(modKeycodes) - 1; i >= 0; i-- {
		_ = xtest.FakeInput(c.conn, xproto.KeyRelease, byte(modKeycodes[i]), 0, root, 0, 0, 0)
		time.Sleep(10 * time.Millisecond)
	}

	c.conn.Sync()
	return nil
}

// activeWindow returns the WM_CLASS of the focused window via EWMH
func (c *client) activeWindow() (instance, class string, err error) {
	win, err := ewmh.ActiveWindowGet(c.xu)
	if err != nil || win == 0 {
		return "", "", fmt.Errorf("no active window: %w", err)
	}
	wmClass, err := icccm.WmClassGet(c.xu, win)
	if err != nil {
		return "", "", err
	}
	return wmClass.Instance, wmClass.Class, nil
}
