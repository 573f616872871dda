// Package devicetest provides in-memory device fakes for tests.
package devicetest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	device "github.com/inference-gateway/operator/internal/device"
)

// Node is a configurable accessibility node
type Node struct {
	TextValue string
	Desc      string
	Rect      image.Rectangle
	Invisible bool

	IsClickable     bool
	IsLongClickable bool
	IsFocusable     bool
	IsFocused       bool
	IsScrollable    bool
	IsPassword      bool
	IsSelected      bool
	IsEditable      bool

	Children []*Node

	// Refuse makes Perform report failure for the listed actions
	Refuse map[device.Action]bool

	mu        sync.Mutex
	performed []device.Action
	lastText  string
}

var _ device.Node = (*Node)(nil)

func (n *Node) Text() string               { return n.TextValue }
func (n *Node) ContentDescription() string { return n.Desc }
func (n *Node) Bounds() image.Rectangle    { return n.Rect }
func (n *Node) VisibleToUser() bool        { return !n.Invisible }
func (n *Node) Clickable() bool            { return n.IsClickable }
func (n *Node) LongClickable() bool        { return n.IsLongClickable }
func (n *Node) Focusable() bool            { return n.IsFocusable }
func (n *Node) Focused() bool              { return n.IsFocused }
func (n *Node) Scrollable() bool           { return n.IsScrollable }
func (n *Node) Password() bool             { return n.IsPassword }
func (n *Node) Selected() bool             { return n.IsSelected }
func (n *Node) Editable() bool             { return n.IsEditable }
func (n *Node) ChildCount() int            { return len(n.Children) }

// Child returns a nil interface for nil entries so callers see a vanished node
func (n *Node) Child(i int) device.Node {
	if i < 0 || i >= len(n.Children) || n.Children[i] == nil {
		return nil
	}
	return n.Children[i]
}

// Perform records the action and honours Refuse
func (n *Node) Perform(_ context.Context, action device.Action, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.performed = append(n.performed, action)
	if action == device.ActionSetText {
		n.lastText = text
	}
	return !n.Refuse[action]
}

// Performed returns the actions issued so far
func (n *Node) Performed() []device.Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]device.Action, len(n.performed))
	copy(out, n.performed)
	return out
}

// LastText returns the text of the last ActionSetText
func (n *Node) LastText() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastText
}

// GestureOutcome decides how the fake resolves a dispatched stroke
type GestureOutcome int

const (
	GestureComplete GestureOutcome = iota
	GestureCancel
	GestureReject
	// GestureHang never invokes the callback
	GestureHang
)

// IME records committed text
type IME struct {
	mu        sync.Mutex
	Committed []string
}

// CommitText implements device.InputMethod
func (i *IME) CommitText(_ context.Context, text string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Committed = append(i.Committed, text)
	return nil
}

// Device is a scriptable device.Device
type Device struct {
	RootNode *Node
	RootErr  error
	Width    int
	Height   int

	Outcome GestureOutcome
	Frame   image.Image
	Apps    []device.Application
	IME     *IME

	GlobalFails bool
	CaptureErr  error

	mu        sync.Mutex
	strokes   []device.Stroke
	globals   []device.GlobalAction
	launched  []string
	clipboard string
	listener  func(device.WindowEvent)
	closed    bool
}

var _ device.Device = (*Device)(nil)

// New returns a 1080x1920 fake with a blank frame
func New() *Device {
	return &Device{
		Width:  1080,
		Height: 1920,
		Frame:  Solid(8, 8, color.RGBA{R: 200, G: 30, B: 30, A: 255}),
	}
}

// Root implements device.Device
func (d *Device) Root(context.Context) (device.Node, error) {
	if d.RootErr != nil {
		return nil, d.RootErr
	}
	if d.RootNode == nil {
		return nil, nil
	}
	return d.RootNode, nil
}

// ScreenSize implements device.Device
func (d *Device) ScreenSize(context.Context) (int, int, error) {
	return d.Width, d.Height, nil
}

// DispatchGesture implements device.Device
func (d *Device) DispatchGesture(_ context.Context, stroke device.Stroke, cb device.GestureCallback) bool {
	d.mu.Lock()
	d.strokes = append(d.strokes, stroke)
	outcome := d.Outcome
	d.mu.Unlock()

	switch outcome {
	case GestureReject:
		return false
	case GestureCancel:
		go cb(false)
	case GestureComplete:
		go cb(true)
	}
	return true
}

// Strokes returns the dispatched strokes
func (d *Device) Strokes() []device.Stroke {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]device.Stroke, len(d.strokes))
	copy(out, d.strokes)
	return out
}

// CaptureScreen implements device.Device
func (d *Device) CaptureScreen(context.Context) (image.Image, error) {
	if d.CaptureErr != nil {
		return nil, d.CaptureErr
	}
	if d.Frame == nil {
		return nil, errors.New("no frame")
	}
	return d.Frame, nil
}

// PerformGlobalAction implements device.Device
func (d *Device) PerformGlobalAction(_ context.Context, action device.GlobalAction) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.globals = append(d.globals, action)
	return !d.GlobalFails
}

// GlobalActions returns the global actions performed
func (d *Device) GlobalActions() []device.GlobalAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]device.GlobalAction, len(d.globals))
	copy(out, d.globals)
	return out
}

// InstalledApplications implements device.Device
func (d *Device) InstalledApplications(context.Context) ([]device.Application, error) {
	out := make([]device.Application, len(d.Apps))
	copy(out, d.Apps)
	return out, nil
}

// Launch implements device.Device
func (d *Device) Launch(_ context.Context, packageName string) (bool, error) {
	for _, app := range d.Apps {
		if app.PackageName == packageName && app.Launchable {
			d.mu.Lock()
			d.launched = append(d.launched, packageName)
			d.mu.Unlock()
			return true, nil
		}
	}
	return false, nil
}

// Launched returns launched packages
func (d *Device) Launched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.launched...)
}

// SetClipboard implements device.Device
func (d *Device) SetClipboard(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipboard = text
	return nil
}

// Clipboard returns the clipboard content
func (d *Device) Clipboard() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard
}

// InputMethod implements device.Device
func (d *Device) InputMethod() device.InputMethod {
	if d.IME == nil {
		return nil
	}
	return d.IME
}

// SetWindowListener implements device.Device
func (d *Device) SetWindowListener(fn func(device.WindowEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = fn
}

// EmitWindow delivers a window event to the installed listener
func (d *Device) EmitWindow(ev device.WindowEvent) {
	d.mu.Lock()
	fn := d.listener
	d.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Close implements device.Device
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Solid returns a w x h image filled with c
func Solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
