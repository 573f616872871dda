package device

import (
	"context"
	"image"
	"time"
)

// Node is a live handle to one accessibility element.
// A handle is only meaningful for the snapshot that produced it.
type Node interface {
	Text() string
	ContentDescription() string
	Bounds() image.Rectangle
	VisibleToUser() bool

	Clickable() bool
	LongClickable() bool
	Focusable() bool
	Focused() bool
	Scrollable() bool
	Password() bool
	Selected() bool
	Editable() bool

	ChildCount() int
	// Child returns nil when the child vanished since the parent was read
	Child(i int) Node

	// Perform issues an accessibility action and reports whether the platform accepted it.
	// text is only consulted by ActionSetText.
	Perform(ctx context.Context, action Action, text string) bool
}

// Action is an accessibility action performed on a node
type Action int

const (
	ActionClick Action = iota
	ActionLongClick
	ActionScrollForward
	ActionScrollBackward
	ActionSetText
	ActionIMEEnter
)

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case ActionClick:
		return "click"
	case ActionLongClick:
		return "long_click"
	case ActionScrollForward:
		return "scroll_forward"
	case ActionScrollBackward:
		return "scroll_backward"
	case ActionSetText:
		return "set_text"
	case ActionIMEEnter:
		return "ime_enter"
	default:
		return "unknown"
	}
}

// GlobalAction is a system-wide navigation action
type GlobalAction int

const (
	GlobalHome GlobalAction = iota
	GlobalBack
)

func (g GlobalAction) String() string {
	switch g {
	case GlobalHome:
		return "home"
	case GlobalBack:
		return "back"
	default:
		return "unknown"
	}
}

// Point is a screen coordinate in pixels
type Point struct {
	X float64
	Y float64
}

// Stroke is a single-finger gesture moving From -> To over Duration
type Stroke struct {
	From     Point
	To       Point
	Duration time.Duration
}

// GestureCallback receives the outcome of a dispatched stroke exactly once.
// completed is false when the platform cancelled the gesture.
type GestureCallback func(completed bool)

// Application is an installed package
type Application struct {
	PackageName string
	Label       string
	// Launchable is true when the package exposes a launcher entry point
	Launchable bool
}

// WindowEvent reports a foreground window change
type WindowEvent struct {
	PackageName string
	ClassName   string
}

// InputMethod injects text through an on-device keyboard service
type InputMethod interface {
	CommitText(ctx context.Context, text string) error
}

// Device is the set of OS primitives the automation core consumes
type Device interface {
	// Root returns the root of the active window, or nil when none is available
	Root(ctx context.Context) (Node, error)
	ScreenSize(ctx context.Context) (width, height int, err error)

	// DispatchGesture starts a stroke asynchronously. It returns false when the
	// stroke could not be dispatched, in which case cb is never called.
	DispatchGesture(ctx context.Context, stroke Stroke, cb GestureCallback) bool
	CaptureScreen(ctx context.Context) (image.Image, error)

	PerformGlobalAction(ctx context.Context, action GlobalAction) bool
	InstalledApplications(ctx context.Context) ([]Application, error)
	// Launch starts the launcher entry point of a package; found is false when it has none
	Launch(ctx context.Context, packageName string) (found bool, err error)
	SetClipboard(ctx context.Context, text string) error
	// InputMethod returns nil when no injectable keyboard is active
	InputMethod() InputMethod

	// SetWindowListener installs the passive foreground-window listener
	SetWindowListener(fn func(WindowEvent))
	Close() error
}

// Options selects the concrete device a provider opens
type Options struct {
	Serial  string
	Display string
	ADBPath string
}

// Provider creates Device instances for one platform
type Provider interface {
	Open(opts Options) (Device, error)
	Info() Info
	IsAvailable() bool
}

// Info contains metadata about a provider
type Info struct {
	Name string // "adb", "x11", "macos"
	// SupportsTree is false for desktop backends without an accessibility tree
	SupportsTree bool
}
