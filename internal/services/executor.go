package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	uitree "github.com/inference-gateway/operator/internal/uitree"
)

// Executor performs node, gesture and global actions on a device
type Executor struct {
	dev device.Device
}

// NewExecutor creates an executor for dev
func NewExecutor(dev device.Device) *Executor {
	return &Executor{dev: dev}
}

// ClickNode performs the accessibility click on n
func (e *Executor) ClickNode(ctx context.Context, n *uitree.Node) error {
	if !n.Clickable {
		return domain.Errorf(domain.ErrUnsupportedOperation, "Node is not clickable")
	}
	if !n.Handle.Perform(ctx, device.ActionClick, "") {
		return domain.Errorf(domain.ErrActionFailed, "Perform click on node failed")
	}
	return nil
}

// LongClickNode performs the accessibility long click on n
func (e *Executor) LongClickNode(ctx context.Context, n *uitree.Node) error {
	if !n.LongClickable {
		return domain.Errorf(domain.ErrUnsupportedOperation, "Node is not long clickable")
	}
	if !n.Handle.Perform(ctx, device.ActionLongClick, "") {
		return domain.Errorf(domain.ErrActionFailed, "Perform long click on node failed")
	}
	return nil
}

// ScrollNode scrolls a scrollable container forward or backward
func (e *Executor) ScrollNode(ctx context.Context, n *uitree.Node, dir domain.NodeScrollDirection) error {
	if !n.Scrollable {
		return domain.Errorf(domain.ErrUnsupportedOperation, "Node is not scrollable")
	}
	action := device.ActionScrollForward
	if dir == domain.ScrollBackward {
		action = device.ActionScrollBackward
	}
	if !n.Handle.Perform(ctx, action, "") {
		return domain.Errorf(domain.ErrActionFailed, "Scroll on node failed")
	}
	return nil
}

// InputText replaces the text of an editable node and submits it with IME enter
func (e *Executor) InputText(ctx context.Context, n *uitree.Node, text string) error {
	if !n.Editable {
		return domain.Errorf(domain.ErrUnsupportedOperation, "Node is not editable")
	}
	if !n.Handle.Perform(ctx, device.ActionSetText, text) {
		return domain.Errorf(domain.ErrActionFailed, "Perform input text on node failed")
	}
	// TODO: make the IME enter after set-text optional per request
	if !n.Handle.Perform(ctx, device.ActionIMEEnter, "") {
		return domain.Errorf(domain.ErrActionFailed, "Perform IME enter on node failed")
	}
	return nil
}

// CopyToClipboard places text on the device clipboard
func (e *Executor) CopyToClipboard(ctx context.Context, text string) error {
	return e.dev.SetClipboard(ctx, text)
}

// InjectText commits text through the device input method
func (e *Executor) InjectText(ctx context.Context, text string) error {
	ime := e.dev.InputMethod()
	if ime == nil {
		logger.Error("No injectable input method is active")
		return domain.Errorf(domain.ErrUnsupportedOperation, "Please enable the operator input method.")
	}
	return ime.CommitText(ctx, text)
}

// Gesture is the pending outcome of a dispatched stroke
type Gesture struct {
	once   sync.Once
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

func (g *Gesture) finish(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// Done closes once the gesture completed, was cancelled or failed to dispatch
func (g *Gesture) Done() <-chan struct{} {
	return g.done
}

// Err returns the gesture outcome after Done
func (g *Gesture) Err() error {
	select {
	case <-g.done:
		return g.err
	default:
		return nil
	}
}

// Wait blocks until the gesture ends. When ctx ends first the gesture is
// cancelled on a best-effort basis.
func (g *Gesture) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		g.cancel()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Errorf(domain.ErrTimeout, "Timed out waiting for gesture")
		}
		return domain.Errorf(domain.ErrCancelled, "Gesture cancelled")
	}
}

// Await waits for g at most d
func Await(ctx context.Context, g *Gesture, d time.Duration) error {
	return WithDeadline(ctx, d, g.Wait)
}

// WithDeadline runs fn under a deadline of d. Expiry of that deadline is
// reported as a timeout; cancellation of the parent ctx is passed through.
func WithDeadline(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	dctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(dctx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(dctx.Err(), context.DeadlineExceeded) {
		return domain.Errorf(domain.ErrTimeout, "Timed out waiting for %d ms", d.Milliseconds())
	}
	return err
}

func (e *Executor) dispatch(ctx context.Context, stroke device.Stroke, cancelled, failed string) *Gesture {
	gctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g := &Gesture{done: make(chan struct{}), cancel: cancel}

	ok := e.dev.DispatchGesture(gctx, stroke, func(completed bool) {
		defer cancel()
		if completed {
			g.finish(nil)
			return
		}
		g.finish(domain.Errorf(domain.ErrActionFailed, "%s", cancelled))
	})
	if !ok {
		cancel()
		g.finish(domain.Errorf(domain.ErrActionFailed, "%s", failed))
	}
	return g
}

// ClickCoordinate taps (x, y)
func (e *Executor) ClickCoordinate(ctx context.Context, x, y float64) *Gesture {
	return e.tap(ctx, x, y, constants.ClickDuration)
}

// LongClickCoordinate presses (x, y) for the long click duration
func (e *Executor) LongClickCoordinate(ctx context.Context, x, y float64) *Gesture {
	return e.tap(ctx, x, y, constants.LongClickDuration)
}

func (e *Executor) tap(ctx context.Context, x, y float64, d time.Duration) *Gesture {
	stroke := device.Stroke{
		From:     device.Point{X: x, Y: y},
		To:       device.Point{X: x + 1, Y: y + 1},
		Duration: d,
	}
	return e.dispatch(ctx, stroke, "Gesture was cancelled", "Failed to dispatch gesture")
}

// ScrollEnd returns the swipe end point, clamped to the screen
func ScrollEnd(x, y float64, dir domain.CoordinateScrollDirection, distance float64, width, height int) device.Point {
	switch dir {
	case domain.ScrollLeft:
		return device.Point{X: max(x-distance, 0), Y: y}
	case domain.ScrollRight:
		return device.Point{X: min(x+distance, float64(width)), Y: y}
	case domain.ScrollUp:
		return device.Point{X: x, Y: max(y-distance, 0)}
	default:
		return device.Point{X: x, Y: min(y+distance, float64(height))}
	}
}

// ScrollCoordinate swipes from (x, y) by distance in dir
func (e *Executor) ScrollCoordinate(ctx context.Context, x, y float64, dir domain.CoordinateScrollDirection, distance float64) (*Gesture, error) {
	w, h, err := e.dev.ScreenSize(ctx)
	if err != nil {
		return nil, err
	}
	stroke := device.Stroke{
		From:     device.Point{X: x, Y: y},
		To:       ScrollEnd(x, y, dir, distance, w, h),
		Duration: constants.ScrollDuration,
	}
	return e.dispatch(ctx, stroke, "Scroll gesture cancelled", "Failed to dispatch scroll gesture"), nil
}

// GoHome performs the global home action
func (e *Executor) GoHome(ctx context.Context) error {
	return e.global(ctx, device.GlobalHome)
}

// GoBack performs the global back action
func (e *Executor) GoBack(ctx context.Context) error {
	return e.global(ctx, device.GlobalBack)
}

func (e *Executor) global(ctx context.Context, action device.GlobalAction) error {
	if !e.dev.PerformGlobalAction(ctx, action) {
		return domain.Errorf(domain.ErrActionFailed, "Failed to perform global action: %s", action)
	}
	return nil
}

// LaunchApplication starts the launcher entry point of packageName
func (e *Executor) LaunchApplication(ctx context.Context, packageName string) error {
	found, err := e.dev.Launch(ctx, packageName)
	if err != nil {
		return err
	}
	if !found {
		return domain.Errorf(domain.ErrNotFound, "Application with package name %s not found", packageName)
	}
	return nil
}

// ListInstalledApplications returns launchable applications sorted by label
func (e *Executor) ListInstalledApplications(ctx context.Context) (domain.InstalledApplicationsData, error) {
	apps, err := e.dev.InstalledApplications(ctx)
	if err != nil {
		return domain.InstalledApplicationsData{}, err
	}

	launchable := make([]device.Application, 0, len(apps))
	for _, app := range apps {
		if app.Launchable {
			launchable = append(launchable, app)
		}
	}
	sort.SliceStable(launchable, func(i, j int) bool { return launchable[i].Label < launchable[j].Label })

	data := domain.InstalledApplicationsData{
		PackageNames:     make([]string, 0, len(launchable)),
		ApplicationNames: make([]string, 0, len(launchable)),
	}
	for _, app := range launchable {
		data.PackageNames = append(data.PackageNames, app.PackageName)
		data.ApplicationNames = append(data.ApplicationNames, app.Label)
	}
	logger.Info("Found launchable applications", "count", len(data.PackageNames))
	return data, nil
}
