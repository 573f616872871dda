package services

import (
	"context"
	"fmt"
	"image"
	"sync"

	zap "go.uber.org/zap"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	uitree "github.com/inference-gateway/operator/internal/uitree"
)

// Overlay is the subset of the overlay coordinator the facade drives
type Overlay interface {
	ShowMessage(title, content string) *overlay.Pending
	ShowDialogue(title, content string, actions []domain.DialogueAction) *overlay.Pending
	Dismiss(ctx context.Context) error
	ShowClickIndicator(ctx context.Context, at device.Point) error
	ShowScrollIndicator(ctx context.Context, from, to device.Point) error
}

// BotNotifier delivers pushMessageToBot payloads
type BotNotifier interface {
	Push(ctx context.Context, msg domain.BotMessage) error
}

// Session is the live service instance the facade operates on
type Session struct {
	Device   device.Device
	Capture  *Capture
	Executor *Executor
	Overlay  Overlay
}

// Automation is the facade every transport goes through. Each operation
// returns an OperationResult and never an error.
type Automation struct {
	mu       sync.RWMutex
	session  *Session
	notifier BotNotifier
}

// NewAutomation creates a detached facade
func NewAutomation(notifier BotNotifier) *Automation {
	return &Automation{notifier: notifier}
}

// Attach installs the live session, hooks the window listener and announces the service
func (a *Automation) Attach(s *Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()

	s.Device.SetWindowListener(s.Capture.OnWindowStateChanged)
	s.Overlay.ShowMessage(constants.ServiceRunningTitle, constants.ServiceRunningContent)
	logger.Info("Automation session attached")
}

// Detach clears the live session; subsequent operations report the service as not running
func (a *Automation) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		logger.Info("Automation session detached")
	}
	a.session = nil
}

// Running reports whether a session is attached
func (a *Automation) Running() bool {
	return a.current() != nil
}

// Capture returns the attached capture service, or nil
func (a *Automation) Capture() *Capture {
	if s := a.current(); s != nil {
		return s.Capture
	}
	return nil
}

func (a *Automation) current() *Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// execute dismisses the overlay, runs body and wraps the outcome. Failures
// are also surfaced to the device user as a message.
func execute[T any](ctx context.Context, a *Automation, name string, body func(ctx context.Context, s *Session) (T, error)) domain.OperationResult[T] {
	s := a.current()
	if s == nil {
		return domain.Failed[T](constants.ServiceNotRunning)
	}

	log := logger.FromContext(ctx)
	data, err := func() (T, error) {
		if err := s.Overlay.Dismiss(ctx); err != nil {
			var zero T
			return zero, err
		}
		return body(ctx, s)
	}()
	if err != nil {
		msg := fmt.Sprintf("Error during %s: %s", name, err.Error())
		log.Error(msg, zap.String("operation", name), zap.String("class", domain.Classify(err).Error()))

		content := err.Error()
		if content == "" {
			content = constants.OperationFailedGeneric
		}
		s.Overlay.ShowMessage(constants.OperationFailedTitle, content)
		return domain.Failed[T](msg)
	}

	msg := fmt.Sprintf("%s executed successfully.", name)
	log.Debug(msg, zap.String("operation", name))
	return domain.Succeeded(msg, data)
}

func unit(err error) (domain.Empty, error) {
	return domain.Empty{}, err
}

func resolveNode(ctx context.Context, s *Session, nodeID string) (*uitree.Node, error) {
	nodes, err := s.Capture.NodeMap(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := nodes[nodeID]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "Node with ID '%s' not found.", nodeID)
	}
	return node, nil
}

func center(r image.Rectangle) device.Point {
	return device.Point{X: float64(r.Min.X+r.Max.X) / 2, Y: float64(r.Min.Y+r.Max.Y) / 2}
}

// CaptureScreenshotImage grabs the screen as a JPEG data URI
func (a *Automation) CaptureScreenshotImage(ctx context.Context) domain.OperationResult[domain.CaptureImageData] {
	return execute(ctx, a, "Capture Screenshot Image", func(ctx context.Context, s *Session) (domain.CaptureImageData, error) {
		var data domain.CaptureImageData
		err := WithDeadline(ctx, constants.CaptureDeadline, func(ctx context.Context) error {
			var err error
			data, err = s.Capture.CaptureImage(ctx)
			return err
		})
		return data, err
	})
}

// CaptureScreenshotXML serializes the active window hierarchy
func (a *Automation) CaptureScreenshotXML(ctx context.Context) domain.OperationResult[domain.CaptureXMLData] {
	return execute(ctx, a, "Capture Screenshot XML", func(ctx context.Context, s *Session) (domain.CaptureXMLData, error) {
		return s.Capture.CaptureXML(ctx)
	})
}

// GetMetadata returns the foreground package and activity
func (a *Automation) GetMetadata(ctx context.Context) domain.OperationResult[domain.MetadataData] {
	return execute(ctx, a, "Get Package Name and Activity Name", func(_ context.Context, s *Session) (domain.MetadataData, error) {
		return s.Capture.Metadata(), nil
	})
}

// ClickNode clicks the node with nodeID in the current snapshot
func (a *Automation) ClickNode(ctx context.Context, nodeID string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, fmt.Sprintf("Click Node '%s'", nodeID), func(ctx context.Context, s *Session) (domain.Empty, error) {
		node, err := resolveNode(ctx, s, nodeID)
		if err != nil {
			return unit(err)
		}
		if err := s.Overlay.ShowClickIndicator(ctx, center(node.Bounds)); err != nil {
			return unit(err)
		}
		return unit(s.Executor.ClickNode(ctx, node))
	})
}

// LongClickNode long-clicks the node with nodeID in the current snapshot
func (a *Automation) LongClickNode(ctx context.Context, nodeID string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, fmt.Sprintf("Long Click Node '%s'", nodeID), func(ctx context.Context, s *Session) (domain.Empty, error) {
		node, err := resolveNode(ctx, s, nodeID)
		if err != nil {
			return unit(err)
		}
		if err := s.Overlay.ShowClickIndicator(ctx, center(node.Bounds)); err != nil {
			return unit(err)
		}
		return unit(s.Executor.LongClickNode(ctx, node))
	})
}

// ScrollNode scrolls the node with nodeID forward or backward
func (a *Automation) ScrollNode(ctx context.Context, nodeID, direction string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, fmt.Sprintf("Scroll Node '%s'", nodeID), func(ctx context.Context, s *Session) (domain.Empty, error) {
		node, err := resolveNode(ctx, s, nodeID)
		if err != nil {
			return unit(err)
		}
		dir, err := domain.ParseNodeScrollDirection(direction)
		if err != nil {
			return unit(err)
		}
		return unit(s.Executor.ScrollNode(ctx, node, dir))
	})
}

// InputText sets the text of the node with nodeID and submits it
func (a *Automation) InputText(ctx context.Context, nodeID, text string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, fmt.Sprintf("Input Text in Node '%s'", nodeID), func(ctx context.Context, s *Session) (domain.Empty, error) {
		node, err := resolveNode(ctx, s, nodeID)
		if err != nil {
			return unit(err)
		}
		return unit(s.Executor.InputText(ctx, node, text))
	})
}

// InputTextToFocusedNode types into the first focused node of the snapshot
func (a *Automation) InputTextToFocusedNode(ctx context.Context, text string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Input Text to Focused Node", func(ctx context.Context, s *Session) (domain.Empty, error) {
		snap, err := s.Capture.Snapshot(ctx)
		if err != nil {
			return unit(err)
		}
		var focused *uitree.Node
		uitree.Walk(snap.Root, func(t *uitree.Tree) bool {
			if t.Node.Focused {
				focused = t.Node
				return false
			}
			return true
		})
		if focused == nil {
			return unit(domain.Errorf(domain.ErrNotFound, "No focused node found on the screen."))
		}
		return unit(s.Executor.InputText(ctx, focused, text))
	})
}

// CopyToClipboard places text on the device clipboard
func (a *Automation) CopyToClipboard(ctx context.Context, text string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Copy Text to Clipboard", func(ctx context.Context, s *Session) (domain.Empty, error) {
		return unit(s.Executor.CopyToClipboard(ctx, text))
	})
}

// InjectTextByIME commits text through the input method
func (a *Automation) InjectTextByIME(ctx context.Context, text string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Inject Text by IME", func(ctx context.Context, s *Session) (domain.Empty, error) {
		return unit(s.Executor.InjectText(ctx, text))
	})
}

// ClickCoordinate taps (x, y)
func (a *Automation) ClickCoordinate(ctx context.Context, x, y float64) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Click Coordinate "+domain.FormatPoint(x, y), func(ctx context.Context, s *Session) (domain.Empty, error) {
		if err := s.Overlay.ShowClickIndicator(ctx, device.Point{X: x, Y: y}); err != nil {
			return unit(err)
		}
		return unit(Await(ctx, s.Executor.ClickCoordinate(ctx, x, y), constants.ClickDeadline))
	})
}

// LongClickCoordinate presses and holds (x, y)
func (a *Automation) LongClickCoordinate(ctx context.Context, x, y float64) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Long Click Coordinate "+domain.FormatPoint(x, y), func(ctx context.Context, s *Session) (domain.Empty, error) {
		if err := s.Overlay.ShowClickIndicator(ctx, device.Point{X: x, Y: y}); err != nil {
			return unit(err)
		}
		return unit(Await(ctx, s.Executor.LongClickCoordinate(ctx, x, y), constants.LongClickDeadline))
	})
}

// ScrollCoordinate swipes from (x, y) by distance in direction
func (a *Automation) ScrollCoordinate(ctx context.Context, x, y float64, direction string, distance float64) domain.OperationResult[domain.Empty] {
	name := fmt.Sprintf("Scroll Coordinate %s %s", domain.FormatPoint(x, y), direction)
	return execute(ctx, a, name, func(ctx context.Context, s *Session) (domain.Empty, error) {
		dir, err := domain.ParseCoordinateScrollDirection(direction)
		if err != nil {
			return unit(err)
		}
		w, h, err := s.Device.ScreenSize(ctx)
		if err != nil {
			return unit(err)
		}
		from := device.Point{X: x, Y: y}
		if err := s.Overlay.ShowScrollIndicator(ctx, from, ScrollEnd(x, y, dir, distance, w, h)); err != nil {
			return unit(err)
		}
		g, err := s.Executor.ScrollCoordinate(ctx, x, y, dir, distance)
		if err != nil {
			return unit(err)
		}
		return unit(Await(ctx, g, constants.ScrollDeadline))
	})
}

// GoHome performs the home navigation action
func (a *Automation) GoHome(ctx context.Context) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Go Home", func(ctx context.Context, s *Session) (domain.Empty, error) {
		return unit(s.Executor.GoHome(ctx))
	})
}

// GoBack performs the back navigation action
func (a *Automation) GoBack(ctx context.Context) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Go Back", func(ctx context.Context, s *Session) (domain.Empty, error) {
		return unit(s.Executor.GoBack(ctx))
	})
}

// LaunchApplication starts packageName
func (a *Automation) LaunchApplication(ctx context.Context, packageName string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, fmt.Sprintf("Launch Application '%s'", packageName), func(ctx context.Context, s *Session) (domain.Empty, error) {
		return unit(s.Executor.LaunchApplication(ctx, packageName))
	})
}

// ListInstalledApplications returns launchable applications sorted by label
func (a *Automation) ListInstalledApplications(ctx context.Context) domain.OperationResult[domain.InstalledApplicationsData] {
	return execute(ctx, a, "List Installed Applications", func(ctx context.Context, s *Session) (domain.InstalledApplicationsData, error) {
		return s.Executor.ListInstalledApplications(ctx)
	})
}

// RequireUserConfirmation asks the device user to confirm prompt. The result
// is "confirm", "refuse" or "cancelled".
func (a *Automation) RequireUserConfirmation(ctx context.Context, prompt string) domain.OperationResult[string] {
	return execute(ctx, a, "Require User Confirmation", func(ctx context.Context, s *Session) (string, error) {
		actions := []domain.DialogueAction{
			{ID: "confirm", Text: constants.ConfirmAction},
			{ID: "refuse", Text: constants.RefuseAction},
		}
		chosen, err := s.Overlay.ShowDialogue(constants.ConfirmationTitle, prompt, actions).Wait(ctx)
		if err != nil {
			return "", err
		}

		message := fmt.Sprintf(constants.UserRefusedFormat, prompt)
		if chosen != nil && chosen.ID == "confirm" {
			message = fmt.Sprintf(constants.UserConfirmedFormat, prompt)
		}
		s.Overlay.ShowMessage(constants.ConfirmationTitle, message)

		if chosen == nil {
			return constants.Cancelled, nil
		}
		return chosen.ID, nil
	})
}

// RequireUserChoice asks the device user to pick one of options. The result
// is the chosen option or "cancelled".
func (a *Automation) RequireUserChoice(ctx context.Context, prompt string, options []string) domain.OperationResult[string] {
	return execute(ctx, a, "Require User Choice", func(ctx context.Context, s *Session) (string, error) {
		actions := make([]domain.DialogueAction, 0, len(options))
		for _, opt := range options {
			actions = append(actions, domain.DialogueAction{ID: opt, Text: opt})
		}
		chosen, err := s.Overlay.ShowDialogue(constants.ChoiceTitle, prompt, actions).Wait(ctx)
		if err != nil {
			return "", err
		}

		if chosen == nil {
			s.Overlay.ShowMessage(constants.ChoiceTitle, constants.UserCancelledChoice)
			return constants.Cancelled, nil
		}
		s.Overlay.ShowMessage(constants.ChoiceTitle, fmt.Sprintf(constants.UserChoseFormat, chosen.Text))
		return chosen.ID, nil
	})
}

// ShowMessage shows a transient message to the device user
func (a *Automation) ShowMessage(ctx context.Context, title, content string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Show Message", func(_ context.Context, s *Session) (domain.Empty, error) {
		s.Overlay.ShowMessage(title, content)
		return domain.Empty{}, nil
	})
}

// PushMessageToBot forwards a message to the companion bot
func (a *Automation) PushMessageToBot(ctx context.Context, message string, suggestionTitle *string, suggestions []string) domain.OperationResult[domain.Empty] {
	return execute(ctx, a, "Push Message to Bot", func(ctx context.Context, _ *Session) (domain.Empty, error) {
		if a.notifier == nil {
			return unit(domain.Errorf(domain.ErrUnsupportedOperation, "No bot notifier is configured"))
		}
		return unit(a.notifier.Push(ctx, domain.NewBotMessage(message, suggestionTitle, suggestions)))
	})
}
