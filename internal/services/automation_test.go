package services

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
	devicetest "github.com/inference-gateway/operator/internal/device/devicetest"
	domain "github.com/inference-gateway/operator/internal/domain"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

// scriptedSurface answers dialogues with a fixed action id; an empty answer swipes
type scriptedSurface struct {
	answer string

	mu         sync.Mutex
	sessions   []overlay.Session
	indicators []overlay.Indicator
}

func (s *scriptedSurface) Present(session *overlay.Session, in overlay.Input) (overlay.View, error) {
	s.mu.Lock()
	s.sessions = append(s.sessions, *session)
	s.mu.Unlock()

	if session.Kind == overlay.KindDialogue {
		go func() {
			if s.answer == "" {
				in.Swipe()
				return
			}
			in.Choose(s.answer)
		}()
	}
	return instantView{}, nil
}

func (s *scriptedSurface) Indicate(ind overlay.Indicator) overlay.Animation {
	s.mu.Lock()
	s.indicators = append(s.indicators, ind)
	s.mu.Unlock()
	return overlay.NewTimedAnimation(0)
}

func (s *scriptedSurface) Close() error { return nil }

func (s *scriptedSurface) shown() []overlay.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]overlay.Session(nil), s.sessions...)
}

// await waits until a session with content has been presented
func (s *scriptedSurface) await(t *testing.T, content string) overlay.Session {
	t.Helper()
	var found overlay.Session
	require.Eventually(t, func() bool {
		for _, session := range s.shown() {
			if session.Content == content {
				found = session
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return found
}

type instantView struct{}

func (instantView) Remove() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (instantView) Discard() {}

type recordingNotifier struct {
	got []domain.BotMessage
}

func (r *recordingNotifier) Push(_ context.Context, msg domain.BotMessage) error {
	r.got = append(r.got, msg)
	return nil
}

type harness struct {
	auto    *Automation
	dev     *devicetest.Device
	surface *scriptedSurface
}

func newHarness(t *testing.T, notifier BotNotifier) *harness {
	t.Helper()
	dev := devicetest.New()
	dev.RootNode = &devicetest.Node{
		Rect: image.Rect(0, 0, 1080, 1920),
		Children: []*devicetest.Node{
			{TextValue: "OK", IsClickable: true, Rect: image.Rect(100, 100, 300, 200)},
			{IsEditable: true, IsFocused: true, Rect: image.Rect(0, 300, 1080, 400)},
		},
	}
	surface := &scriptedSurface{}
	coord := overlay.New(surface, overlay.Options{MessageDuration: time.Minute})
	t.Cleanup(func() { _ = coord.Close() })

	auto := NewAutomation(notifier)
	auto.Attach(&Session{
		Device:   dev,
		Capture:  NewCapture(dev, CaptureOptions{}),
		Executor: NewExecutor(dev),
		Overlay:  coord,
	})
	return &harness{auto: auto, dev: dev, surface: surface}
}

func TestAutomationNotRunning(t *testing.T) {
	auto := NewAutomation(nil)
	assert.False(t, auto.Running())
	assert.Nil(t, auto.Capture())

	res := auto.GoHome(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "Accessibility service is not running.", res.Message)
	assert.Nil(t, res.Data)
}

func TestAutomationAttachAnnounces(t *testing.T) {
	h := newHarness(t, nil)
	assert.True(t, h.auto.Running())

	first := h.surface.await(t, constants.ServiceRunningContent)
	assert.Equal(t, constants.ServiceRunningTitle, first.Title)

	h.auto.Detach()
	assert.False(t, h.auto.Running())
}

func TestAutomationClickNode(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res := h.auto.ClickNode(ctx, "1")
	assert.True(t, res.Success)
	assert.Equal(t, "Click Node '1' executed successfully.", res.Message)

	click := h.dev.RootNode.Children[0].Performed()
	assert.Equal(t, []device.Action{device.ActionClick}, click)

	h.surface.mu.Lock()
	require.Len(t, h.surface.indicators, 1)
	assert.Equal(t, device.Point{X: 200, Y: 150}, h.surface.indicators[0].At)
	h.surface.mu.Unlock()
}

func TestAutomationFailureShowsOverlay(t *testing.T) {
	h := newHarness(t, nil)

	res := h.auto.ClickNode(context.Background(), "9")
	assert.False(t, res.Success)
	assert.Equal(t, "Error during Click Node '9': Node with ID '9' not found.", res.Message)

	shown := h.surface.await(t, "Node with ID '9' not found.")
	assert.Equal(t, constants.OperationFailedTitle, shown.Title)
}

func TestAutomationInputTextToFocusedNode(t *testing.T) {
	h := newHarness(t, nil)

	res := h.auto.InputTextToFocusedNode(context.Background(), "hello")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "hello", h.dev.RootNode.Children[1].LastText())

	h.dev.RootNode.Children[1].IsFocused = false
	res = h.auto.InputTextToFocusedNode(context.Background(), "hello")
	assert.Equal(t, "Error during Input Text to Focused Node: No focused node found on the screen.", res.Message)
}

func TestAutomationCoordinateNames(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res := h.auto.ClickCoordinate(ctx, 100, 12.5)
	assert.Equal(t, "Click Coordinate (100.0, 12.5) executed successfully.", res.Message)

	res = h.auto.ScrollCoordinate(ctx, 540, 960, "sideways", 300)
	assert.False(t, res.Success)
	assert.Equal(t, "Error during Scroll Coordinate (540.0, 960.0) sideways: Invalid direction: sideways. Use up/down/left/right.", res.Message)

	res = h.auto.ScrollCoordinate(ctx, 540, 960, "up", 300)
	assert.True(t, res.Success, res.Message)
}

func TestAutomationGestureTimeout(t *testing.T) {
	h := newHarness(t, nil)
	h.dev.Outcome = devicetest.GestureHang

	res := h.auto.ClickCoordinate(context.Background(), 1, 2)
	assert.False(t, res.Success)
	assert.Equal(t, "Error during Click Coordinate (1.0, 2.0): Timed out waiting for 1000 ms", res.Message)
}

func TestAutomationMetadata(t *testing.T) {
	h := newHarness(t, nil)
	h.dev.EmitWindow(device.WindowEvent{PackageName: "com.example", ClassName: "Main"})

	res := h.auto.GetMetadata(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "com.example", *res.Data.PackageName)
	assert.Equal(t, "Main", *res.Data.ActivityName)
}

func TestAutomationRequireUserConfirmation(t *testing.T) {
	tests := []struct {
		answer  string
		want    string
		message string
	}{
		{"confirm", "confirm", "You confirmed: Delete it?"},
		{"refuse", "refuse", "You refused: Delete it?"},
		{"", "cancelled", "You refused: Delete it?"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, nil)
			h.surface.answer = tt.answer

			res := h.auto.RequireUserConfirmation(context.Background(), "Delete it?")
			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.want, *res.Data)

			shown := h.surface.await(t, tt.message)
			assert.Equal(t, constants.ConfirmationTitle, shown.Title)
		})
	}
}

func TestAutomationRequireUserChoice(t *testing.T) {
	h := newHarness(t, nil)
	h.surface.answer = "Blue"

	res := h.auto.RequireUserChoice(context.Background(), "Colour?", []string{"Red", "Blue"})
	require.True(t, res.Success)
	assert.Equal(t, "Blue", *res.Data)
	assert.Equal(t, constants.ChoiceTitle, h.surface.await(t, "You chose: Blue").Title)

	h.surface.answer = ""
	res = h.auto.RequireUserChoice(context.Background(), "Colour?", []string{"Red", "Blue"})
	assert.Equal(t, "cancelled", *res.Data)
	h.surface.await(t, constants.UserCancelledChoice)
}

func TestAutomationShowMessage(t *testing.T) {
	h := newHarness(t, nil)

	res := h.auto.ShowMessage(context.Background(), "Hi", "there")
	assert.True(t, res.Success)
	assert.Equal(t, domain.Envelope{Success: true, Message: "Show Message executed successfully."}, res.Envelope())
	assert.Equal(t, "Hi", h.surface.await(t, "there").Title)
}

func TestAutomationPushMessageToBot(t *testing.T) {
	res := newHarness(t, nil).auto.PushMessageToBot(context.Background(), "hi", nil, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Error during Push Message to Bot: No bot notifier is configured", res.Message)

	notifier := &recordingNotifier{}
	res = newHarness(t, notifier).auto.PushMessageToBot(context.Background(), "hi", nil, nil)
	require.True(t, res.Success)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, domain.BotMessage{Message: "hi", SuggestionTitle: "No suggestions", Suggestions: []string{}}, notifier.got[0])
}
