package overlay

import (
	device "github.com/inference-gateway/operator/internal/device"
)

// Surface renders sessions and indicators. Implementations are only called from
// the coordinator loop and must not block on user input.
type Surface interface {
	// Present shows s and reports user interaction through in
	Present(s *Session, in Input) (View, error)
	// Indicate starts an indicator animation
	Indicate(ind Indicator) Animation
	Close() error
}

// View is one presented session
type View interface {
	// Remove animates the view out; the returned channel closes once it is gone
	Remove() <-chan struct{}
	// Discard drops the view immediately, without animation
	Discard()
}

// Animation is a running indicator
type Animation interface {
	Done() <-chan struct{}
	Cancel()
}

// Input receives user interaction with a presented view
type Input interface {
	// Touch pauses (pressed) or restarts (released) the auto-dismiss timer
	Touch(pressed bool)
	// Choose selects a dialogue action by id
	Choose(actionID string)
	// Swipe dismisses the view; dialogues resolve to no choice
	Swipe()
	// Reconfigure rebuilds the view after the surface changed size or orientation
	Reconfigure()
}

// IndicatorKind selects the indicator shape
type IndicatorKind int

const (
	IndicatorClick IndicatorKind = iota
	IndicatorScroll
)

func (k IndicatorKind) String() string {
	if k == IndicatorScroll {
		return "scroll"
	}
	return "click"
}

// Indicator marks where a gesture happens. To is only used by scroll indicators.
type Indicator struct {
	Kind IndicatorKind
	At   device.Point
	To   device.Point
}
