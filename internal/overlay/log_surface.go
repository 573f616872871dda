package overlay

import (
	"sync"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// Timing holds animation durations used by surfaces
type Timing struct {
	ClickIndicator  time.Duration
	ScrollIndicator time.Duration
	AnimateOut      time.Duration
}

// DefaultTiming mirrors the on-screen animation lengths
func DefaultTiming() Timing {
	return Timing{
		ClickIndicator:  constants.IndicatorPopIn + constants.IndicatorPause + constants.IndicatorFadeOut,
		ScrollIndicator: constants.IndicatorScroll,
		AnimateOut:      constants.SurfaceAnimateOut,
	}
}

// Duration returns the animation length for an indicator kind
func (t Timing) Duration(kind IndicatorKind) time.Duration {
	if kind == IndicatorScroll {
		return t.ScrollIndicator
	}
	return t.ClickIndicator
}

// TimedAnimation completes after a fixed duration or when cancelled
type TimedAnimation struct {
	once  sync.Once
	done  chan struct{}
	timer *time.Timer
}

// NewTimedAnimation starts an animation lasting d
func NewTimedAnimation(d time.Duration) *TimedAnimation {
	a := &TimedAnimation{done: make(chan struct{})}
	a.timer = time.AfterFunc(d, a.finish)
	return a
}

func (a *TimedAnimation) finish() {
	a.once.Do(func() { close(a.done) })
}

func (a *TimedAnimation) Done() <-chan struct{} { return a.done }

func (a *TimedAnimation) Cancel() {
	a.timer.Stop()
	a.finish()
}

// LogSurface renders overlays as structured log lines. It is the headless surface.
type LogSurface struct {
	timing Timing
}

var _ Surface = (*LogSurface)(nil)

// NewLogSurface creates a log-backed surface
func NewLogSurface(timing Timing) *LogSurface {
	return &LogSurface{timing: timing}
}

func (s *LogSurface) Present(session *Session, _ Input) (View, error) {
	logger.Info("Overlay shown",
		"kind", session.Kind.String(),
		"title", session.Title,
		"content", session.Content,
		"actions", len(session.Actions),
	)
	return &logView{id: session.ID, animateOut: s.timing.AnimateOut}, nil
}

func (s *LogSurface) Indicate(ind Indicator) Animation {
	logger.Debug("Indicator shown", "kind", ind.Kind.String(), "x", ind.At.X, "y", ind.At.Y)
	return NewTimedAnimation(s.timing.Duration(ind.Kind))
}

func (s *LogSurface) Close() error {
	return nil
}

type logView struct {
	id         string
	animateOut time.Duration
}

func (v *logView) Remove() <-chan struct{} {
	logger.Debug("Overlay removed", "session", v.id)
	return NewTimedAnimation(v.animateOut).Done()
}

func (v *logView) Discard() {}
