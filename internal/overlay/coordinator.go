package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	uuid "github.com/google/uuid"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// ErrClosed is returned when the coordinator loop has stopped
var ErrClosed = errors.New("overlay is closed")

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Options configures a Coordinator
type Options struct {
	// MessageDuration is how long a message stays up without interaction
	MessageDuration time.Duration
}

// Coordinator owns the single overlay slot and the current indicator.
// All state is confined to the loop goroutine; public methods post to it.
type Coordinator struct {
	surface  Surface
	duration time.Duration

	ops       chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	current   *live
	indicator Animation
}

// live is the session currently occupying the slot
type live struct {
	session *Session
	pending *Pending
	view    View
	timer   *time.Timer
}

// New starts the coordinator loop
func New(surface Surface, opts Options) *Coordinator {
	if opts.MessageDuration <= 0 {
		opts.MessageDuration = constants.MessageDisplayDuration
	}
	c := &Coordinator{
		surface:  surface,
		duration: opts.MessageDuration,
		ops:      make(chan func(), 16),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.quit:
			c.teardown()
			return
		}
	}
}

func (c *Coordinator) post(fn func()) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.ops <- fn:
		return true
	case <-c.quit:
		return false
	}
}

// ShowMessage shows a message that auto-dismisses. The Pending resolves to nil
// once the message is gone.
func (c *Coordinator) ShowMessage(title, content string) *Pending {
	return c.show(&Session{Kind: KindMessage, Title: title, Content: content})
}

// ShowDialogue shows a dialogue that stays until an action is chosen or it is swiped away
func (c *Coordinator) ShowDialogue(title, content string, actions []domain.DialogueAction) *Pending {
	return c.show(&Session{Kind: KindDialogue, Title: title, Content: content, Actions: actions})
}

func (c *Coordinator) show(s *Session) *Pending {
	s.ID = uuid.NewString()
	p := newPending()
	if !c.post(func() { c.present(s, p) }) {
		p.resolve(nil)
	}
	return p
}

func (c *Coordinator) present(s *Session, p *Pending) {
	c.cleanup()

	view, err := c.surface.Present(s, &input{c: c, id: s.ID})
	if err != nil {
		logger.Error("Failed to present overlay", "kind", s.Kind.String(), "error", err)
		p.resolve(nil)
		return
	}
	c.current = &live{session: s, pending: p, view: view}
	c.resumeTimer()
}

// cleanup resolves the current session with nil and starts removing its view.
// The returned channel closes when the view is gone.
func (c *Coordinator) cleanup() <-chan struct{} {
	cur := c.current
	if cur == nil {
		return closedChan
	}
	c.current = nil
	stopTimer(cur)
	cur.pending.resolve(nil)
	return cur.view.Remove()
}

func stopTimer(l *live) {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (c *Coordinator) resumeTimer() {
	cur := c.current
	if cur == nil || cur.session.Kind != KindMessage {
		return
	}
	stopTimer(cur)
	cur.timer = time.AfterFunc(c.duration, func() {
		c.post(func() {
			if c.current == cur {
				c.cleanup()
			}
		})
	})
}

// Dismiss ends the current session and waits until its view is removed
func (c *Coordinator) Dismiss(ctx context.Context) error {
	result := make(chan (<-chan struct{}), 1)
	if !c.post(func() { result <- c.cleanup() }) {
		return nil
	}

	var removed <-chan struct{}
	select {
	case removed = <-result:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-removed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShowClickIndicator replaces the current indicator and waits for its animation
func (c *Coordinator) ShowClickIndicator(ctx context.Context, at device.Point) error {
	return c.indicate(ctx, Indicator{Kind: IndicatorClick, At: at})
}

// ShowScrollIndicator replaces the current indicator and waits for its animation
func (c *Coordinator) ShowScrollIndicator(ctx context.Context, from, to device.Point) error {
	return c.indicate(ctx, Indicator{Kind: IndicatorScroll, At: from, To: to})
}

func (c *Coordinator) indicate(ctx context.Context, ind Indicator) error {
	started := make(chan Animation, 1)
	ok := c.post(func() {
		if c.indicator != nil {
			c.indicator.Cancel()
		}
		a := c.surface.Indicate(ind)
		c.indicator = a
		started <- a
	})
	if !ok {
		return ErrClosed
	}

	var a Animation
	select {
	case a = <-started:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer c.post(func() {
		if c.indicator == a {
			c.indicator = nil
		}
	})

	select {
	case <-a.Done():
		return nil
	case <-ctx.Done():
		a.Cancel()
		return ctx.Err()
	}
}

// rebuild recreates the view of session id in place, keeping its content
// and pending resolution
func (c *Coordinator) rebuild(id string) {
	cur := c.current
	if cur == nil || cur.session.ID != id {
		return
	}
	cur.view.Discard()
	view, err := c.surface.Present(cur.session, &input{c: c, id: id})
	if err != nil {
		logger.Error("Failed to recreate overlay", "error", err)
		c.current = nil
		stopTimer(cur)
		cur.pending.resolve(nil)
		return
	}
	cur.view = view
	c.resumeTimer()
}

// Current returns a copy of the live session
func (c *Coordinator) Current() (Session, bool) {
	result := make(chan *Session, 1)
	if !c.post(func() {
		if c.current == nil {
			result <- nil
			return
		}
		s := *c.current.session
		result <- &s
	}) {
		return Session{}, false
	}
	s := <-result
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// Close tears down all overlays and stops the loop
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.stopped
		err = c.surface.Close()
	})
	return err
}

func (c *Coordinator) teardown() {
	if c.indicator != nil {
		c.indicator.Cancel()
		c.indicator = nil
	}
	c.cleanup()
}

// input routes view interaction back to the loop, ignoring stale views
type input struct {
	c  *Coordinator
	id string
}

func (in *input) live() *live {
	cur := in.c.current
	if cur == nil || cur.session.ID != in.id {
		return nil
	}
	return cur
}

func (in *input) Touch(pressed bool) {
	in.c.post(func() {
		cur := in.live()
		if cur == nil || cur.session.Kind != KindMessage {
			return
		}
		if pressed {
			stopTimer(cur)
			return
		}
		in.c.resumeTimer()
	})
}

func (in *input) Choose(actionID string) {
	in.c.post(func() {
		cur := in.live()
		if cur == nil || cur.session.Kind != KindDialogue {
			return
		}
		for _, a := range cur.session.Actions {
			if a.ID == actionID {
				chosen := a
				cur.pending.resolve(&chosen)
				break
			}
		}
		in.c.cleanup()
	})
}

func (in *input) Reconfigure() {
	in.c.post(func() { in.c.rebuild(in.id) })
}

func (in *input) Swipe() {
	in.c.post(func() {
		if in.live() != nil {
			in.c.cleanup()
		}
	})
}
