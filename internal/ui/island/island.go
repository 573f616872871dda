// Package island renders overlay sessions in the terminal as a floating card
// driven by bubbletea.
package island

import (
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	logger "github.com/inference-gateway/operator/internal/logger"
	overlay "github.com/inference-gateway/operator/internal/overlay"
)

// Options configures the terminal surface
type Options struct {
	Input  io.Reader
	Output io.Writer
	Timing overlay.Timing
	// Keys maps action names to keys; nil uses the defaults
	Keys map[string][]string
	// Interrupt is called on ctrl+c, since the program owns the terminal
	Interrupt func()
}

// Surface is an overlay.Surface backed by a bubbletea program
type Surface struct {
	program *tea.Program
	timing  overlay.Timing
	done    chan struct{}

	mu  sync.Mutex
	seq int

	closeOnce sync.Once
	err       error
}

var _ overlay.Surface = (*Surface)(nil)

// New starts the terminal program
func New(opts Options) *Surface {
	progOpts := []tea.ProgramOption{tea.WithoutSignalHandler()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	s := &Surface{
		program: tea.NewProgram(newModel(opts.Keys, opts.Interrupt), progOpts...),
		timing:  opts.Timing,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Surface) run() {
	defer close(s.done)
	if _, err := s.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("Island surface stopped", "error", err)
		s.err = err
	}
}

func (s *Surface) Present(session *overlay.Session, in overlay.Input) (overlay.View, error) {
	select {
	case <-s.done:
		return nil, overlay.ErrClosed
	default:
	}
	s.program.Send(presentMsg{session: *session, input: in})
	return &view{surface: s, id: session.ID}, nil
}

func (s *Surface) Indicate(ind overlay.Indicator) overlay.Animation {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.program.Send(indicateMsg{seq: seq, ind: ind})
	anim := overlay.NewTimedAnimation(s.timing.Duration(ind.Kind))
	go func() {
		<-anim.Done()
		s.program.Send(indicatorDoneMsg{seq: seq})
	}()
	return anim
}

// Close stops the program and restores the terminal
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		s.program.Quit()
		<-s.done
	})
	return s.err
}

type view struct {
	surface *Surface
	id      string
}

func (v *view) Remove() <-chan struct{} {
	anim := overlay.NewTimedAnimation(v.surface.timing.AnimateOut)
	go func() {
		<-anim.Done()
		v.surface.program.Send(removeMsg{id: v.id})
	}()
	return anim.Done()
}

func (v *view) Discard() {
	v.surface.program.Send(removeMsg{id: v.id})
}
