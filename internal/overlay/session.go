package overlay

import (
	"context"
	"sync"

	domain "github.com/inference-gateway/operator/internal/domain"
)

// Kind distinguishes timed messages from dialogues
type Kind int

const (
	KindMessage Kind = iota
	KindDialogue
)

func (k Kind) String() string {
	if k == KindDialogue {
		return "dialogue"
	}
	return "message"
}

// Session is the content of the single overlay slot
type Session struct {
	ID      string
	Kind    Kind
	Title   string
	Content string
	Actions []domain.DialogueAction
}

// Pending resolves once the session ends. Dialogues resolve to the chosen
// action; messages and dismissed dialogues resolve to nil.
type Pending struct {
	once   sync.Once
	done   chan struct{}
	result *domain.DialogueAction
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(a *domain.DialogueAction) {
	p.once.Do(func() {
		p.result = a
		close(p.done)
	})
}

// Done closes when the session ends
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the resolution; only meaningful after Done
func (p *Pending) Result() *domain.DialogueAction {
	select {
	case <-p.done:
		return p.result
	default:
		return nil
	}
}

// Wait blocks until the session ends or ctx is done
func (p *Pending) Wait(ctx context.Context) (*domain.DialogueAction, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
