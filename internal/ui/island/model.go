package island

import (
	"fmt"
	"strings"

	key "github.com/charmbracelet/bubbles/key"
	spinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	glamour "github.com/charmbracelet/glamour"
	lipgloss "github.com/charmbracelet/lipgloss"
	wordwrap "github.com/muesli/reflow/wordwrap"

	config "github.com/inference-gateway/operator/config"
	overlay "github.com/inference-gateway/operator/internal/overlay"
)

const (
	defaultWidth = 60
	minWidth     = 24
)

type presentMsg struct {
	session overlay.Session
	input   overlay.Input
}

type removeMsg struct {
	id string
}

type indicateMsg struct {
	seq int
	ind overlay.Indicator
}

type indicatorDoneMsg struct {
	seq int
}

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Choose key.Binding
	Swipe  key.Binding
	Hold   key.Binding
	Quit   key.Binding
}

// newKeyMap builds bindings from resolved keys by action; a missing or empty entry disables the action
func newKeyMap(keys map[string][]string) keyMap {
	bind := func(action string) key.Binding {
		b := key.NewBinding(key.WithKeys(keys[action]...))
		if len(keys[action]) == 0 {
			b.SetEnabled(false)
		}
		return b
	}
	return keyMap{
		Prev:   bind(config.ActionPrevious),
		Next:   bind(config.ActionNext),
		Choose: bind(config.ActionChoose),
		Swipe:  bind(config.ActionDismiss),
		Hold:   bind(config.ActionHold),
		Quit:   bind(config.ActionQuit),
	}
}

// slot is the session on screen
type slot struct {
	session  overlay.Session
	input    overlay.Input
	selected int
	held     bool
	body     string
}

// model draws the island: one session slot plus an indicator line
type model struct {
	width     int
	keys      keyMap
	spinner   spinner.Model
	current   *slot
	indicator *indicateMsg
	interrupt func()
}

func newModel(keys map[string][]string, interrupt func()) model {
	if keys == nil {
		keys = config.ResolveKeybindings(nil)
	}
	return model{
		width:     defaultWidth,
		keys:      newKeyMap(keys),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(indicatorStyle)),
		interrupt: interrupt,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, minWidth)
		if m.current == nil {
			return m, nil
		}
		m.current.body = renderBody(m.current.session.Content, m.width)
		in := m.current.input
		return m, func() tea.Msg {
			in.Reconfigure()
			return nil
		}

	case presentMsg:
		m.current = &slot{
			session: msg.session,
			input:   msg.input,
			body:    renderBody(msg.session.Content, m.width),
		}
		return m, nil

	case removeMsg:
		if m.current != nil && m.current.session.ID == msg.id {
			m.current = nil
		}
		return m, nil

	case indicateMsg:
		m.indicator = &msg
		return m, nil

	case indicatorDoneMsg:
		if m.indicator != nil && m.indicator.seq == msg.seq {
			m.indicator = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.interrupt != nil {
			m.interrupt()
		}
		return m, nil
	}
	s := m.current
	if s == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Swipe):
		s.input.Swipe()
	case key.Matches(msg, m.keys.Hold):
		s.held = !s.held
		s.input.Touch(s.held)
	case s.session.Kind != overlay.KindDialogue || len(s.session.Actions) == 0:
	case key.Matches(msg, m.keys.Prev):
		n := len(s.session.Actions)
		s.selected = (s.selected + n - 1) % n
	case key.Matches(msg, m.keys.Next):
		s.selected = (s.selected + 1) % len(s.session.Actions)
	case key.Matches(msg, m.keys.Choose):
		s.input.Choose(s.session.Actions[s.selected].ID)
	}
	return m, nil
}

func (m model) View() string {
	var parts []string
	if s := m.current; s != nil {
		parts = append(parts, islandStyle.Width(m.width).Render(m.renderSlot(s)))
	}
	if ind := m.indicator; ind != nil {
		parts = append(parts, fmt.Sprintf("%s %s at (%.0f, %.0f)",
			m.spinner.View(), ind.ind.Kind, ind.ind.At.X, ind.ind.At.Y))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderSlot(s *slot) string {
	lines := []string{titleStyle.Render(s.session.Title), s.body}

	if s.session.Kind == overlay.KindDialogue && len(s.session.Actions) > 0 {
		buttons := make([]string, len(s.session.Actions))
		for i, a := range s.session.Actions {
			style := buttonStyle
			label := "  " + a.Text
			if i == s.selected {
				style = selectedButtonStyle
				label = "▸ " + a.Text
			}
			buttons[i] = style.Render(label)
		}
		lines = append(lines, "", lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
		lines = append(lines, hintStyle.Render("←/→ select · enter choose · esc dismiss"))
		return strings.Join(lines, "\n")
	}

	hint := "space hold · esc dismiss"
	if s.held {
		hint = "held · space release"
	}
	lines = append(lines, hintStyle.Render(hint))
	return strings.Join(lines, "\n")
}

// renderBody formats content for width, using glamour for markdown
func renderBody(content string, width int) string {
	if looksLikeMarkdown(content) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err == nil {
			if out, err := r.Render(content); err == nil {
				return strings.TrimSpace(out)
			}
		}
	}
	return contentStyle.Render(wordwrap.String(content, width))
}
