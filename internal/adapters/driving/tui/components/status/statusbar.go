// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateAsking   State = "asking"
	StateError    State = "error"
	StateAnswered State = "answered"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	help        help.Model
	context     keymap.Context
	state       State
	message     string
	sourceCount int
	strategy    domain.Strategy
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles:  s,
		keymap:  km,
		help:    h,
		context: keymap.ContextQuestion,
		state:   StateReady,
		width:   80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar on a single line. Hints that do not fit
// beside the status are cut off.
func (s *Bar) View() string {
	inner := max(s.width-s.styles.StatusBar.GetHorizontalFrameSize(), 0)
	left := s.renderLeft()
	s.help.Width = max(inner-lipgloss.Width(left)-1, 1)
	right := s.renderRight()

	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the left side of the status bar.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateAsking:
		return s.styles.Muted.Render("Ricerca in corso...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateAnswered:
		left := s.styles.Normal.Render(fmt.Sprintf("%d sources", s.sourceCount))
		if s.strategy != "" {
			left += s.styles.Muted.Render(fmt.Sprintf(" · %s", s.strategy))
		}
		if s.message != "" {
			left += s.styles.Muted.Render(" · " + s.message)
		}
		return left
	case StateReady:
	}
	if s.message != "" {
		return s.styles.Muted.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

// renderRight renders the hints for the current context. An answered
// question always advertises the answer bindings.
func (s *Bar) renderRight() string {
	ctx := s.context
	if s.state == StateAnswered && ctx == keymap.ContextQuestion {
		ctx = keymap.ContextAnswer
	}
	return s.help.ShortHelpView(s.keymap.For(ctx))
}

// SetContext selects which bindings are advertised.
func (s *Bar) SetContext(ctx keymap.Context) {
	s.context = ctx
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetAnswer records the outcome of a question.
func (s *Bar) SetAnswer(sources int, strategy domain.Strategy) {
	s.state = StateAnswered
	s.sourceCount = sources
	s.strategy = strategy
	s.message = ""
}

// SourceCount returns the number of cited sources.
func (s *Bar) SourceCount() int {
	return s.sourceCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.context = keymap.ContextQuestion
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
	s.strategy = ""
}
