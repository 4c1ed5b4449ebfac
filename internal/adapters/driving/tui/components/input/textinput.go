// Package input provides text input components for the TUI.
package input

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
)

const (
	// questionLimit bounds the question length in characters.
	questionLimit = 500
	// remainingHint is the count below which the remaining characters show.
	remainingHint = 50
	labelWidth    = 14
	minFieldWidth = 20
)

// QuestionInput wraps a bubbles textinput with question styling.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQuestionInput creates a new question input component.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Es. quali titoli servono per una veranda?"
	ti.Focus()
	ti.CharLimit = questionLimit
	ti.Width = 50

	return &QuestionInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the input, with a counter once the question nears the limit.
func (q *QuestionInput) View() string {
	label := q.styles.Title.Render("Domanda: ")
	field := q.styles.InputField.Render(q.textinput.View())
	parts := []string{label, field}
	if left := q.Remaining(); left < remainingHint {
		parts = append(parts, q.styles.Muted.Render(fmt.Sprintf(" %d", left)))
	}
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// Question returns the typed text with runs of whitespace collapsed.
func (q *QuestionInput) Question() string {
	return strings.Join(strings.Fields(q.textinput.Value()), " ")
}

// Remaining returns how many characters can still be typed.
func (q *QuestionInput) Remaining() int {
	return questionLimit - utf8.RuneCountInString(q.textinput.Value())
}

// Value returns the current input value.
func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-labelWidth, minFieldWidth)
}

// Width returns the current width.
func (q *QuestionInput) Width() int {
	return q.width
}

// Reset clears the input.
func (q *QuestionInput) Reset() {
	q.textinput.Reset()
}
