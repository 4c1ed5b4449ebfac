package input

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewQuestionInput(s)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	input := NewQuestionInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestQuestionInput_Init(t *testing.T) {
	input := NewQuestionInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestQuestionInput_Update(t *testing.T) {
	input := NewQuestionInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("è")}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "è", input.Value())
}

func TestQuestionInput_View(t *testing.T) {
	input := NewQuestionInput(nil)

	view := input.View()

	assert.Contains(t, view, "Domanda")
}

func TestQuestionInput_SetValue(t *testing.T) {
	input := NewQuestionInput(nil)

	input.SetValue("distanze minime tra pareti finestrate")

	assert.Equal(t, "distanze minime tra pareti finestrate", input.Value())
}

func TestQuestionInput_CharLimit(t *testing.T) {
	input := NewQuestionInput(nil)

	input.SetValue(strings.Repeat("a", questionLimit+50))

	assert.Len(t, input.Value(), questionLimit)
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	input := NewQuestionInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantInner int
	}{
		{"wide terminal", 100, 86},
		{"narrow terminal uses minimum", 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewQuestionInput(nil)

			input.SetWidth(tt.width)

			assert.Equal(t, tt.width, input.Width())
			assert.Equal(t, tt.wantInner, input.textinput.Width)
		})
	}
}

func TestQuestionInput_Reset(t *testing.T) {
	input := NewQuestionInput(nil)
	input.SetValue("permesso di costruire")

	input.Reset()

	assert.Equal(t, "", input.Value())
}

func TestQuestionInput_Question_CollapsesWhitespace(t *testing.T) {
	input := NewQuestionInput(nil)

	input.SetValue("  distanze   minime\ttra edifici ")

	assert.Equal(t, "distanze minime tra edifici", input.Question())
}

func TestQuestionInput_Remaining(t *testing.T) {
	input := NewQuestionInput(nil)
	assert.Equal(t, questionLimit, input.Remaining())
	assert.NotContains(t, input.View(), fmt.Sprint(questionLimit))

	input.SetValue(strings.Repeat("è", questionLimit-10))

	assert.Equal(t, 10, input.Remaining())
	assert.Contains(t, input.View(), "10")
}
