package status

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.SourceCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
	assert.Nil(t, bar.Init())
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Bar)
		want    []string
		notWant []string
	}{
		{
			name:  "ready",
			setup: func(*Bar) {},
			want:  []string{"Ready", "enter ask", "esc back"},
		},
		{
			name:  "asking",
			setup: func(b *Bar) { b.SetState(StateAsking) },
			want:  []string{"Ricerca in corso..."},
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("embedding service unavailable")
			},
			want: []string{"Error: embedding service unavailable"},
		},
		{
			name:  "error without message",
			setup: func(b *Bar) { b.SetState(StateError) },
			want:  []string{"Error"},
		},
		{
			name:    "answered",
			setup:   func(b *Bar) { b.SetAnswer(3, domain.StrategyLegalUrban) },
			want:    []string{"3 sources", "legal-urban", "n new question", "1-9 follow-up"},
			notWant: []string{"Ready"},
		},
		{
			name: "answered with notice",
			setup: func(b *Bar) {
				b.SetAnswer(1, domain.StrategyUrbanOnly)
				b.SetMessage("Copied")
			},
			want: []string{"1 sources", "Copied"},
		},
		{
			name:  "ready with notice",
			setup: func(b *Bar) { b.SetMessage("Copied") },
			want:  []string{"Copied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			tt.setup(bar)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestStatusBar_SetContext(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)

	bar.SetContext(keymap.ContextActions)
	bar.SetAnswer(2, domain.StrategyLegalOnly)
	view := bar.View()
	assert.Contains(t, view, "enter open")
	assert.NotContains(t, view, "new question")

	bar.Clear()
	assert.Contains(t, bar.View(), "enter ask")
}

func TestStatusBar_View_SingleLine(t *testing.T) {
	for _, width := range []int{40, 80, 160} {
		t.Run(fmt.Sprint(width), func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(width)

			ready := bar.View()
			assert.Equal(t, 1, lipgloss.Height(ready))
			assert.Equal(t, width, lipgloss.Width(ready))
			assert.Contains(t, ready, "esc back")

			bar.SetAnswer(3, domain.StrategyLegalUrban)
			answered := bar.View()
			assert.Equal(t, 1, lipgloss.Height(answered))
			assert.Equal(t, width, lipgloss.Width(answered))
		})
	}
}

func TestStatusBar_View_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(10)

	assert.NotEmpty(t, bar.View())
}

func TestStatusBar_SetAnswer(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetMessage("old")

	bar.SetAnswer(4, domain.StrategyComprehensive)

	assert.Equal(t, StateAnswered, bar.State())
	assert.Equal(t, 4, bar.SourceCount())
	assert.Equal(t, "", bar.Message())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetAnswer(2, domain.StrategyLegalOnly)
	bar.SetMessage("Copied")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.SourceCount())
}
