package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	askFunc   func(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error)
	lastQuery string
}

func (m *mockQueryService) Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error) {
	m.lastQuery = query
	if m.askFunc != nil {
		return m.askFunc(ctx, query, opts)
	}
	return testResponse(), nil
}

func testResponse() *domain.Response {
	return &domain.Response{
		ID:         "resp-1",
		Query:      "Serve il permesso di costruire per una veranda?",
		Answer:     "La realizzazione di una veranda richiede il permesso di costruire.",
		Confidence: 0.82,
		Strategy:   domain.StrategyLegalUrban,
		Sources: []domain.Source{
			{
				ID:         "dpr-380-2001_art10_c1_0",
				DocumentID: "dpr-380-2001",
				Citation:   "D.P.R. 380/2001, art. 10",
				Excerpt:    "Costituiscono interventi di trasformazione urbanistica",
				Score:      0.91,
				Namespace:  domain.NamespaceNational,
			},
			{
				ID:        "ptr_seg_4",
				Title:     "Piano territoriale regionale",
				Citation:  "PTR Lombardia",
				Excerpt:   "Obiettivi di contenimento del consumo di suolo",
				Score:     0.44,
				Namespace: domain.NamespaceUrban,
			},
		},
		LegalDisclaimer: "Le informazioni hanno carattere generale.",
		FollowUp: []string{
			"Quali sono i costi del permesso di costruire?",
			"Cosa succede in caso di abuso edilizio?",
		},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// answered returns a view that has already shown testResponse.
func answered(t *testing.T, svc *mockQueryService) *View {
	t.Helper()
	view := NewView(nil, nil, svc)
	view.SetDimensions(120, 40)
	view.Update(messages.AskCompleted{Response: testResponse()})
	require.False(t, view.InputFocused())
	return view
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), &mockQueryService{})

	require.NotNil(t, view)
	assert.False(t, view.Ready())
	assert.Equal(t, "", view.Query())
	assert.True(t, view.InputFocused())
	assert.Nil(t, view.Response())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
}

func TestView_WithContext(t *testing.T) {
	view := NewView(nil, nil, nil)
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, view, view.WithContext(ctx))
	assert.Equal(t, ctx, view.ctx)
}

func TestView_Init(t *testing.T) {
	assert.NotNil(t, NewView(nil, nil, nil).Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.Ready())
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 40, view.height)
}

func TestView_Update_Submit(t *testing.T) {
	svc := &mockQueryService{}
	view := NewView(nil, nil, svc)
	view.SetQuery("  veranda  ")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, status.StateAsking, view.statusbar.State())
	assert.False(t, view.InputFocused())

	done, ok := cmd().(messages.AskCompleted)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, "veranda", svc.lastQuery)
	assert.Equal(t, "resp-1", done.Response.ID)
}

func TestView_Update_SubmitEmpty(t *testing.T) {
	view := NewView(nil, nil, &mockQueryService{})
	view.SetQuery("   ")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, view.InputFocused())
}

func TestView_Update_NoQueryService(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.SetQuery("veranda")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoQueryService)
}

func TestView_Update_Typing(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.Init()

	view.Update(keyRune('a'))
	view.Update(keyRune('b'))

	assert.Equal(t, "ab", view.Query())
}

func TestView_Update_Escape(t *testing.T) {
	view := NewView(nil, nil, nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_Update_AskCompleted(t *testing.T) {
	view := answered(t, &mockQueryService{})

	require.NotNil(t, view.Response())
	assert.Equal(t, status.StateAnswered, view.statusbar.State())
	assert.Equal(t, 2, view.statusbar.SourceCount())
	assert.Nil(t, view.Err())

	src := view.SelectedSource()
	require.NotNil(t, src)
	assert.Equal(t, "dpr-380-2001", src.DocumentID)
}

func TestView_Update_AskFailed(t *testing.T) {
	view := NewView(nil, nil, nil)
	boom := errors.New("classifier offline")

	view.Update(messages.AskCompleted{Err: boom})

	assert.Equal(t, boom, view.Err())
	assert.Equal(t, status.StateError, view.statusbar.State())
	assert.True(t, view.InputFocused())
}

func TestView_Update_ErrorOccurred(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(messages.ErrorOccurred{Err: ErrNoQueryService})

	assert.ErrorIs(t, view.Err(), ErrNoQueryService)
}

func TestView_Update_NavigateSources(t *testing.T) {
	view := answered(t, &mockQueryService{})

	view.Update(keyRune('j'))
	assert.Equal(t, "ptr_seg_4", view.SelectedSource().ID)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "ptr_seg_4", view.SelectedSource().ID)

	view.Update(keyRune('k'))
	assert.Equal(t, "dpr-380-2001_art10_c1_0", view.SelectedSource().ID)
}

func TestView_Update_NewQuestion(t *testing.T) {
	view := answered(t, &mockQueryService{})
	view.SetQuery("old")

	view.Update(keyRune('n'))

	assert.True(t, view.InputFocused())
	assert.Equal(t, "", view.Query())
}

func TestView_Update_FollowUp(t *testing.T) {
	svc := &mockQueryService{}
	view := answered(t, svc)

	_, cmd := view.Update(keyRune('2'))

	require.NotNil(t, cmd)
	assert.Equal(t, "Cosa succede in caso di abuso edilizio?", view.Query())
	cmd()
	assert.Equal(t, "Cosa succede in caso di abuso edilizio?", svc.lastQuery)
}

func TestView_Update_FollowUpOutOfRange(t *testing.T) {
	view := answered(t, &mockQueryService{})

	_, cmd := view.Update(keyRune('7'))

	assert.Nil(t, cmd)
}

func TestView_ActionMenu_OpenDocument(t *testing.T) {
	view := answered(t, &mockQueryService{})

	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, view.ActionMenuVisible())
	assert.Equal(t, []string{actionOpen, actionCopyCitation, actionCopyExcerpt, actionCancel}, view.actionMenu.actions)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, view.ActionMenuVisible())
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "dpr-380-2001", selected.DocumentID)
}

func TestView_ActionMenu_WithoutDocument(t *testing.T) {
	view := answered(t, &mockQueryService{})
	view.Update(keyRune('j'))

	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.True(t, view.ActionMenuVisible())
	assert.NotContains(t, view.actionMenu.actions, actionOpen)
}

func TestView_ActionMenu_CopyCitation(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	view := answered(t, &mockQueryService{})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view.Update(keyRune('j'))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "D.P.R. 380/2001, art. 10", copied)
	assert.Equal(t, "Copied to clipboard", view.statusbar.Message())
}

func TestView_ActionMenu_CopyFails(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	view := answered(t, &mockQueryService{})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Copy: no clipboard", view.statusbar.Message())
}

func TestView_ActionMenu_Escape(t *testing.T) {
	view := answered(t, &mockQueryService{})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd, "esc closes the menu without leaving the view")
	assert.False(t, view.ActionMenuVisible())
}

func TestView_View(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		assert.Equal(t, "Initialising...", NewView(nil, nil, nil).View())
	})

	t.Run("empty", func(t *testing.T) {
		view := NewView(nil, nil, nil)
		view.SetDimensions(100, 30)

		out := view.View()

		assert.Contains(t, out, "urbanlex")
		assert.Contains(t, out, "Domanda")
		assert.NotContains(t, out, "Fonti")
	})

	t.Run("answered", func(t *testing.T) {
		view := answered(t, &mockQueryService{})

		out := view.View()

		assert.Contains(t, out, "legal-urban")
		assert.Contains(t, out, "0.82")
		assert.Contains(t, out, "permesso di costruire")
		assert.Contains(t, out, "carattere generale")
		assert.Contains(t, out, "Domande correlate")
		assert.Contains(t, out, "[1]")
		assert.Contains(t, out, "Fonti (2)")
	})

	t.Run("error", func(t *testing.T) {
		view := NewView(nil, nil, nil)
		view.SetDimensions(100, 30)
		view.Update(messages.AskCompleted{Err: errors.New("boom")})

		assert.Contains(t, view.View(), "Error: boom")
	})

	t.Run("action menu", func(t *testing.T) {
		view := answered(t, &mockQueryService{})
		view.Update(tea.KeyMsg{Type: tea.KeyEnter})

		out := view.View()

		assert.Contains(t, out, "> Open document")
		assert.Contains(t, out, "Copy citation")
	})
}

func TestView_Reset(t *testing.T) {
	view := answered(t, &mockQueryService{})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	view.Reset()

	assert.True(t, view.InputFocused())
	assert.Nil(t, view.Response())
	assert.Nil(t, view.Err())
	assert.False(t, view.ActionMenuVisible())
	assert.Nil(t, view.SelectedSource())
	assert.Equal(t, status.StateReady, view.statusbar.State())
}

func TestView_Ask(t *testing.T) {
	svc := &mockQueryService{}
	view := NewView(nil, nil, svc)

	cmd := view.Ask("distanze tra fabbricati")

	require.NotNil(t, cmd)
	assert.Equal(t, "distanze tra fabbricati", view.Query())
	cmd()
	assert.Equal(t, "distanze tra fabbricati", svc.lastQuery)
}

func TestView_Update_StatusMessage(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(messages.StatusMessage{Text: "indice aggiornato"})

	assert.Equal(t, "indice aggiornato", view.statusbar.Message())
}
