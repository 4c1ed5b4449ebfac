// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

// Source actions.
const (
	actionOpen         = "Open document"
	actionCopyCitation = "Copy citation"
	actionCopyExcerpt  = "Copy excerpt"
	actionCancel       = "Cancel"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// ActionMenu is the action overlay for a cited source.
type ActionMenu struct {
	actions  []string
	selected int
	source   *domain.Source
}

// View is the ask view: question input, answer, cited sources and
// status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.SourceList
	statusbar *status.Bar

	queryService driving.QueryService
	ctx          context.Context

	response   *domain.Response
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a question, false = navigating sources
	actionMenu *ActionMenu
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil

	case messages.StatusMessage:
		v.statusbar.SetMessage(msg.Text)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actionMenu != nil {
		return v.handleActionMenuKey(msg)
	}

	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Submit) {
			return v, v.submit(v.input.Question())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	// Sources mode
	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Open):
		if src := v.list.SelectedSource(); src != nil {
			v.actionMenu = newActionMenu(src)
			v.statusbar.SetContext(keymap.ContextActions)
		}
	case key.Matches(msg, v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.FollowUp):
		n, _ := strconv.Atoi(msg.String())
		if v.response != nil && n >= 1 && n <= len(v.response.FollowUp) {
			q := v.response.FollowUp[n-1]
			v.input.SetValue(q)
			return v, v.submit(q)
		}
	}
	return v, nil
}

// Ask fills the input with query and starts answering it.
func (v *View) Ask(query string) tea.Cmd {
	v.input.SetValue(query)
	return v.submit(query)
}

// submit starts answering query.
func (v *View) submit(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	v.statusbar.SetState(status.StateAsking)
	v.statusbar.SetMessage("")
	v.focusInput = false
	v.input.Blur()
	return v.performAsk(query)
}

func newActionMenu(src *domain.Source) *ActionMenu {
	var actions []string
	if src.DocumentID != "" {
		actions = append(actions, actionOpen)
	}
	actions = append(actions, actionCopyCitation, actionCopyExcerpt, actionCancel)
	return &ActionMenu{actions: actions, source: src}
}

// handleActionMenuKey processes keyboard input when the action menu is visible.
func (v *View) handleActionMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.actionMenu.selected > 0 {
			v.actionMenu.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.actionMenu.selected < len(v.actionMenu.actions)-1 {
			v.actionMenu.selected++
		}
	case key.Matches(msg, v.keymap.Open):
		action := v.actionMenu.actions[v.actionMenu.selected]
		src := v.actionMenu.source
		v.closeActionMenu()
		return v.executeAction(action, src)
	case key.Matches(msg, v.keymap.Back):
		v.closeActionMenu()
	}
	return v, nil
}

func (v *View) closeActionMenu() {
	v.actionMenu = nil
	v.statusbar.SetContext(keymap.ContextQuestion)
}

// executeAction performs the selected action on a source.
func (v *View) executeAction(action string, src *domain.Source) (*View, tea.Cmd) {
	switch action {
	case actionOpen:
		id := src.DocumentID
		return v, func() tea.Msg {
			return messages.DocumentSelected{DocumentID: id}
		}
	case actionCopyCitation:
		v.copy(src.Citation)
	case actionCopyExcerpt:
		v.copy(src.Excerpt)
	case actionCancel:
	}
	return v, nil
}

func (v *View) copy(text string) {
	if err := writeClipboard(text); err != nil {
		v.statusbar.SetMessage("Copy: " + err.Error())
		return
	}
	v.statusbar.SetMessage("Copied to clipboard")
}

// performAsk returns a command that answers the question.
func (v *View) performAsk(query string) tea.Cmd {
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		resp, err := v.queryService.Ask(v.ctx, query, domain.AskOptions{})
		return messages.AskCompleted{Response: resp, Err: err}
	}
}

// handleAskCompleted shows the answer and its sources.
func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.response = msg.Response
	v.list.SetSources(msg.Response.Sources)
	v.statusbar.SetAnswer(len(msg.Response.Sources), msg.Response.Strategy)
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("urbanlex"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.response != nil {
		sections = append(sections, v.renderAnswer(), "", v.list.View())
	}

	if v.actionMenu != nil {
		sections = append(sections, "", v.renderActionMenu())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAnswer renders the answer, disclaimer and follow-up questions.
func (v *View) renderAnswer() string {
	resp := v.response
	textWidth := v.width - 4
	if textWidth < 20 {
		textWidth = 20
	}

	var b strings.Builder
	b.WriteString(v.styles.Badge.Render(string(resp.Strategy)))
	b.WriteString(" ")
	b.WriteString(v.styles.Score(resp.Confidence).Render(strconv.FormatFloat(resp.Confidence, 'f', 2, 64)))
	b.WriteString("\n\n")

	answer := v.styles.Normal.Width(textWidth)
	if resp.Failed {
		answer = v.styles.Error.Width(textWidth)
	}
	b.WriteString(answer.Render(resp.Answer))

	if resp.LegalDisclaimer != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Disclaimer.Width(textWidth).Render(resp.LegalDisclaimer))
	}

	if len(resp.FollowUp) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Domande correlate"))
		for i, q := range resp.FollowUp {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render("  [" + strconv.Itoa(i+1) + "] "))
			b.WriteString(q)
		}
	}
	return b.String()
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	lines := make([]string, 0, len(v.actionMenu.actions))
	for i, action := range v.actionMenu.actions {
		if i == v.actionMenu.selected {
			lines = append(lines, v.styles.Selected.Render("> "+action))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+action))
		}
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Header, input, answer and status take roughly half the screen.
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current question.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the question.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Response returns the last answer, if any.
func (v *View) Response() *domain.Response {
	return v.response
}

// SelectedSource returns the currently selected source.
func (v *View) SelectedSource() *domain.Source {
	return v.list.SelectedSource()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to input mode with no answer.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetSources(nil)
	v.response = nil
	v.err = nil
	v.actionMenu = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ActionMenuVisible returns whether the source action menu is open.
func (v *View) ActionMenuVisible() bool {
	return v.actionMenu != nil
}
