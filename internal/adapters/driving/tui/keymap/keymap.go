// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

var _ help.KeyMap = (*KeyMap)(nil)

// Context selects which bindings a view advertises.
type Context int

const (
	ContextMenu Context = iota
	ContextQuestion
	ContextAnswer
	ContextActions
	ContextDocuments
	ContextReader
)

// KeyMap holds every binding used by the console.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	Up   key.Binding
	Down key.Binding

	// Submit sends the typed question.
	Submit key.Binding
	// Open selects the highlighted item: a menu entry, a cited source
	// or a document.
	Open key.Binding

	NewQuestion key.Binding
	// FollowUp asks the numbered suggested question.
	FollowUp key.Binding

	Reload key.Binding

	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		NewQuestion: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new question")),
		FollowUp: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "follow-up"),
		),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	}
}

// For returns the hints shown in the status line of a view.
func (k *KeyMap) For(c Context) []key.Binding {
	switch c {
	case ContextMenu:
		return []key.Binding{k.Up, k.Down, k.Open, k.Quit}
	case ContextAnswer:
		return []key.Binding{k.Up, k.Down, k.Open, k.FollowUp, k.NewQuestion, k.Back}
	case ContextActions:
		return []key.Binding{k.Up, k.Down, k.Open, k.Back}
	case ContextDocuments:
		return []key.Binding{k.Up, k.Down, k.Open, k.Reload, k.Back}
	case ContextReader:
		return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Back}
	default:
		return []key.Binding{k.Submit, k.Back}
	}
}

// ShortHelp returns the question-entry hints.
func (k *KeyMap) ShortHelp() []key.Binding {
	return k.For(ContextQuestion)
}

// FullHelp groups every binding for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.Submit, k.NewQuestion, k.FollowUp},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Reload, k.Help, k.Quit},
	}
}
