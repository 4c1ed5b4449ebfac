// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Selecting it switches to View, or quits.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the start screen of the console.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	help     help.Model
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view. The documents entry is shown only
// when a document store is available.
func NewView(s *styles.Styles, km *keymap.KeyMap, withDocuments bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	items := []Item{{Label: "Ask", Hint: "fai una domanda sulla normativa", View: messages.ViewAsk}}
	if withDocuments {
		items = append(items, Item{Label: "Documents", Hint: "consulta i testi indicizzati", View: messages.ViewDocuments})
	}
	items = append(items,
		Item{Label: "Help", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)

	h := help.New()
	h.Styles.ShortKey = s.Help
	h.Styles.ShortDesc = s.Help

	return &View{
		styles: s,
		keymap: km,
		help:   h,
		items:  items,
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case key.Matches(msg, v.keymap.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case key.Matches(msg, v.keymap.Open):
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case key.Matches(msg, v.keymap.Quit):
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("urbanlex"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Normativa edilizia e urbanistica"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(item.Label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(item.Label))
		}
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView(v.keymap.For(keymap.ContextMenu)))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
