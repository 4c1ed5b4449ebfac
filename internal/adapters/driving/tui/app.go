package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	askView        *ask.View
	documentsView  *documents.View
	docContentView *doccontent.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	withDocuments := ports.Documents != nil

	app := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		menuView:    menu.NewView(s, km, withDocuments),
		askView:     ask.NewView(s, km, ports.Query),
		currentView: messages.ViewMenu,
	}
	if withDocuments {
		app.documentsView = documents.NewView(s, ports.Documents)
		app.docContentView = doccontent.NewView(s, ports.Documents)
	}
	return app, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	if a.documentsView != nil {
		a.documentsView.WithContext(ctx)
		a.docContentView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("urbanlex - normativa edilizia e urbanistica"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.AskRequested:
		a.currentView = messages.ViewAsk
		return a, a.askView.Ask(msg.Query)

	case messages.AskCompleted:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd

	case messages.DocumentSelected:
		if a.docContentView == nil {
			return a, nil
		}
		// Esc returns to wherever the document was opened from.
		a.docContentView.SetReturnView(a.currentView)
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocumentID(msg.DocumentID)

	case messages.DocumentLoaded:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)
	}

	return a, a.forward(msg)
}

// switchTo activates view, initialising it where needed.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if (view == messages.ViewDocuments || view == messages.ViewDocContent) && a.documentsView == nil {
		return nil
	}
	prev := a.currentView
	a.currentView = view

	switch view {
	case messages.ViewAsk:
		// Coming back from a cited document keeps the answer.
		if prev != messages.ViewDocContent {
			a.askView.Reset()
		}
		return a.askView.Init()
	case messages.ViewDocuments:
		return a.documentsView.Load()
	case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
	}
	return nil
}

// forward sends msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewDocuments:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
	case messages.ViewDocContent:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewDocuments:
		if a.documentsView != nil {
			return a.documentsView.View()
		}
	case messages.ViewDocContent:
		if a.docContentView != nil {
			return a.docContentView.View()
		}
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp lists every binding, grouped.
func (a *App) viewHelp() string {
	h := help.New()
	h.ShowAll = true
	return a.styles.Title.Render("Help") + "\n\n" +
		h.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Muted.Render("In the answer view, enter on a cited source opens, copies the citation or copies the excerpt.") + "\n\n" +
		a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	if a.documentsView != nil {
		a.documentsView.SetDimensions(width, height)
		a.docContentView.SetDimensions(width, height)
	}
}
