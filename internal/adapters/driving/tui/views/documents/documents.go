// Package documents provides the stored documents list view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// ErrNoDocumentStore indicates that no document lister was provided.
var ErrNoDocumentStore = errors.New("document store not available")

// Lister lists stored documents.
type Lister interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// View is the documents list view.
type View struct {
	styles *styles.Styles
	lister Lister
	ctx    context.Context

	documents    []domain.Document
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, lister Lister) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		lister: lister,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load marks the view as loading and returns a command that lists
// the stored documents.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.err = nil
	lister := v.lister
	ctx := v.ctx
	return func() tea.Msg {
		if lister == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentStore}
		}
		docs, err := lister.ListDocuments(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			id := doc.ID
			return v, func() tea.Msg {
				return messages.DocumentSelected{DocumentID: id}
			}
		}
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Title, separator, help and padding.
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents stored. Run 'urbanlex ingest' first."))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.documents)),
				len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] open  [r] reload  [esc] back"))

	return b.String()
}

// renderDocument renders a single document line: title then citation.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	title := doc.Title
	if title == "" {
		title = doc.ID
	}

	titleWidth := v.width/2 - 4
	if titleWidth < 10 {
		titleWidth = 10
	}
	title = truncate(title, titleWidth)
	pad := strings.Repeat(" ", titleWidth-len([]rune(title)))

	citation := domain.MetaString(doc.Metadata, domain.MetaCitation)
	if citation == "" {
		citation = doc.Type
	}

	if index == v.selected {
		return v.styles.Selected.Render("> "+title+pad) + "  " + v.styles.Citation.Render(citation)
	}
	return v.styles.Normal.Render("  "+title+pad) + "  " + v.styles.Muted.Render(citation)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
