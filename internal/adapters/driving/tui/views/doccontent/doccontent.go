// Package doccontent provides the document content view for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// ErrNoDocumentStore indicates that no document getter was provided.
var ErrNoDocumentStore = errors.New("document store not available")

// Getter loads a stored document.
type Getter interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// View is the document content view.
type View struct {
	styles *styles.Styles
	getter Getter
	ctx    context.Context

	documentID   string
	document     *domain.Document
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	back         messages.ViewType
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, getter Getter) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		getter: getter,
		ctx:    context.Background(),
		width:  80,
		height: 24,
		back:   messages.ViewDocuments,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetReturnView sets the view esc goes back to.
func (v *View) SetReturnView(view messages.ViewType) {
	v.back = view
}

// SetDocumentID clears the view and returns a command that loads id.
func (v *View) SetDocumentID(id string) tea.Cmd {
	v.documentID = id
	v.document = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	getter := v.getter
	ctx := v.ctx
	return func() tea.Msg {
		if getter == nil {
			return messages.DocumentLoaded{DocumentID: id, Err: ErrNoDocumentStore}
		}
		doc, err := getter.GetDocument(ctx, id)
		return messages.DocumentLoaded{DocumentID: id, Document: doc, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentLoaded:
		// Ignore late results for a previously requested document.
		if msg.DocumentID != v.documentID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.document = msg.Document
		v.err = nil
		v.wrapContent()
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
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}

	return v, nil
}

// wrapContent wraps the document text to the view width.
func (v *View) wrapContent() {
	if v.document == nil || v.document.Content == "" {
		v.lines = nil
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	rawLines := strings.Split(v.document.Content, "\n")
	v.lines = make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if line == "" {
			v.lines = append(v.lines, "")
			continue
		}
		wrapped := lipgloss.NewStyle().Width(contentWidth).Render(line)
		for _, l := range strings.Split(wrapped, "\n") {
			v.lines = append(v.lines, strings.TrimRight(l, " "))
		}
	}
}

// visibleLines returns the number of content lines that fit.
func (v *View) visibleLines() int {
	// Title, metadata header, separator, help and padding.
	available := v.height - 10
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := v.documentID
	if v.document != nil && v.document.Title != "" {
		title = v.document.Title
	}
	if title == "" {
		title = "Document"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	if v.document != nil {
		b.WriteString(v.renderHeader())
	}

	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading document..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percentage := 0
			if m := v.maxScrollOffset(); m > 0 {
				percentage = v.scrollOffset * 100 / m
			}
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
				percentage,
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.lines)),
				len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))

	return b.String()
}

// renderHeader renders citation and classification of the document.
func (v *View) renderHeader() string {
	doc := v.document
	md := doc.Metadata

	var parts []string
	if c := domain.MetaString(md, domain.MetaCitation); c != "" {
		parts = append(parts, v.styles.Citation.Render(c))
	}
	docType := domain.MetaString(md, domain.MetaDocumentType)
	if docType == "" {
		docType = doc.Type
	}
	for _, field := range []struct{ label, value string }{
		{"tipo", docType},
		{"stato", domain.MetaString(md, domain.MetaStatus)},
		{"ambito", domain.MetaString(md, domain.MetaScopeLevel)},
		{"regione", domain.MetaString(md, domain.MetaRegionCode)},
	} {
		if field.value != "" {
			parts = append(parts, v.styles.Muted.Render(field.label+": ")+field.value)
		}
	}
	if n := len(doc.Articles); n > 0 {
		parts = append(parts, v.styles.Muted.Render(fmt.Sprintf("%d articoli", n)))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "  ") + "\n"
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// DocumentID returns the requested document ID.
func (v *View) DocumentID() string {
	return v.documentID
}

// Document returns the loaded document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Lines returns the wrapped content lines.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
