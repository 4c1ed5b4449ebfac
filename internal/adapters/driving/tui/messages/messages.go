// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// AskRequested is a command to answer a question.
type AskRequested struct {
	Query   string
	Options domain.AskOptions
}

// AskCompleted carries the composed response back to the model.
type AskCompleted struct {
	Response *domain.Response
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewDocuments lists stored documents.
	ViewDocuments
	// ViewDocContent shows a document with its legal metadata.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// DocumentsLoaded carries the stored documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected asks to open a document, from the documents list or
// from a cited source.
type DocumentSelected struct {
	DocumentID string
}

// DocumentLoaded carries a full document.
type DocumentLoaded struct {
	DocumentID string
	Document   *domain.Document
	Err        error
}

// StatusMessage is a transient notice for the status bar.
type StatusMessage struct {
	Text string
}
