package domain

// RawDocument is a source file before normalisation: its bytes, where
// they came from and what the caller already knows about the act.
type RawDocument struct {
	// URI is a file path or URL; normalisers derive IDs and titles from it.
	URI      string
	MIMEType string
	Content  []byte

	// Hints override what metadata extraction would infer, e.g. the
	// region of a regional law whose text never names it.
	Hints DocumentConfig

	// Metadata is copied onto the normalised Document as-is.
	Metadata map[string]any
}

// ChangeType classifies a watcher event.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

var changeNames = [...]string{"created", "updated", "deleted"}

func (c ChangeType) String() string {
	if c < 0 || int(c) >= len(changeNames) {
		return unknownDescription
	}
	return changeNames[c]
}

// RawDocumentChange is emitted when a watched source file appears,
// changes or disappears. Deletions carry no Content.
type RawDocumentChange struct {
	Type     ChangeType
	Document RawDocument
}
