package domain

// SourceRef identifies one readable item of a corpus source.
type SourceRef struct {
	// URI is the item location, a file path for directory sources.
	URI string

	// MIMEType is derived from the file extension.
	MIMEType string

	// Size is the item size in bytes.
	Size int64
}

// RawDocument represents opaque bytes read from a corpus source.
// It is the source's output before normalisation.
type RawDocument struct {
	// URI is the original location.
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ChangeType represents the type of corpus change.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns a lowercase name for the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// CorpusChange is emitted when a watched corpus changes on disk.
type CorpusChange struct {
	Type ChangeType
	URI  string
}
