package driven

import (
	"context"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// CorpusSource is the capability a document source must provide to be loaded.
// A directory of files is the only source today.
type CorpusSource interface {
	// Name identifies the source in logs and warnings, e.g. the directory path.
	Name() string

	// List returns the readable items in a deterministic order.
	// An empty source returns an empty slice, not an error.
	List(ctx context.Context) ([]domain.SourceRef, error)

	// Read returns the raw bytes of one item.
	Read(ctx context.Context, ref domain.SourceRef) (*domain.RawDocument, error)
}

// CorpusWatcher reports changes to a corpus while a session is running.
type CorpusWatcher interface {
	// Watch emits changes until ctx is cancelled. The channel is closed on return.
	Watch(ctx context.Context) (<-chan domain.CorpusChange, error)
}
