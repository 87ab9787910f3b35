package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers ordered by priority.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// Register adds a normaliser under each of its MIME types. Registration
// order breaks priority ties.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range n.SupportedMIMETypes() {
		key := canonicalMIME(mime)
		list := append(r.byMIME[key], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[key] = list
	}
}

// Normalise dispatches raw to the preferred normaliser for its MIME type.
// Parameters such as charset are ignored when matching.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, ok := r.lookup(raw.MIMEType)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, raw.URI, raw.MIMEType)
	}
	return n.Normalise(ctx, raw)
}

// Supports reports whether any normaliser handles mime.
func (r *Registry) Supports(mime string) bool {
	_, ok := r.lookup(mime)
	return ok
}

// SupportedMIMETypes returns the registered MIME types in sorted order.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(mime string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byMIME[canonicalMIME(mime)]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

func canonicalMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
