package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// Ensure CorpusInspector implements the interface.
var _ driving.CorpusService = (*CorpusInspector)(nil)

// SourceFactory opens the corpus source for a directory.
type SourceFactory func(directory string) driven.CorpusSource

// Splitter chunks loaded documents. An empty document set yields a single
// placeholder chunk and a warning.
type Splitter interface {
	Split(docs []domain.Document) ([]domain.Chunk, *domain.CorpusEmptyWarning)
}

// LoadReport is the outcome of loading a corpus source.
type LoadReport struct {
	Documents []domain.Document

	// Skipped lists items that could not be read or normalised, or that
	// held no text.
	Skipped []string
}

// CorpusLoader reads every item of a corpus source and extracts its text.
type CorpusLoader struct {
	registry driven.NormaliserRegistry
}

// NewCorpusLoader creates a loader that extracts text with registry.
func NewCorpusLoader(registry driven.NormaliserRegistry) *CorpusLoader {
	return &CorpusLoader{registry: registry}
}

// Load returns the documents of source in listing order.
func (l *CorpusLoader) Load(ctx context.Context, source driven.CorpusSource) ([]domain.Document, error) {
	report, err := l.LoadReport(ctx, source)
	if err != nil {
		return nil, err
	}
	return report.Documents, nil
}

// LoadReport loads source and records what was skipped. Only listing
// failures are returned as errors; a bad item never fails the load.
func (l *CorpusLoader) LoadReport(ctx context.Context, source driven.CorpusSource) (*LoadReport, error) {
	logger.Section("Corpus load")

	refs, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus %s: %w", source.Name(), err)
	}
	logger.Debug("Found %d items in %s", len(refs), source.Name())

	report := &LoadReport{Documents: make([]domain.Document, 0, len(refs))}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := l.loadOne(ctx, source, ref)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("Skipping %s: %v", ref.URI, err)
			} else {
				logger.Warn("Skipping %s: %v", ref.URI, err)
			}
			report.Skipped = append(report.Skipped, ref.URI)
			continue
		}
		if strings.TrimSpace(doc.RawText) == "" {
			logger.Debug("Skipping %s: no text", ref.URI)
			report.Skipped = append(report.Skipped, ref.URI)
			continue
		}

		report.Documents = append(report.Documents, *doc)
	}

	logger.Info("Loaded %d documents from %s (%d skipped)",
		len(report.Documents), source.Name(), len(report.Skipped))
	return report, nil
}

func (l *CorpusLoader) loadOne(ctx context.Context, source driven.CorpusSource, ref domain.SourceRef) (*domain.Document, error) {
	raw, err := source.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := l.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	doc := result.Document
	if doc.SourcePath == "" {
		doc.SourcePath = ref.URI
	}
	return &doc, nil
}

// CorpusInspector loads and chunks a corpus without calling any model.
type CorpusInspector struct {
	sources  SourceFactory
	loader   *CorpusLoader
	splitter Splitter
}

// NewCorpusInspector creates a corpus inspector.
func NewCorpusInspector(sources SourceFactory, loader *CorpusLoader, splitter Splitter) *CorpusInspector {
	return &CorpusInspector{sources: sources, loader: loader, splitter: splitter}
}

// Inspect reports document and chunk statistics for a corpus directory.
func (c *CorpusInspector) Inspect(ctx context.Context, corpusDirectory string) (*domain.CorpusStats, error) {
	report, err := c.loader.LoadReport(ctx, c.sources(corpusDirectory))
	if err != nil {
		return nil, err
	}

	chunks, warning := c.splitter.Split(report.Documents)

	stats := &domain.CorpusStats{
		Directory: corpusDirectory,
		Documents: len(report.Documents),
		Skipped:   report.Skipped,
		Chunks:    len(chunks),
		PerSource: make(map[string]int),
		Empty:     warning != nil,
	}
	for _, chunk := range chunks {
		stats.Tokens += chunk.TokenCount
		if chunk.TokenCount > stats.MaxChunkTokens {
			stats.MaxChunkTokens = chunk.TokenCount
		}
		if !chunk.IsPlaceholder() {
			stats.PerSource[chunk.SourcePath]++
		}
	}
	return stats, nil
}
