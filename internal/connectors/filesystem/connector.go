// Package filesystem reads the corpus from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// Verify interface compliance.
var (
	_ driven.CorpusSource  = (*Source)(nil)
	_ driven.CorpusWatcher = (*Source)(nil)
)

// DefaultMaxFileSize bounds the files read into the corpus.
const DefaultMaxFileSize int64 = 32 << 20

// Source lists and reads every visible regular file under a root directory.
type Source struct {
	root        string
	maxFileSize int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Source.
type Option func(*Source)

// WithMaxFileSize skips files larger than n bytes. Zero disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(s *Source) {
		s.maxFileSize = n
	}
}

// New creates a source rooted at dir.
func New(dir string, opts ...Option) *Source {
	s := &Source{
		root:        filepath.Clean(dir),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the root directory.
func (s *Source) Name() string {
	return s.root
}

// Validate checks that the root exists and is a directory.
func (s *Source) Validate() error {
	info, err := os.Stat(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewConfigurationError("corpus.directory", "%s does not exist", s.root)
	}
	if err != nil {
		return domain.NewConfigurationError("corpus.directory", "%s: %v", s.root, err)
	}
	if !info.IsDir() {
		return domain.NewConfigurationError("corpus.directory", "%s is not a directory", s.root)
	}
	return nil
}

// List walks the tree and returns visible regular files sorted by path.
// Hidden files and directories are skipped, as are files over the size limit.
func (s *Source) List(ctx context.Context) ([]domain.SourceRef, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var refs []domain.SourceRef
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != s.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
			logger.Warn("skipping %s: %d bytes exceeds limit of %d", path, info.Size(), s.maxFileSize)
			return nil
		}

		refs = append(refs, domain.SourceRef{
			URI:      path,
			MIMEType: detectMIMEType(path),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].URI < refs[j].URI })
	return refs, nil
}

// Read returns the bytes of one listed file.
func (s *Source) Read(ctx context.Context, ref domain.SourceRef) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(ref.URI)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.URI, err)
	}

	mimeType := ref.MIMEType
	if mimeType == "" {
		mimeType = detectMIMEType(ref.URI)
	}

	return &domain.RawDocument{
		URI:      ref.URI,
		MIMEType: mimeType,
		Content:  content,
	}, nil
}

// Watch emits a change for every create, write, remove or rename of a
// visible file under the root. Directories created later are watched too.
// The channel closes when ctx is cancelled or the source is closed.
func (s *Source) Watch(ctx context.Context) (<-chan domain.CorpusChange, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := s.addTree(watcher, s.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.watcher = watcher
	s.mu.Unlock()

	changes := make(chan domain.CorpusChange, 16)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := s.addTree(watcher, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
				change := s.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("corpus watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops an active watcher.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// handleFsEvent maps a filesystem event to a corpus change, or nil when the
// event does not affect the corpus.
func (s *Source) handleFsEvent(event fsnotify.Event) *domain.CorpusChange {
	if hasHiddenComponent(s.root, event.Name) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		changeType = domain.ChangeDeleted
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	if changeType != domain.ChangeDeleted && isDir(event.Name) {
		return nil
	}

	return &domain.CorpusChange{Type: changeType, URI: event.Name}
}

func (s *Source) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether a single path element is a dotfile.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// hasHiddenComponent reports whether any element of path below root is hidden.
func hasHiddenComponent(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// extensionTypes covers corpus formats the platform MIME table may miss.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".html":     "text/html",
	".htm":      "text/html",
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm":     "application/vnd.ms-excel.sheet.macroEnabled.12",
}

// detectMIMEType guesses a MIME type from the file extension. Files without
// an extension are treated as plain text.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
