// Package filesystem reads financial documents from a local directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/normalisers"
)

// Source enumerates and watches files under a root directory.
// Hidden files and directories are skipped.
type Source struct {
	root  string
	types map[string]struct{}

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Source.
type Option func(*Source)

// WithMIMETypes restricts the source to files of the given MIME types.
func WithMIMETypes(types []string) Option {
	return func(s *Source) {
		s.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
}

// New creates a source rooted at root.
func New(root string, opts ...Option) *Source {
	s := &Source{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the watched directory.
func (s *Source) Root() string {
	return s.root
}

// Validate checks that the root exists and is a directory.
func (s *Source) Validate() error {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: directory does not exist: %s", domain.ErrInvalidInput, s.root)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory: %s", domain.ErrInvalidInput, s.root)
	}
	return nil
}

// Scan walks the tree once and emits every accepted file.
// Both channels are closed when the walk ends.
func (s *Source) Scan(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := s.Validate(); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != s.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			doc, ok, err := s.load(path)
			if err != nil || !ok {
				return err
			}
			select {
			case docs <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch emits files as they are created or written under the root.
// The channel closes when ctx is cancelled or the source is closed.
func (s *Source) Watch(ctx context.Context) (<-chan domain.RawDocument, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// fsnotify is not recursive.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.root, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	docs := make(chan domain.RawDocument)
	go func() {
		defer close(docs)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				doc, ok := s.handleEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case docs <- doc:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return docs, nil
}

// Close stops any active watcher.
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

// handleEvent turns a create or write event into a document. New
// directories are added to the watcher. Removals are ignored because
// indexed evidence is never deleted by the watcher.
func (s *Source) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.RawDocument, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.RawDocument{}, false
	}
	if rel, err := filepath.Rel(s.root, event.Name); err != nil || isHidden(rel) {
		return domain.RawDocument{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return domain.RawDocument{}, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && watcher != nil {
			_ = watcher.Add(event.Name) //nolint:errcheck // best effort
		}
		return domain.RawDocument{}, false
	}
	// Editors create the file before writing it; the write event follows.
	if info.Size() == 0 {
		return domain.RawDocument{}, false
	}

	doc, ok, err := s.load(event.Name)
	if err != nil || !ok {
		return domain.RawDocument{}, false
	}
	return doc, true
}

// load reads path into a raw document when its type is accepted.
func (s *Source) load(path string) (domain.RawDocument, bool, error) {
	mimeType := normalisers.MIMETypeFor(path)
	if s.types != nil {
		if _, ok := s.types[mimeType]; !ok {
			return domain.RawDocument{}, false, nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.RawDocument{
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
	}, true, nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
