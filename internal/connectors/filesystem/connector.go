// Package filesystem reads legal texts from a local directory tree and
// watches it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
)

// DefaultExtensions are the file types the normalisers can read.
var DefaultExtensions = []string{".txt", ".md", ".markdown", ".htm", ".html", ".xhtml"}

// ErrClosed is returned when the connector has been closed.
var ErrClosed = errors.New("connector closed")

// maxFileSize skips files that are unlikely to be a single act.
const maxFileSize = 20 << 20

// Connector reads documents from a file or directory.
type Connector struct {
	rootPath   string
	hints      domain.DocumentConfig
	extensions map[string]bool

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithHints attaches the same document hints to every file read.
func WithHints(h domain.DocumentConfig) Option {
	return func(c *Connector) {
		c.hints = h
	}
}

// WithExtensions replaces the accepted file extensions.
func WithExtensions(exts ...string) Option {
	return func(c *Connector) {
		c.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			c.extensions[e] = true
		}
	}
}

// New creates a connector rooted at rootPath, which may be a single file.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{rootPath: rootPath}
	WithExtensions(DefaultExtensions...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the configured root.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks the root exists.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(c.rootPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path error: %s does not exist", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	return nil
}

// FullSync streams every supported, non-hidden file under the root.
// Both channels are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				logger.Warn("skipping %s: %v", path, walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !c.supported(path) {
				return nil
			}

			raw, err := c.read(path)
			if err != nil {
				logger.Warn("skipping %s: %v", path, err)
				return nil
			}

			select {
			case docs <- *raw:
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

// Watch reports file changes under the root directory until ctx is done.
// New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("watching %s: %v", event.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(event)
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
				logger.Warn("watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleFsEvent converts a watcher event into a change, or nil when
// the event is irrelevant.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hidden(event.Name) || !c.supported(event.Name) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name, MIMEType: normalisers.MIMEForPath(event.Name)},
		}
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	if isDir(event.Name) {
		return nil
	}
	raw, err := c.read(event.Name)
	if err != nil {
		logger.Debug("ignoring %s: %v", event.Name, err)
		return nil
	}
	return &domain.RawDocumentChange{Type: changeType, Document: *raw}
}

// Close stops the watcher. It is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func (c *Connector) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// hidden checks path relative to the root so a root inside a dot
// directory still works.
func (c *Connector) hidden(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	return isHidden(rel)
}

func (c *Connector) supported(path string) bool {
	return c.extensions[strings.ToLower(filepath.Ext(path))]
}

func (c *Connector) read(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: file larger than %d bytes", domain.ErrInvalidInput, maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		URI:      path,
		MIMEType: normalisers.MIMEForPath(path),
		Content:  content,
		Hints:    c.hints,
		Metadata: map[string]any{
			"filename":  filepath.Base(path),
			"extension": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			"modified":  info.ModTime().UTC().Format(time.RFC3339),
		},
	}, nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
