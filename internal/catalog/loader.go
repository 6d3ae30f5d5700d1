package catalog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Loader caches the catalog read from a file and shares it across sessions.
// The file is re-read only when its size or modification time changes.
type Loader struct {
	path string

	mu      sync.RWMutex
	current *Catalog
	size    int64
	modTime time.Time
	pinned  bool
}

// NewLoader creates a Loader for path. Nothing is read until Catalog is called.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the backing file path.
func (l *Loader) Path() string { return l.path }

// Catalog returns the cached catalog, reloading it if the file changed.
// A catalog installed with Replace is returned as-is until the next Replace.
func (l *Loader) Catalog() (*Catalog, error) {
	l.mu.RLock()
	if l.pinned {
		c := l.current
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrCatalogLoad, l.path, err)
	}

	l.mu.RLock()
	if l.current != nil && info.Size() == l.size && info.ModTime().Equal(l.modTime) {
		c := l.current
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	c, err := LoadFile(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pinned {
		return l.current, nil
	}
	l.current = c
	l.size = info.Size()
	l.modTime = info.ModTime()
	return c, nil
}

// Replace installs an uploaded catalog, detaching the loader from its file.
func (l *Loader) Replace(c *Catalog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = c
	l.pinned = true
}
