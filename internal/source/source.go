// Package source reads template files for the resolver. A Cached reader is
// shared by every run of an experiment matrix so that the parameter tables
// and input manifests all runs include are read from disk once.
package source

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Reader returns the contents of a template file.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// OS reads files from the local filesystem.
type OS struct{}

// ReadFile implements Reader.
func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultCacheSize is the number of files a Cached reader keeps.
const DefaultCacheSize = 256

// Cached wraps a Reader with an LRU cache keyed by cleaned absolute path.
// It is safe for concurrent use. Cached contents must be treated as
// read-only by callers.
type Cached struct {
	next  Reader
	files *lru.Cache[string, []byte]
}

// NewCached returns a caching reader holding at most size files.
func NewCached(next Reader, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	return &Cached{next: next, files: files}, nil
}

// ReadFile implements Reader.
func (c *Cached) ReadFile(path string) ([]byte, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	if data, ok := c.files.Get(key); ok {
		return data, nil
	}
	data, err := c.next.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, data)
	return data, nil
}

// Len returns the number of cached files.
func (c *Cached) Len() int {
	return c.files.Len()
}
