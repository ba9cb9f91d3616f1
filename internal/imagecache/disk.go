// disk.go: persistent encoded-image cache
package imagecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroview/retroview-go/internal/errors"
)

// DiskCache stores encoded image bytes as a flat directory of files, one per
// cache key. It never evicts on its own; Clear is the only way space comes
// back, driven by an external trigger.
type DiskCache struct {
	dir string
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("creating disk cache directory: %w", err)).
			Category(errors.CategoryImageCache).
			Context("dir", dir).
			Build()
	}
	return &DiskCache{dir: dir}, nil
}

// fileName maps a cache key to a file name, replacing separator characters
// so a hostile image id cannot escape the cache directory.
func (c *DiskCache) fileName(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, key)
	return filepath.Join(c.dir, sanitized+".jpg")
}

// Get returns the cached bytes for key, or ok=false on a miss.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.fileName(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores data under key. The write goes through a temp file and rename
// so a crash cannot leave a truncated entry behind.
func (c *DiskCache) Put(key string, data []byte) error {
	target := c.fileName(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.New(fmt.Errorf("writing disk cache entry: %w", err)).
			Category(errors.CategoryImageCache).
			Context("key", key).
			Build()
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.New(fmt.Errorf("committing disk cache entry: %w", err)).
			Category(errors.CategoryImageCache).
			Context("key", key).
			Build()
	}
	return nil
}

// Clear removes every cached file.
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.New(fmt.Errorf("listing disk cache: %w", err)).
			Category(errors.CategoryImageCache).
			Context("dir", c.dir).
			Build()
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return errors.New(fmt.Errorf("removing disk cache entry: %w", err)).
				Category(errors.CategoryImageCache).
				Context("file", entry.Name()).
				Build()
		}
	}
	return nil
}

// Dir returns the cache directory path.
func (c *DiskCache) Dir() string {
	return c.dir
}
