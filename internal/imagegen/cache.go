package imagegen

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache provides file-based caching for rendered AQI cards, keyed by the
// category so a card is only re-rendered when the index moves bands.
type Cache struct {
	dir    string
	maxAge time.Duration
}

// NewCache creates a new card cache in the specified directory.
func NewCache(dir string) *Cache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		// Cache is optional; rendering falls back to on-demand.
		log.Printf("imagegen: could not create cache directory: %v", err)
	}
	return &Cache{
		dir:    dir,
		maxAge: 10 * time.Minute,
	}
}

func (c *Cache) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(c.dir, fmt.Sprintf("card_%s.png", safe))
}

// Get retrieves a cached card if it exists and is not stale.
func (c *Cache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Set stores a rendered card in the cache.
func (c *Cache) Set(key string, data []byte) error {
	return os.WriteFile(c.path(key), data, 0644)
}
