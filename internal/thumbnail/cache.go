package thumbnail

import (
	"bytes"
	"container/list"
	"crypto/md5" //nolint:gosec // MD5 used for cache file naming, not security
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"

	"github.com/disintegration/imaging"
)

// DefaultMemoryEntries bounds the in-memory tier.
const DefaultMemoryEntries = 512

type memEntry struct {
	key string
	img image.Image
}

// Cache keeps thumbnails in a bounded memory tier backed by JPEG files on
// disk. All methods are safe for concurrent use.
type Cache struct {
	dir        string
	maxEntries int

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

// NewCache creates a cache rooted at dir. An empty dir keeps thumbnails in
// memory only.
func NewCache(dir string, maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating thumbnail dir: %w", err)
		}
	}
	return &Cache{
		dir:        dir,
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}, nil
}

// path returns the disk location of key.
func (c *Cache) path(key string) string {
	sum := md5.Sum([]byte(key)) //nolint:gosec // MD5 used for cache file naming, not security
	return filepath.Join(c.dir, fmt.Sprintf("%x.jpg", sum))
}

// Exists reports whether key is cached in either tier.
func (c *Cache) Exists(key string) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	c.mu.Unlock()
	if ok {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Store encodes img to disk and keeps it in memory.
func (c *Cache) Store(img image.Image, key string) error {
	if img == nil {
		return ErrEmptyImage
	}
	if c.dir != "" {
		data, err := encode(img)
		if err != nil {
			return err
		}
		if err := writeAtomic(c.path(key), data); err != nil {
			return fmt.Errorf("writing thumbnail %s: %w", key, err)
		}
		logging.Debug("Thumbnail cached: %s", key)
	}
	c.remember(key, img)
	return nil
}

// Lookup returns the thumbnail for key, loading it from disk on a memory
// miss.
func (c *Cache) Lookup(key string) (image.Image, bool) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		img := el.Value.(*memEntry).img
		c.mu.Unlock()
		metrics.ThumbnailCacheHits.Inc()
		return img, true
	}
	c.mu.Unlock()

	if c.dir == "" {
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}
	img, err := imaging.Open(c.path(key))
	if err != nil {
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}
	metrics.ThumbnailCacheHits.Inc()
	c.remember(key, img)
	return img, true
}

// JPEG returns the encoded thumbnail for key.
func (c *Cache) JPEG(key string) ([]byte, error) {
	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			return data, nil
		}
	}
	img, ok := c.Lookup(key)
	if !ok {
		return nil, os.ErrNotExist
	}
	return encode(img)
}

// Len returns the number of thumbnails held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) remember(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*memEntry).img = img
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&memEntry{key: key, img: img})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memEntry).key)
	}
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes through a temp file so readers never see a partial
// thumbnail.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
