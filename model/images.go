package model

import (
	"bytes"
	"fmt"
	"image"
	// decoders available to image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/devblok/koru/utility/kar"
)

// Image is an opaque image handle produced by an ImageLoader
type Image interface{}

// ImageLoader loads the image at a resolved path. Implementations have
// to be safe for concurrent use.
type ImageLoader interface {
	Load(path string) (Image, error)
}

// imageCache remembers decoded images by path
type imageCache struct {
	mu    sync.RWMutex
	items map[string]image.Image
}

func newImageCache() *imageCache {
	return &imageCache{
		items: make(map[string]image.Image),
	}
}

func (c *imageCache) get(key string, load func() ([]byte, error)) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	raw, err := load()
	if err != nil {
		return nil, err
	}
	img, _, err = image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.items[key]; ok {
		return cached, nil
	}
	c.items[key] = img
	return img, nil
}

// FileImageLoader decodes images from disk. Images are image.Image
// values, decoded once per path.
type FileImageLoader struct {
	cache *imageCache
}

// NewFileImageLoader creates an empty loader
func NewFileImageLoader() *FileImageLoader {
	return &FileImageLoader{
		cache: newImageCache(),
	}
}

// Load implements ImageLoader
func (l *FileImageLoader) Load(path string) (Image, error) {
	return l.cache.get(path, func() ([]byte, error) {
		return ioutil.ReadFile(path)
	})
}

// ArchiveImageLoader decodes images stored in a kar archive
type ArchiveImageLoader struct {
	archive *kar.Archive
	cache   *imageCache
}

// NewArchiveImageLoader creates a loader reading from ar
func NewArchiveImageLoader(ar *kar.Archive) *ArchiveImageLoader {
	return &ArchiveImageLoader{
		archive: ar,
		cache:   newImageCache(),
	}
}

// Load implements ImageLoader
func (l *ArchiveImageLoader) Load(name string) (Image, error) {
	name = path.Clean(filepath.ToSlash(name))
	return l.cache.get(name, func() ([]byte, error) {
		return l.archive.ReadAll(name)
	})
}

// ResolveImagePath turns an init_from reference into a path relative to
// baseDir, stripping a file scheme and URI escapes.
func ResolveImagePath(baseDir, ref string) string {
	ref = strings.TrimPrefix(ref, "file://")
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	if filepath.IsAbs(ref) || baseDir == "" {
		return filepath.FromSlash(ref)
	}
	return filepath.Join(baseDir, filepath.FromSlash(ref))
}
