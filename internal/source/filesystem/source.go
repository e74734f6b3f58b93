package filesystem

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"media-ingest/internal/acquire"
	fsretry "media-ingest/internal/filesystem"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/thumbnail"
)

// Source is a media folder on a local or network filesystem.
type Source struct {
	name   string
	root   string
	walker *Walker
}

// New creates a folder source. name defaults to the folder's base name.
func New(name, root string, config WalkerConfig) *Source {
	if name == "" {
		name = filepath.Base(root)
	}
	return &Source{name: name, root: root, walker: NewWalker(root, config)}
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// Root returns the folder being walked.
func (s *Source) Root() string { return s.root }

// Enumerate walks the folder.
func (s *Source) Enumerate(ctx context.Context) ([]media.Handle, error) {
	files, err := s.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	handles := make([]media.Handle, len(files))
	for i, f := range files {
		handles[i] = f
	}
	return handles, nil
}

// IsFile matches handles backed by a local file.
func IsFile(h media.Handle) bool {
	_, ok := h.(*media.File)
	return ok
}

// Thumbnails decodes file thumbnails in the background. ctx bounds every
// decode; after it is cancelled requests fail instead of starting.
func Thumbnails(ctx context.Context, size int) acquire.Provider[image.Image] {
	return acquire.ProviderFunc[image.Image](func(h media.Handle, deliver acquire.Deliver[image.Image]) {
		f, ok := h.(*media.File)
		if !ok {
			deliver(h, nil, fmt.Errorf("not a file handle: %T", h))
			return
		}
		go func() {
			if err := ctx.Err(); err != nil {
				deliver(h, nil, err)
				return
			}
			img, err := thumbnail.Decode(ctx, f.Path, f.Type, size)
			if err != nil {
				logging.Debug("Thumbnail decode failed for %s: %v", f.Path, err)
			}
			deliver(h, img, err)
		}()
	})
}

// Downloads copies files into temp files inside dir in the background.
func Downloads(ctx context.Context, dir string, retry fsretry.RetryConfig) acquire.Provider[string] {
	return acquire.ProviderFunc[string](func(h media.Handle, deliver acquire.Deliver[string]) {
		f, ok := h.(*media.File)
		if !ok {
			deliver(h, "", fmt.Errorf("not a file handle: %T", h))
			return
		}
		go func() {
			if err := ctx.Err(); err != nil {
				deliver(h, "", err)
				return
			}
			tmp, err := fsretry.CopyToTemp(f.Path, dir, retry)
			deliver(h, tmp, err)
		}()
	})
}
