package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-ingest/internal/acquire"
	fsretry "media-ingest/internal/filesystem"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/source/filesystem"
	"media-ingest/internal/thumbnail"
)

// ErrDisconnected is returned for requests made after Close.
var ErrDisconnected = errors.New("camera disconnected")

// Object is a media object on a camera.
type Object struct {
	camera  *Camera
	rel     string
	name    string
	kind    string
	created time.Time
}

// Key identifies the object by camera name and storage path. It is stable
// across reconnects; the session only routes requests.
func (o *Object) Key() string { return "camera://" + o.camera.name + "/" + filepath.ToSlash(o.rel) }

// Name returns the file name as reported by the camera.
func (o *Object) Name() string { return o.name }

// Kind returns the type identifier.
func (o *Object) Kind() string { return o.kind }

// Captured returns the object's timestamp.
func (o *Object) Captured() time.Time { return o.created }

func (o *Object) path() string { return filepath.Join(o.camera.root, o.rel) }

type transferKind int

const (
	transferThumbnail transferKind = iota
	transferDownload
)

type transfer struct {
	kind      transferKind
	obj       *Object
	size      int
	dir       string
	thumbnail acquire.Deliver[image.Image]
	download  acquire.Deliver[string]
}

// Camera is a tethered camera whose storage is mounted at root. Every
// transfer runs on the camera's single session goroutine, in request order.
type Camera struct {
	id    string
	name  string
	root  string
	retry fsretry.RetryConfig

	walker *filesystem.Walker

	mu      sync.Mutex
	queue   []transfer
	closed  bool
	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// Open starts a session with the camera mounted at root.
func Open(name, root string) (*Camera, error) {
	if _, err := fsretry.StatWithRetry(root, fsretry.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("open camera at %s: %w", root, err)
	}
	if name == "" {
		name = "camera"
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Camera{
		id:      uuid.NewString(),
		name:    name,
		root:    root,
		retry:   fsretry.DefaultRetryConfig(),
		walker:  filesystem.NewWalker(root, filesystem.WalkerConfig{NumWorkers: 1, ChannelBuffer: 64, SkipHidden: true}),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go c.session()
	logging.Info("Camera %s connected at %s (session %s)", name, root, c.id)
	return c, nil
}

// Name returns the source name.
func (c *Camera) Name() string { return c.name }

// Enumerate lists the objects on the camera.
func (c *Camera) Enumerate(ctx context.Context) ([]media.Handle, error) {
	if c.isClosed() {
		return nil, ErrDisconnected
	}
	files, err := c.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}

	handles := make([]media.Handle, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(c.root, f.Path)
		if err != nil {
			continue
		}
		handles = append(handles, &Object{
			camera:  c,
			rel:     rel,
			name:    filepath.Base(rel),
			kind:    f.Type,
			created: f.Created,
		})
	}
	return handles, nil
}

// Owns reports whether h is an object of this camera session.
func (c *Camera) Owns(h media.Handle) bool {
	o, ok := h.(*Object)
	return ok && o.camera == c
}

// Thumbnails returns the camera's thumbnail provider.
func (c *Camera) Thumbnails(size int) acquire.Provider[image.Image] {
	return acquire.ProviderFunc[image.Image](func(h media.Handle, deliver acquire.Deliver[image.Image]) {
		o, err := c.object(h)
		if err != nil {
			deliver(h, nil, err)
			return
		}
		c.enqueue(transfer{kind: transferThumbnail, obj: o, size: size, thumbnail: deliver})
	})
}

// Downloads returns the camera's download provider. Objects are copied into
// temp files inside dir.
func (c *Camera) Downloads(dir string) acquire.Provider[string] {
	return acquire.ProviderFunc[string](func(h media.Handle, deliver acquire.Deliver[string]) {
		o, err := c.object(h)
		if err != nil {
			deliver(h, "", err)
			return
		}
		c.enqueue(transfer{kind: transferDownload, obj: o, dir: dir, download: deliver})
	})
}

func (c *Camera) object(h media.Handle) (*Object, error) {
	o, ok := h.(*Object)
	if !ok || o.camera != c {
		return nil, fmt.Errorf("%s is not an object of camera %s", h.Name(), c.name)
	}
	return o, nil
}

// enqueue adds t to the session queue. Requests made after Close are
// dropped without a callback, like a disconnected device.
func (c *Camera) enqueue(t transfer) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		logging.Debug("Camera %s disconnected, dropping request for %s", c.name, t.obj.name)
		return
	}
	c.queue = append(c.queue, t)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued transfers.
func (c *Camera) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Camera) next() (transfer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.queue) == 0 {
		return transfer{}, false
	}
	t := c.queue[0]
	c.queue[0] = transfer{}
	c.queue = c.queue[1:]
	return t, true
}

func (c *Camera) session() {
	defer close(c.stopped)
	for {
		t, ok := c.next()
		if !ok {
			select {
			case <-c.wake:
				continue
			case <-c.ctx.Done():
				return
			}
		}
		c.perform(t)
	}
}

func (c *Camera) perform(t transfer) {
	switch t.kind {
	case transferThumbnail:
		img, err := c.readThumbnail(t.obj, t.size)
		if c.isClosed() {
			return
		}
		t.thumbnail(t.obj, img, err)
	case transferDownload:
		tmp, err := fsretry.CopyToTemp(t.obj.path(), t.dir, c.retry)
		if c.isClosed() {
			return
		}
		t.download(t.obj, tmp, err)
	}
}

// readThumbnail reads the object and scales it. Videos need a frame grab
// from the file itself.
func (c *Camera) readThumbnail(o *Object, size int) (image.Image, error) {
	if mediatypes.IsVideoKind(o.kind) {
		return thumbnail.Decode(c.ctx, o.path(), o.kind, size)
	}
	data, err := fsretry.ReadFileWithRetry(o.path(), c.retry)
	if err != nil {
		return nil, err
	}
	img, err := thumbnail.DecodeBytes(data, size)
	if err != nil {
		// formats the Go decoders lack (HEIC, DNG) need the full pipeline
		return thumbnail.Decode(c.ctx, o.path(), o.kind, size)
	}
	return img, nil
}

func (c *Camera) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close disconnects the camera. Queued transfers are dropped and their
// callbacks are never invoked; a transfer in progress finishes silently.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	dropped := len(c.queue)
	c.queue = nil
	c.mu.Unlock()

	c.cancel()
	<-c.stopped
	logging.Info("Camera %s disconnected, %d queued transfers dropped", c.name, dropped)
	return nil
}
