package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultSize is the edge length thumbnails are decoded to before cropping.
const DefaultSize = 320

// Decode produces a thumbnail-sized image of the file at path. Images go
// through libvips, then imaging, then ffmpeg; videos use a single ffmpeg
// frame.
func Decode(ctx context.Context, path, kind string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultSize
	}

	if mediatypes.IsVideoKind(kind) {
		img, err := timed("ffmpeg", func() (image.Image, error) { return videoFrame(ctx, path) })
		if err != nil {
			return nil, err
		}
		return imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos), nil
	}

	if IsVipsAvailable() {
		img, err := timed("vips", func() (image.Image, error) { return loadWithVips(path, size) })
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, trying imaging", filepath.Base(path), err)
	}

	img, err := timed("imaging", func() (image.Image, error) {
		return imaging.Open(path, imaging.AutoOrientation(true))
	})
	if err == nil {
		return imaging.Fit(img, size, size, imaging.Lanczos), nil
	}
	logging.Debug("imaging decode failed for %s: %v, trying ffmpeg", filepath.Base(path), err)

	img, err = timed("ffmpeg", func() (image.Image, error) { return ffmpegImage(ctx, path) })
	if err != nil {
		return nil, fmt.Errorf("all decoders failed for %s: %w", filepath.Base(path), err)
	}
	return imaging.Fit(img, size, size, imaging.Lanczos), nil
}

// DecodeBytes decodes an in-memory image, e.g. an embedded camera preview.
func DecodeBytes(data []byte, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultSize
	}
	img, err := timed("device", func() (image.Image, error) {
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	})
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, size, size, imaging.Lanczos), nil
}

func timed(decoder string, fn func() (image.Image, error)) (image.Image, error) {
	start := time.Now()
	img, err := fn()
	metrics.ThumbnailDecodeDuration.WithLabelValues(decoder).Observe(time.Since(start).Seconds())
	return img, err
}

func videoFrame(ctx context.Context, path string) (image.Image, error) {
	img, err := runFFmpeg(ctx, "-ss", "00:00:01", "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
	if err == nil {
		return img, nil
	}
	// Clips shorter than a second have no frame at 00:00:01.
	logging.Debug("ffmpeg seek failed for %s: %v, retrying first frame", filepath.Base(path), err)
	return runFFmpeg(ctx, "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
}

func ffmpegImage(ctx context.Context, path string) (image.Image, error) {
	return runFFmpeg(ctx, "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-pix_fmt", "rgb24", "-")
}

func runFFmpeg(ctx context.Context, args ...string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decoding ffmpeg output: %w", err)
	}
	return img, nil
}
