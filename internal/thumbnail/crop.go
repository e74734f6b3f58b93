package thumbnail

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("thumbnail: empty image")

// CropSquare center-crops img to a square whose side is the shorter of its
// width and height, discarding the excess evenly on both sides.
func CropSquare(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 {
		return nil, ErrEmptyImage
	}
	if b.Dx() == b.Dy() {
		return img, nil
	}
	return imaging.CropCenter(img, side, side), nil
}
