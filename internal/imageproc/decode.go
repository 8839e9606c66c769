package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// imaging registers jpeg, png, gif, bmp and tiff.
	_ "golang.org/x/image/webp"

	"photopipe/internal/models"
)

// Decode parses raw image bytes, applying any EXIF orientation. Failures wrap
// models.ErrDecode.
func Decode(data []byte) (image.Image, error) {
	const op = "imageproc.Decode"

	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty input", op, models.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%s: %w: zero-sized image", op, models.ErrDecode)
	}
	return img, nil
}
