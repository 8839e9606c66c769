package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"photopipe/internal/models"
)

// Every variant is re-encoded to lossy WebP.
const (
	OutputExtension   = "webp"
	OutputContentType = "image/webp"
)

// Renderer resizes, crops and encodes variants.
type Renderer struct{}

// RenderVariant decodes data and renders it for v.
func RenderVariant(data []byte, v models.VariantConfig) ([]byte, error) {
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Renderer{}.Render(src, v)
}

// Render produces the encoded bytes of one variant from an already decoded
// source. Output is deterministic for a given source and config.
func (r Renderer) Render(src image.Image, v models.VariantConfig) ([]byte, error) {
	const op = "imageproc.Renderer.Render"

	if v.Quality < 0 || v.Quality > 100 {
		return nil, fmt.Errorf("%s: %w: variant %q quality %d out of range", op, models.ErrEncode, v.Name, v.Quality)
	}

	b := src.Bounds()
	g := ComputeTargetSize(b.Dx(), b.Dy(), v)

	out := imaging.Resize(src, g.ResizeWidth, g.ResizeHeight, imaging.Lanczos)
	if g.Cropped() {
		out = imaging.Crop(out, g.Crop)
	}

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(v.Quality))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrEncode, err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, opts); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
