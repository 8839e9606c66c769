package imageproc

import (
	"fmt"
	"image"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"

	"photopipe/internal/models"
)

const (
	placeholderWorkingSize = 32
	placeholderXComponents = 4
	placeholderYComponents = 3
)

// PlaceholderEncoder produces BlurHash strings over a 4x3 component grid.
type PlaceholderEncoder struct{}

// EncodePlaceholder decodes data and returns its BlurHash.
func EncodePlaceholder(data []byte) (string, error) {
	const op = "imageproc.EncodePlaceholder"

	src, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrPlaceholder, err)
	}
	return PlaceholderEncoder{}.Encode(src)
}

// Encode downsamples src to at most 32px on its longest side and hashes the
// result. The hash length depends only on the component grid.
func (PlaceholderEncoder) Encode(src image.Image) (string, error) {
	const op = "imageproc.PlaceholderEncoder.Encode"

	b := src.Bounds()
	box := placeholderWorkingSize
	g := ComputeTargetSize(b.Dx(), b.Dy(), models.VariantConfig{
		Width:  box,
		Height: &box,
		Fit:    models.FitInside,
	})
	small := imaging.Resize(src, g.ResizeWidth, g.ResizeHeight, imaging.Box)

	hash, err := blurhash.Encode(placeholderXComponents, placeholderYComponents, small)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, models.ErrPlaceholder, err)
	}
	return hash, nil
}
