// Package imageproc turns a decoded photo into web-ready derivatives: resized
// WebP variants and a BlurHash placeholder.
package imageproc

import (
	"image"
	"math"

	"photopipe/internal/models"
)

// Geometry is the outcome of sizing one variant. Crop is the empty rectangle
// when the fit policy does not crop.
type Geometry struct {
	ResizeWidth  int
	ResizeHeight int
	Crop         image.Rectangle
}

// Cropped reports whether a crop follows the resize.
func (g Geometry) Cropped() bool {
	return !g.Crop.Empty()
}

// OutputSize is the final pixel size of the variant.
func (g Geometry) OutputSize() (int, int) {
	if g.Cropped() {
		return g.Crop.Dx(), g.Crop.Dy()
	}
	return g.ResizeWidth, g.ResizeHeight
}

// ComputeTargetSize sizes a srcW x srcH image for v. Results are never below
// 1px in either dimension.
func ComputeTargetSize(srcW, srcH int, v models.VariantConfig) Geometry {
	srcW, srcH = atLeastOne(srcW), atLeastOne(srcH)
	targetW := atLeastOne(v.Width)

	if v.Fit == models.FitCover && v.Height != nil {
		return coverGeometry(srcW, srcH, targetW, atLeastOne(*v.Height))
	}

	targetH := 0
	if v.Height != nil {
		targetH = atLeastOne(*v.Height)
	} else {
		targetH = atLeastOne(round(float64(srcH) * float64(targetW) / float64(srcW)))
	}
	scale := math.Min(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
	return Geometry{
		ResizeWidth:  atLeastOne(round(float64(srcW) * scale)),
		ResizeHeight: atLeastOne(round(float64(srcH) * scale)),
	}
}

func coverGeometry(srcW, srcH, targetW, targetH int) Geometry {
	var g Geometry
	srcAspect := float64(srcW) / float64(srcH)
	targetAspect := float64(targetW) / float64(targetH)
	if srcAspect > targetAspect {
		// wider than the box: match height, crop width
		g.ResizeHeight = targetH
		g.ResizeWidth = atLeastOne(round(float64(srcW) * float64(targetH) / float64(srcH)))
	} else {
		g.ResizeWidth = targetW
		g.ResizeHeight = atLeastOne(round(float64(srcH) * float64(targetW) / float64(srcW)))
	}

	cropW := min(targetW, g.ResizeWidth)
	cropH := min(targetH, g.ResizeHeight)
	x0 := (g.ResizeWidth - cropW) / 2
	y0 := (g.ResizeHeight - cropH) / 2
	g.Crop = image.Rect(x0, y0, x0+cropW, y0+cropH)
	return g
}

// round matches half-up rounding for the positive values used here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
