package imageproc

import (
	"image"
	"testing"

	"photopipe/internal/models"
)

func ptr(v int) *int { return &v }

func TestComputeTargetSizeCover(t *testing.T) {
	v := models.VariantConfig{Name: "thumb", Width: 200, Height: ptr(200), Fit: models.FitCover}

	g := ComputeTargetSize(1000, 500, v)
	if g.ResizeWidth != 400 || g.ResizeHeight != 200 {
		t.Fatalf("expected resize 400x200, got %dx%d", g.ResizeWidth, g.ResizeHeight)
	}
	if g.Crop.Min != (image.Point{X: 100, Y: 0}) {
		t.Fatalf("expected crop origin (100,0), got %v", g.Crop.Min)
	}
	if w, h := g.OutputSize(); w != 200 || h != 200 {
		t.Fatalf("expected output 200x200, got %dx%d", w, h)
	}
}

func TestComputeTargetSizeInside(t *testing.T) {
	v := models.VariantConfig{Name: "medium", Width: 800, Fit: models.FitInside}

	g := ComputeTargetSize(1000, 500, v)
	if g.ResizeWidth != 800 || g.ResizeHeight != 400 {
		t.Fatalf("expected 800x400, got %dx%d", g.ResizeWidth, g.ResizeHeight)
	}
	if g.Cropped() {
		t.Fatal("inside policy must not crop")
	}
}

func TestComputeTargetSizeTable(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		v            models.VariantConfig
		resizeW      int
		resizeH      int
		outW, outH   int
		cropX, cropY int
	}{
		{
			name: "cover tall source", srcW: 500, srcH: 1000,
			v:       models.VariantConfig{Width: 200, Height: ptr(200), Fit: models.FitCover},
			resizeW: 200, resizeH: 400, outW: 200, outH: 200, cropX: 0, cropY: 100,
		},
		{
			name: "cover exact ratio", srcW: 1200, srcH: 1200,
			v:       models.VariantConfig{Width: 200, Height: ptr(200), Fit: models.FitCover},
			resizeW: 200, resizeH: 200, outW: 200, outH: 200,
		},
		{
			name: "cover odd overflow", srcW: 1001, srcH: 500,
			v:       models.VariantConfig{Width: 200, Height: ptr(200), Fit: models.FitCover},
			resizeW: 400, resizeH: 200, outW: 200, outH: 200, cropX: 100,
		},
		{
			name: "inside portrait", srcW: 3000, srcH: 4000,
			v:       models.VariantConfig{Width: 1600, Fit: models.FitInside},
			resizeW: 1600, resizeH: 2133, outW: 1600, outH: 2133,
		},
		{
			name: "inside with explicit height limits", srcW: 1000, srcH: 1000,
			v:       models.VariantConfig{Width: 800, Height: ptr(400), Fit: models.FitInside},
			resizeW: 400, resizeH: 400, outW: 400, outH: 400,
		},
		{
			name: "inside upscales small source", srcW: 100, srcH: 50,
			v:       models.VariantConfig{Width: 800, Fit: models.FitInside},
			resizeW: 800, resizeH: 400, outW: 800, outH: 400,
		},
		{
			name: "cover without height falls back to inside", srcW: 1000, srcH: 500,
			v:       models.VariantConfig{Width: 200, Fit: models.FitCover},
			resizeW: 200, resizeH: 100, outW: 200, outH: 100,
		},
		{
			name: "degenerate panorama clamps to 1px", srcW: 10000, srcH: 1,
			v:       models.VariantConfig{Width: 200, Fit: models.FitInside},
			resizeW: 200, resizeH: 1, outW: 200, outH: 1,
		},
		{
			name: "non-positive source clamps", srcW: 0, srcH: -5,
			v:       models.VariantConfig{Width: 10, Height: ptr(10), Fit: models.FitCover},
			resizeW: 10, resizeH: 10, outW: 10, outH: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ComputeTargetSize(tt.srcW, tt.srcH, tt.v)
			if g.ResizeWidth != tt.resizeW || g.ResizeHeight != tt.resizeH {
				t.Fatalf("resize: expected %dx%d, got %dx%d", tt.resizeW, tt.resizeH, g.ResizeWidth, g.ResizeHeight)
			}
			w, h := g.OutputSize()
			if w != tt.outW || h != tt.outH {
				t.Fatalf("output: expected %dx%d, got %dx%d", tt.outW, tt.outH, w, h)
			}
			if g.Cropped() && (g.Crop.Min.X != tt.cropX || g.Crop.Min.Y != tt.cropY) {
				t.Fatalf("crop origin: expected (%d,%d), got %v", tt.cropX, tt.cropY, g.Crop.Min)
			}
		})
	}
}
