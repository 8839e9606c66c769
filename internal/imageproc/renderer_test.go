package imageproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	xwebp "golang.org/x/image/webp"

	"photopipe/internal/models"
)

// gradientPNG builds a w x h PNG with a color ramp so resampling has content
// to work with.
func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.White)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func webpSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := xwebp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode webp config: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestRenderVariantDimensions(t *testing.T) {
	src := gradientPNG(t, 1000, 500)

	tests := []struct {
		v     models.VariantConfig
		wantW int
		wantH int
	}{
		{models.VariantConfig{Name: "thumb", Width: 200, Height: ptr(200), Quality: 70, Fit: models.FitCover}, 200, 200},
		{models.VariantConfig{Name: "medium", Width: 800, Quality: 80, Fit: models.FitInside}, 800, 400},
		{models.VariantConfig{Name: "large", Width: 1600, Quality: 85, Fit: models.FitInside}, 1600, 800},
	}
	for _, tt := range tests {
		t.Run(tt.v.Name, func(t *testing.T) {
			out, err := RenderVariant(src, tt.v)
			if err != nil {
				t.Fatalf("RenderVariant: %v", err)
			}
			w, h := webpSize(t, out)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestRenderVariantDeterministic(t *testing.T) {
	src := gradientPNG(t, 640, 480)
	v := models.VariantConfig{Name: "thumb", Width: 200, Height: ptr(200), Quality: 70, Fit: models.FitCover}

	first, err := RenderVariant(src, v)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := RenderVariant(src, v)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestRenderVariantDecodeError(t *testing.T) {
	v := models.VariantConfig{Name: "thumb", Width: 200, Height: ptr(200), Quality: 70, Fit: models.FitCover}
	_, err := RenderVariant([]byte("definitely not an image"), v)
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestRenderEncodeErrorOnQuality(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	v := models.VariantConfig{Name: "broken", Width: 20, Quality: 150, Fit: models.FitInside}
	_, err := Renderer{}.Render(src, v)
	if !errors.Is(err, models.ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, models.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
