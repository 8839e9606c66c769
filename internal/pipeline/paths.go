package pipeline

import (
	"path"
	"strings"

	"photopipe/internal/imageproc"
)

// DerivedPath names the blob for variant of the original at originalPath:
// the extension is stripped and "_<variant>.webp" appended.
//
// A bare trailing dot is not an extension and is kept.
//
//	abc123/2024-01-01-beach.jpg + thumb -> abc123/2024-01-01-beach_thumb.webp
func DerivedPath(originalPath, variant string) string {
	base := originalPath
	if ext := path.Ext(originalPath); len(ext) > 1 {
		base = strings.TrimSuffix(originalPath, ext)
	}
	return base + "_" + variant + "." + imageproc.OutputExtension
}
