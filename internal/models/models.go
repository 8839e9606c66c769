// internal/models/models.go
package models

import "time"

// FitPolicy maps a source image into a variant's target box.
type FitPolicy string

const (
	FitCover  FitPolicy = "cover"  // fill the box, then center-crop
	FitInside FitPolicy = "inside" // fit within the box, no crop
)

// VariantConfig describes one derived rendition. Height nil means the height
// is derived from the source aspect ratio.
type VariantConfig struct {
	Name    string    `yaml:"name"`
	Width   int       `yaml:"width"`
	Height  *int      `yaml:"height"`
	Quality int       `yaml:"quality"`
	Fit     FitPolicy `yaml:"fit"`
}

// Photo is the metadata record the pipeline links derivatives to.
type Photo struct {
	ID          string            `db:"id"`
	StoragePath string            `db:"storage_path"`
	UploadedBy  string            `db:"uploaded_by"`
	Caption     string            `db:"caption"`
	Variants    map[string]string `db:"variants"`
	Placeholder string            `db:"blurhash"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// PhotoUpdate is a partial-field update: Variants entries are merged into the
// stored mapping, Placeholder is written only when non-empty.
type PhotoUpdate struct {
	Variants    map[string]string
	Placeholder string
}

// Empty reports whether the update would change nothing.
func (u PhotoUpdate) Empty() bool {
	return len(u.Variants) == 0 && u.Placeholder == ""
}

// ProcessRequest is the invocation payload, delivered over HTTP or Kafka.
type ProcessRequest struct {
	PhotoID string `json:"photoId"`
	Bucket  string `json:"bucket"`
	Path    string `json:"path"`
	UserID  string `json:"userId,omitempty"`
}

// ProcessResult is the response body for one pipeline run.
type ProcessResult struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	PhotoID          string            `json:"photoId,omitempty"`
	Variants         map[string]string `json:"variants,omitempty"`
	Placeholder      string            `json:"blurhash,omitempty"`
	ProcessingTimeMs *int64            `json:"processingTimeMs,omitempty"`
}
