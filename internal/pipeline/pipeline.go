// Package pipeline coordinates one image-processing request: fetch the
// original, render every configured variant, encode the placeholder and record
// what was produced.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"photopipe/internal/imageproc"
	"photopipe/internal/models"
)

// BlobStore is the object storage the originals and derivatives live in.
// Download returns an error wrapping models.ErrNotFound for missing objects.
// Upload overwrites existing objects.
type BlobStore interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
}

// MetadataStore records derivatives on the photo row. Updates merge into the
// existing record rather than replacing it.
type MetadataStore interface {
	UpdateDerivatives(ctx context.Context, photoID string, upd models.PhotoUpdate) error
}

type VariantRenderer interface {
	Render(src image.Image, v models.VariantConfig) ([]byte, error)
}

type PlaceholderEncoder interface {
	Encode(src image.Image) (string, error)
}

type Options struct {
	Variants []models.VariantConfig
	// Concurrency bounds parallel variant renders; defaults to len(Variants).
	Concurrency int
	// Disabled acknowledges requests without any I/O or rendering.
	Disabled bool

	Renderer    VariantRenderer
	Placeholder PlaceholderEncoder
	Logger      *slog.Logger
}

type Pipeline struct {
	blobs       BlobStore
	meta        MetadataStore
	variants    []models.VariantConfig
	concurrency int
	disabled    bool
	renderer    VariantRenderer
	placeholder PlaceholderEncoder
	log         *slog.Logger
}

func New(blobs BlobStore, meta MetadataStore, opts Options) (*Pipeline, error) {
	const op = "pipeline.New"

	if err := models.ValidateVariants(opts.Variants); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := &Pipeline{
		blobs:       blobs,
		meta:        meta,
		variants:    append([]models.VariantConfig(nil), opts.Variants...),
		concurrency: opts.Concurrency,
		disabled:    opts.Disabled,
		renderer:    opts.Renderer,
		placeholder: opts.Placeholder,
		log:         opts.Logger,
	}
	if p.concurrency <= 0 {
		p.concurrency = len(p.variants)
	}
	if p.renderer == nil {
		p.renderer = imageproc.Renderer{}
	}
	if p.placeholder == nil {
		p.placeholder = imageproc.PlaceholderEncoder{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p, nil
}

type variantOutcome struct {
	name string
	path string
	err  error
}

// Process runs the pipeline for req. The returned error is non-nil only when
// the request is invalid (models.ErrValidation) or the original cannot be
// fetched (models.ErrFetch); every other failure is logged and reflected as a
// missing entry in the result.
func (p *Pipeline) Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResult, error) {
	const op = "pipeline.Process"
	start := time.Now()

	if req.PhotoID == "" || req.Bucket == "" || req.Path == "" {
		return models.ProcessResult{
			Success: false,
			Message: "Missing required fields: photoId, bucket, and path are required",
		}, fmt.Errorf("%s: %w: photoId, bucket and path are required", op, models.ErrValidation)
	}

	log := p.log.With("photo_id", req.PhotoID, "bucket", req.Bucket, "path", req.Path)

	if p.disabled {
		log.Info("processing disabled, acknowledging request")
		return finish(models.ProcessResult{
			Success: true,
			Message: "Image processing disabled",
			PhotoID: req.PhotoID,
		}, start), nil
	}

	log.Info("downloading original")
	data, err := p.blobs.Download(ctx, req.Bucket, req.Path)
	if err == nil && len(data) == 0 {
		err = errors.New("no data")
	}
	if err != nil {
		log.Error("download original failed", "error", err)
		return finish(models.ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing image: failed to download original image: %v", err),
		}, start), fmt.Errorf("%s: %w: %w", op, models.ErrFetch, err)
	}
	log.Info("downloaded original", "bytes", len(data))

	var (
		produced = make(map[string]string, len(p.variants))
		hash     string
	)
	src, err := imageproc.Decode(data)
	if err != nil {
		log.Warn("original is not a decodable image, skipping variants and placeholder", "error", err)
	} else {
		for _, o := range p.renderVariants(ctx, log, req, src) {
			if o.err == nil {
				produced[o.name] = o.path
			}
		}
		hash = p.encodePlaceholder(log, src)
	}

	p.persist(ctx, log, req.PhotoID, models.PhotoUpdate{Variants: produced, Placeholder: hash})

	res := models.ProcessResult{
		Success:     true,
		Message:     "Image processed successfully",
		PhotoID:     req.PhotoID,
		Placeholder: hash,
	}
	if len(produced) > 0 {
		res.Variants = produced
	}
	if len(produced) < len(p.variants) {
		res.Message = fmt.Sprintf("Image processed: %d of %d variants produced", len(produced), len(p.variants))
	}
	res = finish(res, start)
	log.Info("processing completed", "variants", len(produced), "placeholder", hash != "", "duration_ms", *res.ProcessingTimeMs)
	return res, nil
}

// renderVariants renders and uploads every variant independently. A failure
// never stops the others.
func (p *Pipeline) renderVariants(ctx context.Context, log *slog.Logger, req models.ProcessRequest, src image.Image) []variantOutcome {
	outcomes := make([]variantOutcome, len(p.variants))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, v := range p.variants {
		g.Go(func() error {
			outcomes[i] = p.renderVariant(ctx, log.With("variant", v.Name), req, src, v)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Pipeline) renderVariant(ctx context.Context, log *slog.Logger, req models.ProcessRequest, src image.Image, v models.VariantConfig) (out variantOutcome) {
	out = variantOutcome{name: v.Name, path: DerivedPath(req.Path, v.Name)}
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("%w: panic rendering variant: %v", models.ErrEncode, r)
			log.Error("variant failed", "error", out.err)
		}
	}()

	start := time.Now()
	data, err := p.renderer.Render(src, v)
	if err != nil {
		out.err = err
		log.Warn("render variant failed, skipping", "error", err)
		return out
	}
	if err := p.blobs.Upload(ctx, req.Bucket, out.path, data, imageproc.OutputContentType); err != nil {
		out.err = fmt.Errorf("%w: %w", models.ErrUpload, err)
		log.Warn("upload variant failed, skipping", "error", err, "target", out.path)
		return out
	}
	log.Info("variant stored", "target", out.path, "bytes", len(data), "duration", time.Since(start))
	return out
}

func (p *Pipeline) encodePlaceholder(log *slog.Logger, src image.Image) (hash string) {
	defer func() {
		if r := recover(); r != nil {
			hash = ""
			log.Error("placeholder failed", "error", fmt.Errorf("%w: panic: %v", models.ErrPlaceholder, r))
		}
	}()

	hash, err := p.placeholder.Encode(src)
	if err != nil {
		log.Warn("placeholder failed, continuing without it", "error", err)
		return ""
	}
	log.Info("placeholder generated", "blurhash", hash)
	return hash
}

// persist records what was produced. Failures leave uploaded blobs in place;
// a later run with the same request reconciles the record.
func (p *Pipeline) persist(ctx context.Context, log *slog.Logger, photoID string, upd models.PhotoUpdate) {
	if upd.Empty() {
		log.Warn("nothing produced, metadata left untouched")
		return
	}
	if err := p.meta.UpdateDerivatives(ctx, photoID, upd); err != nil {
		log.Error("metadata update failed, derivatives are stored but unlinked", "error", fmt.Errorf("%w: %w", models.ErrPersist, err))
		return
	}
	log.Info("metadata updated", "variants", len(upd.Variants))
}

func finish(res models.ProcessResult, start time.Time) models.ProcessResult {
	ms := time.Since(start).Milliseconds()
	res.ProcessingTimeMs = &ms
	return res
}
