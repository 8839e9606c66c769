package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photopipe/internal/models"
)

func newProcessCmd() *cobra.Command {
	var req models.ProcessRequest
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single photo and print the result as JSON",
		Long: `Runs the pipeline once for the given photo. When --path is omitted the
original's location is read from the photo's metadata row.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			blobs, err := openBlobStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("init blob store: %w", err)
			}
			meta, err := openMetadata(ctx, cfg)
			if err != nil {
				return fmt.Errorf("init metadata store: %w", err)
			}
			defer meta.Close()

			if req.Bucket == "" {
				req.Bucket = cfg.DefaultBucket
			}
			if req.Path == "" && req.PhotoID != "" {
				photo, err := meta.GetPhoto(ctx, req.PhotoID)
				if err != nil {
					return fmt.Errorf("look up photo: %w", err)
				}
				req.Path = photo.StoragePath
			}

			p, err := newPipeline(cfg, blobs, meta, log)
			if err != nil {
				return fmt.Errorf("init pipeline: %w", err)
			}
			res, procErr := p.Process(ctx, req)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			return procErr
		},
	}
	cmd.Flags().StringVar(&req.PhotoID, "photo-id", "", "Photo id (required)")
	cmd.Flags().StringVar(&req.Bucket, "bucket", "", "Bucket holding the original (defaults to default_bucket)")
	cmd.Flags().StringVar(&req.Path, "path", "", "Object path of the original")
	_ = cmd.MarkFlagRequired("photo-id")
	return cmd
}
