package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"photopipe/internal/auth"
	"photopipe/internal/events"
	"photopipe/internal/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger and, if enabled, the Kafka consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
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

	p, err := newPipeline(cfg, blobs, meta, log)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	if !cfg.Processing.IsEnabled() {
		log.Warn("image processing disabled; requests will be acknowledged without output")
	}

	srv := server.NewServer(cfg, p, auth.NewVerifier(cfg.Auth.JWTSecret), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if cfg.Kafka.Enabled {
		consumer := events.NewConsumer(cfg.Kafka, p, log)
		defer consumer.Close()
		log.Info("kafka consumer started", "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	err = g.Wait()
	log.Info("shut down")
	return err
}
