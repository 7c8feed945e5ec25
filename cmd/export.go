package cmd

import (
	"context"
	"fmt"

	"thoughtnet/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a JSON snapshot of users and thoughts to S3",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is not configured")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close(context.Background())

	client, err := services.NewS3Client(ctx, services.S3Options{
		Region:          cfg.Export.Region,
		Endpoint:        cfg.Export.Endpoint,
		AccessKeyID:     cfg.Export.AccessKey,
		SecretAccessKey: cfg.Export.SecretKey,
	})
	if err != nil {
		return err
	}

	exporter := services.NewExportService(store.Users, store.Thoughts, client, cfg.Export.Bucket, cfg.Export.Prefix)
	key, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("location", fmt.Sprintf("s3://%s/%s", cfg.Export.Bucket, key)).Msg("Export finished")
	return nil
}
