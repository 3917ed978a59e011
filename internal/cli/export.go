package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/internal/application/usecase"
	dynamodbRepo "github.com/dreschagin/image-gallery/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/image-gallery/internal/infrastructure/storage/filesystem"
	s3storage "github.com/dreschagin/image-gallery/internal/infrastructure/storage/s3"
	"github.com/dreschagin/image-gallery/pkg/config"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		concurrency int
		target      string
		dir         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy every image to the filesystem or S3 and record a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target != "" {
				a.cfg.Export.Target = target
			}
			if dir != "" {
				a.cfg.Export.Dir = dir
			}

			// Export runs many requests; it is bounded by the caller's ctx only.
			ctx := cmd.Context()

			storage, err := buildExportStorage(ctx, a.cfg)
			if err != nil {
				return err
			}

			var manifest port.ExportManifestRepository
			if a.cfg.DynamoDB.Enabled {
				repo, err := buildManifestRepository(ctx, a.cfg.DynamoDB)
				if err != nil {
					return err
				}
				manifest = repo
			}

			client, err := a.oneShotClient()
			if err != nil {
				return err
			}

			uc := usecase.NewExportImagesUseCase(client, storage, manifest, usecase.ExportImagesConfig{
				KeyPrefix:   exportKeyPrefix(a.cfg),
				Concurrency: a.cfg.Export.Concurrency,
			}, a.log)

			res, err := uc.Execute(ctx, usecase.ExportImagesCommand{Concurrency: concurrency})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export %s: %d images\n", res.ExportID, len(res.Items))
			return writeRecords(out, res.Items)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel image fetches (default EXPORT_CONCURRENCY)")
	cmd.Flags().StringVar(&target, "target", "", "export target: filesystem or s3 (default EXPORT_TARGET)")
	cmd.Flags().StringVar(&dir, "dir", "", "export directory for the filesystem target (default EXPORT_DIR)")
	return cmd
}

func newManifestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <export-id>",
		Short: "Show the DynamoDB manifest of one export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.DynamoDB.Enabled {
				return fmt.Errorf("export manifest is disabled (set DYNAMODB_ENABLED=true)")
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			repo, err := buildManifestRepository(ctx, a.cfg.DynamoDB)
			if err != nil {
				return err
			}

			records, err := repo.ListByExport(ctx, args[0])
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), records)
		},
	}
}

func buildExportStorage(ctx context.Context, cfg *config.Config) (port.ExportStorage, error) {
	switch cfg.Export.Target {
	case config.ExportTargetS3:
		storage, err := s3storage.NewExportStorage(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	case config.ExportTargetFilesystem:
		storage, err := filesystem.NewExportStorage(cfg.Export.Dir)
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported export target: %s", cfg.Export.Target)
	}
}

func buildManifestRepository(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodbRepo.ExportManifestRepository, error) {
	return dynamodbRepo.NewExportManifestRepository(ctx, dynamodbRepo.Config{
		TableName:       cfg.TableName,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
}

// exportKeyPrefix: S3 objects share a bucket so they get S3_KEY_PREFIX; files land directly in EXPORT_DIR.
func exportKeyPrefix(cfg *config.Config) string {
	if cfg.Export.Target == config.ExportTargetS3 {
		return cfg.S3.KeyPrefix
	}
	return ""
}

func writeRecords(out io.Writer, records []port.ExportRecord) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tCONTENT TYPE\tBYTES\tLOCATION")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", record.ImageID, record.ContentType, record.SizeBytes, record.URL)
	}
	return tw.Flush()
}
