package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/internal/application/usecase"
	"github.com/dreschagin/image-gallery/internal/interfaces/render"
)

const (
	formatText = "text"
	formatHTML = "html"
)

func rendererFor(format string) (port.Renderer, error) {
	switch strings.ToLower(format) {
	case formatText, "":
		return render.NewTextRenderer(), nil
	case formatHTML:
		return render.NewHTMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want text or html)", format)
	}
}

func newUploadCommand(a *app) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload image files through a presigned upload URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.oneShotClient()
			if err != nil {
				return err
			}
			uc := usecase.NewUploadImageUseCase(client, a.log)

			for _, path := range args {
				ctx, cancel := a.commandContext(cmd)
				res, err := uc.Execute(ctx, usecase.UploadImageCommand{Path: path, ContentType: contentType})
				cancel()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s, %d bytes)\n", res.Filename, res.ContentType, res.SizeBytes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "content type to declare (detected from the file when empty)")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List image ids in server order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer, err := rendererFor(format)
			if err != nil {
				return err
			}
			client, err := a.oneShotClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			return usecase.NewListImagesUseCase(client, renderer, a.log).Render(ctx, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or html")
	return cmd
}

func newViewCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "view <image-id>",
		Short: "Fetch one image and describe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := rendererFor(format)
			if err != nil {
				return err
			}
			client, err := a.oneShotClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			return usecase.NewViewImageUseCase(client, renderer, a.log).Render(ctx, cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or html")
	return cmd
}

func newDownloadCommand(a *app) *cobra.Command {
	var (
		output string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "download <image-id>",
		Short: "Save the decoded bytes of one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.oneShotClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			imageID := args[0]
			var data []byte
			var contentType string
			if raw {
				data, contentType, err = client.DownloadImage(ctx, imageID)
			} else {
				data, contentType, err = viewBytes(ctx, usecase.NewViewImageUseCase(client, nil, a.log), imageID)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = filepath.Base(imageID) + usecase.ExtensionFor(contentType, data)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s, %d bytes)\n", output, contentType, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout, default <image-id><ext>)`)
	cmd.Flags().BoolVar(&raw, "raw", false, "fetch raw bytes from /api/images/{id} instead of the base64 view")
	return cmd
}

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the image API is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.oneShotClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			if err := client.Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func viewBytes(ctx context.Context, uc *usecase.ViewImageUseCase, imageID string) ([]byte, string, error) {
	payload, err := uc.Execute(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	data, err := payload.Decode()
	if err != nil {
		return nil, "", err
	}
	return data, payload.ContentType, nil
}
