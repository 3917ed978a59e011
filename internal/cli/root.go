package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreschagin/image-gallery/internal/httpx"
	"github.com/dreschagin/image-gallery/internal/metrics"
	"github.com/dreschagin/image-gallery/pkg/config"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	client *imageclient.Client
}

type rootFlags struct {
	baseURL  string
	logLevel string
	timeout  time.Duration
}

// NewRootCommand builds the gallery command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:           "gallery",
		Short:         "Upload, list, view and export images of a remote image gallery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "image API base URL (overrides IMAGE_API_BASE_URL)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "per-command timeout (overrides REQUEST_TIMEOUT)")

	root.AddCommand(
		newUploadCommand(a),
		newListCommand(a),
		newViewCommand(a),
		newDownloadCommand(a),
		newHealthCommand(a),
		newExportCommand(a),
		newManifestCommand(a),
		newServeCommand(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.baseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(flags.baseURL, "/")
	}
	if flags.logLevel != "" {
		cfg.Log.Level = strings.ToLower(flags.logLevel)
	}
	if cmd.Flags().Changed("timeout") {
		cfg.API.RequestTimeout = flags.timeout
	}

	a.cfg = cfg
	a.log = logger.NewWithWriter(cfg.Log.Level, cmd.ErrOrStderr())
	return nil
}

// newClient builds an image client over the full transport chain. m may be nil.
func (a *app) newClient(m *metrics.Metrics) (*imageclient.Client, error) {
	opts := []imageclient.Option{
		imageclient.WithHTTPClient(httpx.NewClient(a.cfg, a.log, nil, m)),
		imageclient.WithLogger(a.log),
	}
	if m != nil {
		opts = append(opts, imageclient.WithMetrics(m))
	}
	return imageclient.New(a.cfg.API.BaseURL, opts...)
}

func (a *app) oneShotClient() (*imageclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	client, err := a.newClient(nil)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// commandContext bounds one-shot commands by REQUEST_TIMEOUT; zero disables the bound.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.API.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.API.RequestTimeout)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return exitCode(err)
	}
	return 0
}

// exitCode: 2 for bad input, 3 for missing images, 1 otherwise.
func exitCode(err error) int {
	var (
		validationErr *imageclient.ValidationError
		notFoundErr   *imageclient.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		return 2
	case errors.As(err, &notFoundErr):
		return 3
	default:
		return 1
	}
}
