package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dreschagin/image-gallery/internal/application/usecase"
	httpInterface "github.com/dreschagin/image-gallery/internal/interfaces/http"
	"github.com/dreschagin/image-gallery/internal/interfaces/http/handler"
	"github.com/dreschagin/image-gallery/internal/interfaces/render"
	"github.com/dreschagin/image-gallery/internal/metrics"
)

func newServeCommand(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local gallery viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.Viewer.Port = port
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(registry)

			client, err := a.newClient(m)
			if err != nil {
				return err
			}

			renderer := render.NewHTMLRenderer()
			galleryHandler := handler.NewGalleryHandler(
				usecase.NewListImagesUseCase(client, renderer, a.log),
				usecase.NewViewImageUseCase(client, renderer, a.log),
				usecase.NewUploadImageUseCase(client, a.log),
				a.cfg.Viewer.MaxUploadBytes,
				a.log,
			)
			router := httpInterface.NewRouter(galleryHandler, m, registry, a.log)

			return httpInterface.Serve(cmd.Context(), router.Setup(), a.cfg.Viewer, a.log)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default VIEWER_PORT)")
	return cmd
}
