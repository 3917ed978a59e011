package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dreschagin/image-gallery/pkg/config"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

// Serve запускает просмотрщик и корректно останавливает его при отмене ctx.
func Serve(ctx context.Context, handler http.Handler, cfg config.ViewerConfig, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Viewer started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down viewer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Viewer stopped")
	return nil
}
