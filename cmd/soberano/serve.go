package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	HTTPAdapter "github.com/soberano/soberano/internal/adapter/http"
	"github.com/soberano/soberano/internal/infrastructure/logger"
)

func newServeCommand(cc *commandContext) *cobra.Command {
	var csrfSecret string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.downloads.StartCleanup(ctx, time.Minute)

			if cfg.Engine.AutoLoad {
				go func() {
					if err := a.lifecycle.EnsureReady(ctx); err != nil {
						logger.Warn.Printf("video engine unavailable: %v", err)
					}
				}()
			}

			server := HTTPAdapter.NewServer(HTTPAdapter.Deps{
				Ctx:         ctx,
				Queue:       a.queue,
				Engine:      a.lifecycle,
				Video:       a.video,
				Downloads:   a.downloads,
				Events:      a.bus,
				MaxUploadMB: cfg.MaxUploadSizeMB,
				Version:     version,
				CSRFSecret:  []byte(csrfSecret),
			})

			httpServer := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       5 * time.Minute,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info.Printf("soberano %s listening on http://%s", version, cfg.Addr())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error.Printf("http shutdown error: %v", err)
			}
			logger.Info.Printf("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&csrfSecret, "csrf-secret", "", "Key for signing CSRF tokens (random when empty)")
	return cmd
}
