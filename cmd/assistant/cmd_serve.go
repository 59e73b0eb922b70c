package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/queue"
	"github.com/aly2302/email-assistant-llm/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (webhook, approval links, JSON API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices()
			if err != nil {
				return err
			}
			defer svcs.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mailer, err := svcs.newMailer(ctx)
			if err != nil {
				return err
			}

			nc, err := queue.Connect(svcs.cfg.NATSURL)
			if err != nil {
				return err
			}
			defer nc.Close()

			srv := server.New(
				svcs.newPipeline(mailer),
				svcs.newRecorder(),
				svcs.repo,
				svcs.store,
				queue.NewPublisher(nc, svcs.logger),
				svcs.logger,
			)

			httpServer := &http.Server{
				Addr:              svcs.cfg.HTTPAddr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				svcs.logger.Info("http server listening", "addr", svcs.cfg.HTTPAddr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("shutting down http server: %w", err)
			}
			return nil
		},
	}
}
