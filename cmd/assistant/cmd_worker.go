package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker that processes queued inbox scans",
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
			p := svcs.newPipeline(mailer)

			nc, err := queue.Connect(svcs.cfg.NATSURL)
			if err != nil {
				return err
			}
			defer nc.Close()

			svcs.logger.Info("worker started", "subject", queue.SubjectThreadProcess)
			return queue.NewConsumer(nc, svcs.logger).Run(ctx, p.HandleTask)
		},
	}
}
