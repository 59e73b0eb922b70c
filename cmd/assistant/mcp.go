package main

import (
	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/mail"
	"github.com/aly2302/email-assistant-llm/internal/mcpserver"
	"github.com/aly2302/email-assistant-llm/internal/retrieval"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the Model Context Protocol server on stdio",
		Long: `mcp-server exposes the assistant to MCP clients over stdio.

Tools: draft_reply, search_knowledge, submit_feedback. Thread drafting
needs the Gmail OAuth files; without them only raw email text works.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices()
			if err != nil {
				return err
			}
			defer svcs.Close()

			ctx := cmd.Context()

			// The Gmail client is optional here: text-only drafting and
			// knowledge search work without it.
			var mailer mail.Mailer
			if gm, err := svcs.newMailer(ctx); err != nil {
				svcs.logger.Warn("gmail unavailable, thread drafting disabled", "error", err)
			} else {
				mailer = gm
			}

			srv := mcpserver.NewServer(
				mcpserver.Config{Name: "email-assistant", Version: version},
				svcs.newPipeline(mailer),
				svcs.repo,
				retrieval.NewEngine(svcs.logger, retrieval.Config{}),
				svcs.newRecorder(),
				svcs.logger,
			)
			return srv.Run(ctx)
		},
	}
}
