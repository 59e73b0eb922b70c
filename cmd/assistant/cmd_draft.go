package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/mail"
	"github.com/aly2302/email-assistant-llm/internal/pipeline"
)

func newDraftCmd() *cobra.Command {
	var (
		personaKey   string
		threadID     string
		from         string
		instructions string
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft a reply interactively, printing it to stdout",
		Long: `draft generates a reply without persisting or sending anything.

With --thread it answers the newest message of that Gmail thread;
otherwise it reads the email text from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices()
			if err != nil {
				return err
			}
			defer svcs.Close()

			if personaKey == "" {
				personaKey = svcs.cfg.DefaultPersona
			}

			req := pipeline.DraftRequest{
				PersonaKey:   personaKey,
				ThreadID:     threadID,
				From:         from,
				Instructions: instructions,
			}

			var mailer mail.Mailer
			if threadID != "" {
				mailer, err = svcs.newMailer(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				text, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading email text from stdin: %w", err)
				}
				req.EmailText = string(text)
			}

			result, err := svcs.newPipeline(mailer).DraftReply(cmd.Context(), req)
			if err != nil {
				return err
			}

			svcs.logger.Info("draft generated",
				"persona", personaKey,
				"category", result.Classification.RecipientCategory,
				"tone", result.Classification.IncomingTone)
			fmt.Println(result.Draft)
			return nil
		},
	}

	cmd.Flags().StringVar(&personaKey, "persona", "", "Persona to write as (default: configured default persona)")
	cmd.Flags().StringVar(&threadID, "thread", "", "Gmail thread ID to reply to")
	cmd.Flags().StringVar(&from, "from", "", "From header of the email being answered (stdin mode)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Extra drafting instructions")

	return cmd
}
