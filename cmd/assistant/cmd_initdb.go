package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/config"
	"github.com/aly2302/email-assistant-llm/internal/store"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the drafts database and apply the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initializing database at %s: %w", cfg.DBPath, err)
			}
			defer st.Close()

			fmt.Printf("Database ready at %s.\n", cfg.DBPath)
			return nil
		},
	}
}
