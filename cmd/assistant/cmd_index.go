package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Compute embeddings for knowledge facts that lack one",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices()
			if err != nil {
				return err
			}
			defer svcs.Close()

			ctx := cmd.Context()
			updated, err := svcs.repo.UpdateEmbeddings(func(fact models.KnowledgeFact) ([]float64, error) {
				return svcs.llm.Embed(ctx, fact.Content())
			})
			if err != nil {
				return fmt.Errorf("indexing knowledge base: %w", err)
			}

			fmt.Printf("Indexed %d facts.\n", updated)
			return nil
		},
	}
}
