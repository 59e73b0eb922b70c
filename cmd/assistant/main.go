package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Email assistant - persona-aware reply drafting",
		Long: `assistant drafts Gmail replies in your voice.

It classifies incoming email, retrieves persona knowledge and learned
corrections, and generates a draft that waits for your approval before
anything is sent.`,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newWorkerCmd(),
		newDraftCmd(),
		newIndexCmd(),
		newInitDBCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("assistant version %s\n", version)
		},
	}
}
