// Package cmd defines the lectern command-line interface.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - self-correcting course material Q&A service",
	Long: `Lectern answers questions about indexed course material through an
agentic retrieval loop: it retrieves passages, grades them for relevance,
rewrites the query when the evidence is thin, and audits every generated
answer for groundedness and usefulness before releasing it.

Run "lectern serve" to start the HTTP API, or "lectern ask" for a
one-shot question from the terminal.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Best effort: a missing .env file is fine.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
