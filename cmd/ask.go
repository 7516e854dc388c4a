package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lectern-ai/lectern/internal/app"
	"github.com/lectern-ai/lectern/internal/config"
	"github.com/lectern-ai/lectern/internal/log"
)

var showThoughts bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&showThoughts, "thoughts", false, "print the reasoning trace before the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	question := strings.Join(args, " ")

	result, err := a.Graph.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	out := cmd.OutOrStdout()

	if showThoughts {
		for _, t := range result.Thoughts {
			fmt.Fprintf(out, "· %s\n", t)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, result.Answer)

	if len(result.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for _, s := range result.Sources {
			fmt.Fprintf(out, "  - %s (Page %s)\n", s.Source, s.Page)
		}
	}

	return nil
}
