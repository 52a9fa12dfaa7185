// veracity is a retrieval-augmented question answering CLI. It builds an
// embedding index over a text corpus and answers questions in three modes,
// from a single direct model call up to a plan, draft, critique and revise
// workflow.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/pkg/logging"
	"github.com/veracity-ai/veracity/pkg/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "veracity",
	Short: "Retrieval-augmented question answering with a built-in critic",
	Long: `veracity answers questions over a local document corpus.

It supports three answer modes:
  plain        one direct model call, no retrieval
  grounded     retrieve chunks, answer in a single grounded call
  responsible  retrieve, plan, draft, critique and revise when needed`,
	SilenceUsage: true,
}

func main() {
	ctx := context.Background()

	cfg := config.Load()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "veracity"})
	if err != nil {
		logging.Logger().Warn("telemetry init failed, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				logging.Logger().Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	rootCmd.AddCommand(
		newIndexCmd(cfg),
		newAskCmd(cfg),
		newCompareCmd(cfg),
		newMCPCmd(cfg),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
