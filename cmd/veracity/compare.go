package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/rag/pipeline"
)

func newCompareCmd(cfg *config.Config) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "compare [question]",
		Short: "Answer the same question in all three modes",
		Long: `compare runs the question through plain, grounded and responsible mode
against the same index, so the effect of retrieval and critique is visible
side by side.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if topK > 0 {
				cfg.TopK = topK
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			question := strings.Join(args, " ")

			idx, err := loadIndex(ctx, cfg)
			if err != nil {
				return err
			}
			p, cleanup, err := buildPipeline(ctx, cfg, idx)
			if err != nil {
				return err
			}
			defer cleanup()

			modes := []pipeline.Mode{
				pipeline.ModePlain,
				pipeline.ModeGrounded,
				pipeline.ModeResponsible,
			}
			for _, mode := range modes {
				fmt.Printf("=== %s ===\n", mode)
				run, err := p.Run(ctx, question, cfg.TopK, mode)
				if err != nil {
					// One failing mode should not hide the others.
					fmt.Printf("failed: %v\n\n", err)
					continue
				}
				fmt.Println(run.FinalAnswer)
				if run.EvidenceScore != nil {
					fmt.Printf("(evidence score %.3f)\n", *run.EvidenceScore)
				}
				if run.Revised {
					fmt.Println("(revised after critique)")
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve")
	return cmd
}
