package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/rag/pipeline"
)

func newAskCmd(cfg *config.Config) *cobra.Command {
	var (
		modeFlag string
		topK     int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question over the indexed corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if modeFlag != "" {
				cfg.Mode = modeFlag
			}
			if topK > 0 {
				cfg.TopK = topK
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			mode, err := pipeline.ParseMode(cfg.Mode)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			question := strings.Join(args, " ")

			var retriever pipeline.Retriever
			if mode != pipeline.ModePlain {
				idx, err := loadIndex(ctx, cfg)
				if err != nil {
					return err
				}
				retriever = idx
			}

			p, cleanup, err := buildPipeline(ctx, cfg, retriever)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := p.Run(ctx, question, cfg.TopK, mode)
			if err != nil {
				return err
			}

			printRun(run, verbose)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "answer mode: plain, grounded or responsible")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show plan, draft and critic verdict")
	return cmd
}

func printRun(run *pipeline.Run, verbose bool) {
	fmt.Println(run.FinalAnswer)

	if run.EvidenceScore != nil {
		fmt.Printf("\nEvidence score: %.3f\n", *run.EvidenceScore)
	}
	if run.Revised {
		fmt.Println("Answer was revised after critique.")
	}

	if !verbose {
		return
	}

	if len(run.Retrieved) > 0 {
		fmt.Println("\nRetrieved chunks:")
		for _, sc := range run.Retrieved {
			fmt.Printf("  %-24s similarity %.3f\n", sc.Chunk.SourceID, sc.Similarity)
		}
	}
	if run.Plan != "" {
		fmt.Println("\nPlan:")
		fmt.Println(indent(run.Plan))
	}
	if run.Revised && run.DraftAnswer != "" {
		fmt.Println("\nOriginal draft:")
		fmt.Println(indent(run.DraftAnswer))
	}
	if run.Critic != nil {
		fmt.Println("\nCritic verdict:")
		if run.Critic.Parsed() {
			v := run.Critic.Verdict
			if v.OverallScore != nil {
				fmt.Printf("  overall: %.2f\n", *v.OverallScore)
			}
			if v.GroundingScore != nil {
				fmt.Printf("  grounding: %.2f\n", *v.GroundingScore)
			}
			if v.SafetyScore != nil {
				fmt.Printf("  safety: %.2f\n", *v.SafetyScore)
			}
			fmt.Printf("  hallucination risk: %s\n", v.HallucinationRisk)
			for _, issue := range v.Issues {
				fmt.Printf("  issue: %s\n", issue)
			}
			if v.Summary != "" {
				fmt.Printf("  summary: %s\n", v.Summary)
			}
		} else {
			fmt.Println(indent(run.Critic.Raw))
		}
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
