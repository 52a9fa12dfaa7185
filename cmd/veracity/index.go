package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity/config"
)

func newIndexCmd(cfg *config.Config) *cobra.Command {
	var corpusDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the embedding index from the corpus directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if corpusDir != "" {
				cfg.CorpusDir = corpusDir
			}
			if err := cfg.ValidateIndexing(); err != nil {
				return err
			}

			idx, err := buildIndex(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %d chunks (dimension %d) from %s\n",
				idx.Len(), idx.Dimension(), cfg.CorpusDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "", "corpus directory (overrides VERACITY_CORPUS_DIR)")
	return cmd
}
