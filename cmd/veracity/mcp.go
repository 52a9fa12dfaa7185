package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/rag/pipeline"
)

// askInput is the MCP tool input schema.
type askInput struct {
	Question string `json:"question" jsonschema:"The question to answer over the indexed corpus."`
	Mode     string `json:"mode,omitempty" jsonschema:"Answer mode: plain, grounded or responsible. Defaults to responsible."`
	TopK     int    `json:"top_k,omitempty" jsonschema:"Number of chunks to retrieve. Defaults to the configured value."`
}

func newMCPCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask pipeline over MCP stdio",
		Long: `mcp exposes the question answering pipeline as a Model Context Protocol
tool over stdio, so MCP-capable hosts can query the corpus directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			idx, err := loadIndex(ctx, cfg)
			if err != nil {
				return err
			}
			p, cleanup, err := buildPipeline(ctx, cfg, idx)
			if err != nil {
				return err
			}
			defer cleanup()

			server, err := newMCPServer(cfg, p)
			if err != nil {
				return err
			}
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(cfg *config.Config, p *pipeline.Pipeline) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "veracity",
		Version: "1.0.0",
	}, nil)

	inputSchema, err := jsonschema.For[askInput](nil)
	if err != nil {
		return nil, fmt.Errorf("build ask input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question over the indexed document corpus. The responsible mode plans, drafts, critiques and revises the answer.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, any, error) {
		mode := pipeline.ModeResponsible
		if in.Mode != "" {
			parsed, err := pipeline.ParseMode(in.Mode)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
					IsError: true,
				}, nil, nil
			}
			mode = parsed
		}

		run, err := p.Run(ctx, in.Question, in.TopK, mode)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: formatToolAnswer(run)}},
		}, nil, nil
	})

	return server, nil
}

func formatToolAnswer(run *pipeline.Run) string {
	var b strings.Builder
	b.WriteString(run.FinalAnswer)
	if run.EvidenceScore != nil {
		fmt.Fprintf(&b, "\n\nEvidence score: %.3f", *run.EvidenceScore)
	}
	if len(run.Retrieved) > 0 {
		b.WriteString("\nSources:")
		for _, sc := range run.Retrieved {
			fmt.Fprintf(&b, " %s", sc.Chunk.SourceID)
		}
	}
	if run.Revised {
		b.WriteString("\n(The answer was revised after critique.)")
	}
	return b.String()
}
