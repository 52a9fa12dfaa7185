package pipeline

import (
	"context"
	"fmt"
	"strings"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/llm"
	"github.com/veracity-ai/veracity/message"
)

// formatDocuments renders retrieved chunk texts as a 1-indexed list so model
// output can reference "Document N" the way a human reader would.
func formatDocuments(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document %d: %s", i+1, text)
	}
	return b.String()
}

// generate performs one capability call and unwraps the reply text.
func generate(ctx context.Context, client llm.Client, system, user string, opts *llm.Options) (string, error) {
	resp, err := client.Generate(ctx, &llm.GenerateRequest{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, system),
			message.NewMessage(message.RoleUser, user),
		},
		Options: opts,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == nil {
		return "", &verr.GenerationServiceError{Err: fmt.Errorf("empty response")}
	}
	return resp.Message.Text(), nil
}

type planner struct {
	llm    llm.Client
	prompt string
}

// Plan produces the reasoning plan from the query and retrieved chunk texts.
// The output is opaque prose consumed by the draft stage; no parsing, no
// retries.
func (p *planner) Plan(ctx context.Context, query string, docs []string) (string, error) {
	user := fmt.Sprintf("User question:\n%s\n\nRetrieved documents:\n%s", query, formatDocuments(docs))
	return generate(ctx, p.llm, p.prompt, user, nil)
}

type drafter struct {
	llm    llm.Client
	prompt string
}

// Draft produces the provisional answer from query, chunks and plan.
func (d *drafter) Draft(ctx context.Context, query string, docs []string, plan string) (string, error) {
	user := fmt.Sprintf(
		"User question:\n%s\n\nRetrieved documents:\n%s\n\nPlan:\n%s\n\nNow follow the plan and write a draft answer grounded in the documents.",
		query, formatDocuments(docs), plan,
	)
	return generate(ctx, d.llm, d.prompt, user, nil)
}

type critic struct {
	llm    llm.Client
	prompt string
}

// Evaluate scores the draft against the retrieved chunks. The request runs
// with minimal-randomness settings: the critic is a scoring function, not a
// creative one. The raw text comes back untrusted; the caller parses it
// defensively with ParseVerdict.
func (c *critic) Evaluate(ctx context.Context, query string, docs []string, draft string) (string, error) {
	user := fmt.Sprintf(
		"User question:\n%s\n\nRetrieved documents:\n%s\n\nDraft answer:\n%s",
		query, formatDocuments(docs), draft,
	)
	opts := &llm.Options{
		Temperature: llm.Temperature(0),
		TopP:        llm.TopP(0),
	}
	return generate(ctx, c.llm, c.prompt, user, opts)
}

type reviser struct {
	llm    llm.Client
	prompt string
}

// Revise produces the final answer from the draft and critic feedback. One
// shot only: the result never loops back to the critic.
func (r *reviser) Revise(ctx context.Context, query string, docs []string, draft, feedback string) (string, error) {
	user := fmt.Sprintf(
		"User question:\n%s\n\nRetrieved documents (ground truth):\n%s\n\nDraft answer:\n%s\n\nCritic feedback:\n%s\n\nPlease produce a revised final answer that follows the critic's feedback and stays grounded in the retrieved documents.",
		query, formatDocuments(docs), draft, feedback,
	)
	return generate(ctx, r.llm, r.prompt, user, nil)
}
