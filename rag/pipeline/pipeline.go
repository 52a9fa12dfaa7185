package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/graph"
	"github.com/veracity-ai/veracity/llm"
	"github.com/veracity-ai/veracity/pkg/logging"
	"github.com/veracity-ai/veracity/pkg/telemetry"
	"github.com/veracity-ai/veracity/rag/index"
)

// Stage names used for error attribution and tracing.
const (
	StageRetrieval  = "retrieval"
	StagePlanning   = "planning"
	StageDrafting   = "drafting"
	StageCritique   = "critique"
	StageRevision   = "revision"
	StageGeneration = "generation"
)

const runStateKey = "__pipeline_run_state"

// Retriever is the slice of the embedding index the pipeline depends on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]index.ScoredChunk, error)
}

// Clients groups the generation clients used by the different stages. Unset
// stage clients fall back to Default, so a single client can drive the whole
// pipeline.
type Clients struct {
	Default llm.Client
	Planner llm.Client
	Drafter llm.Client
	Critic  llm.Client
	Reviser llm.Client
}

func pickClient(primary, fallback llm.Client) llm.Client {
	if primary != nil {
		return primary
	}
	return fallback
}

// Pipeline sequences retrieval and the four generation stages into the
// responsible-answer workflow, and exposes the reduced plain and grounded
// modes. A pipeline is safe for concurrent runs: every run carries its own
// state and only shares the read-only retriever.
type Pipeline struct {
	cfg       *Config
	retriever Retriever
	planner   *planner
	drafter   *drafter
	critic    *critic
	reviser   *reviser
	answerer  llm.Client
	workflow  *graph.Graph
	logger    *slog.Logger
	tracer    trace.Tracer
}

type runState struct {
	run  *Run
	docs []string
	k    int
}

// New creates a pipeline over an already-built retriever. The retriever may
// be nil only when every run uses ModePlain; grounded and responsible runs
// fail fast without one.
func New(clients Clients, retriever Retriever, opts ...Option) (*Pipeline, error) {
	cfg := applyOptions(opts)

	def := clients.Default
	plannerLLM := pickClient(clients.Planner, def)
	drafterLLM := pickClient(clients.Drafter, def)
	criticLLM := pickClient(clients.Critic, def)
	reviserLLM := pickClient(clients.Reviser, def)
	if plannerLLM == nil || drafterLLM == nil || criticLLM == nil || reviserLLM == nil {
		return nil, fmt.Errorf("pipeline requires a client for every stage (set Clients.Default)")
	}

	p := &Pipeline{
		cfg:       cfg,
		retriever: retriever,
		planner:   &planner{llm: plannerLLM, prompt: cfg.PlannerPrompt},
		drafter:   &drafter{llm: drafterLLM, prompt: cfg.DraftPrompt},
		critic:    &critic{llm: criticLLM, prompt: cfg.CriticPrompt},
		reviser:   &reviser{llm: reviserLLM, prompt: cfg.RevisionPrompt},
		answerer:  pickClient(clients.Drafter, def),
		logger:    logging.WithComponent("pipeline").With("pipeline", cfg.Name),
		tracer:    telemetry.Tracer("veracity/pipeline"),
	}
	p.workflow = p.buildWorkflow()
	return p, nil
}

// buildWorkflow defines the responsible-mode state machine:
// retrieve -> plan -> draft -> critique -> {revise | done}.
func (p *Pipeline) buildWorkflow() *graph.Graph {
	return graph.NewBuilder().
		AddNode("start", graph.NodeTypeStart, p.startNode).
		AddNode("retrieve", graph.NodeTypeRetrieval, p.retrieveNode).
		AddNode("plan", graph.NodeTypeLLM, p.planNode).
		AddNode("draft", graph.NodeTypeLLM, p.draftNode).
		AddNode("critique", graph.NodeTypeLLM, p.critiqueNode).
		AddConditionNode("revise_gate", p.reviseGate, map[string]string{
			"revise": "revise",
			"keep":   "end",
		}).
		AddNode("revise", graph.NodeTypeLLM, p.reviseNode).
		AddNode("end", graph.NodeTypeEnd, p.endNode).
		AddEdge("start", "retrieve").
		AddEdge("retrieve", "plan").
		AddEdge("plan", "draft").
		AddEdge("draft", "critique").
		AddEdge("critique", "revise_gate").
		AddEdge("revise", "end").
		SetStart("start").
		Build()
}

// Run executes one pipeline invocation. k <= 0 uses the configured default.
// This is the entire surface the presentation layer consumes; it never
// reaches into the stage functions directly.
func (p *Pipeline) Run(ctx context.Context, query string, k int, mode Mode) (*Run, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = p.cfg.TopK
	}
	if mode != ModePlain && p.retriever == nil {
		return nil, fmt.Errorf("mode %s requires a retriever", mode)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.mode", string(mode)),
		attribute.Int("pipeline.k", k),
	))
	p.logger.Info("run started", "mode", mode, "k", k, "query", trimForLog(query, 120))

	run, err := p.dispatch(ctx, query, k, mode)
	telemetry.End(span, err)
	if err != nil {
		p.logger.Error("run failed", "mode", mode, "stage", verr.Stage(err), "error", err)
		return nil, err
	}

	p.logger.Info("run completed",
		"mode", mode,
		"retrieved", len(run.Retrieved),
		"revised", run.Revised,
	)
	p.record(ctx, run)
	return run, nil
}

func (p *Pipeline) dispatch(ctx context.Context, query string, k int, mode Mode) (*Run, error) {
	switch mode {
	case ModePlain:
		return p.runPlain(ctx, query)
	case ModeGrounded:
		return p.runGrounded(ctx, query, k)
	default:
		return p.runResponsible(ctx, query, k)
	}
}

// runPlain answers with a single direct model call, no retrieval.
func (p *Pipeline) runPlain(ctx context.Context, query string) (*Run, error) {
	answer, err := p.generateStage(ctx, StageGeneration, func(ctx context.Context) (string, error) {
		return generate(ctx, p.answerer, p.cfg.PlainPrompt, query, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Run{
		Query:       query,
		Mode:        ModePlain,
		FinalAnswer: answer,
	}, nil
}

// runGrounded retrieves chunks and answers in one grounded call, skipping
// planning, critique and revision.
func (p *Pipeline) runGrounded(ctx context.Context, query string, k int) (*Run, error) {
	retrieved, err := p.retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	docs := chunkTexts(retrieved)

	user := strings.Join(docs, "\n\n") + "\n\nQuestion: " + query
	answer, err := p.generateStage(ctx, StageGeneration, func(ctx context.Context) (string, error) {
		return generate(ctx, p.answerer, p.cfg.GroundedPrompt, user, nil)
	})
	if err != nil {
		return nil, err
	}

	return &Run{
		Query:         query,
		Mode:          ModeGrounded,
		Retrieved:     retrieved,
		FinalAnswer:   answer,
		EvidenceScore: evidenceScore(retrieved),
	}, nil
}

// runResponsible drives the full workflow graph.
func (p *Pipeline) runResponsible(ctx context.Context, query string, k int) (*Run, error) {
	st := &runState{
		run: &Run{
			Query: query,
			Mode:  ModeResponsible,
		},
		k: k,
	}

	if _, err := p.workflow.Execute(ctx, graph.State{runStateKey: st}); err != nil {
		return nil, err
	}

	st.run.EvidenceScore = evidenceScore(st.run.Retrieved)
	return st.run, nil
}

func (p *Pipeline) startNode(ctx context.Context, state graph.State) (graph.State, error) {
	_, err := getState(state)
	return state, err
}

func (p *Pipeline) retrieveNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	retrieved, err := p.retrieve(ctx, st.run.Query, st.k)
	if err != nil {
		return state, err
	}
	st.run.Retrieved = retrieved
	st.docs = chunkTexts(retrieved)
	return state, nil
}

func (p *Pipeline) planNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	plan, err := p.generateStage(ctx, StagePlanning, func(ctx context.Context) (string, error) {
		return p.planner.Plan(ctx, st.run.Query, st.docs)
	})
	if err != nil {
		return state, err
	}
	st.run.Plan = plan
	return state, nil
}

func (p *Pipeline) draftNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	draft, err := p.generateStage(ctx, StageDrafting, func(ctx context.Context) (string, error) {
		return p.drafter.Draft(ctx, st.run.Query, st.docs, st.run.Plan)
	})
	if err != nil {
		return state, err
	}
	st.run.DraftAnswer = draft
	return state, nil
}

func (p *Pipeline) critiqueNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	raw, err := p.generateStage(ctx, StageCritique, func(ctx context.Context) (string, error) {
		return p.critic.Evaluate(ctx, st.run.Query, st.docs, st.run.DraftAnswer)
	})
	if err != nil {
		return state, err
	}

	st.run.Critic = ParseVerdict(raw)
	if !st.run.Critic.Parsed() {
		// Degrade, never abort: an unscored verdict still lets the run finish.
		p.logger.Warn("critic output did not parse, continuing with raw verdict")
	}
	return state, nil
}

func (p *Pipeline) reviseGate(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if st.run.Critic.NeedsRevision() {
		return "revise", nil
	}
	return "keep", nil
}

func (p *Pipeline) reviseNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	final, err := p.generateStage(ctx, StageRevision, func(ctx context.Context) (string, error) {
		return p.reviser.Revise(ctx, st.run.Query, st.docs, st.run.DraftAnswer, st.run.Critic.Raw)
	})
	if err != nil {
		return state, err
	}
	st.run.FinalAnswer = final
	st.run.Revised = true
	return state, nil
}

func (p *Pipeline) endNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	if !st.run.Revised {
		st.run.FinalAnswer = st.run.DraftAnswer
	}
	return state, nil
}

// retrieve wraps the index call with stage attribution and tracing.
func (p *Pipeline) retrieve(ctx context.Context, query string, k int) ([]index.ScoredChunk, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline."+StageRetrieval)
	retrieved, err := p.retriever.Retrieve(ctx, query, k)
	telemetry.End(span, err)
	if err != nil {
		return nil, &verr.StageError{Stage: StageRetrieval, Err: err}
	}
	return retrieved, nil
}

// generateStage runs one generation call under the per-call deadline, a span
// and stage error attribution.
func (p *Pipeline) generateStage(ctx context.Context, stage string, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline."+stage)
	out, err := fn(ctx)
	telemetry.End(span, err)
	if err != nil {
		return "", &verr.StageError{Stage: stage, Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.CallTimeout)
	}
	return ctx, func() {}
}

func (p *Pipeline) record(ctx context.Context, run *Run) {
	if p.cfg.recorder == nil {
		return
	}
	if err := p.cfg.recorder.Record(ctx, run); err != nil {
		p.logger.Warn("run recording failed", "error", err)
	}
}

func getState(state graph.State) (*runState, error) {
	raw, ok := state[runStateKey]
	if !ok {
		return nil, fmt.Errorf("run state missing in workflow")
	}
	st, ok := raw.(*runState)
	if !ok {
		return nil, fmt.Errorf("invalid run state type")
	}
	return st, nil
}

func chunkTexts(retrieved []index.ScoredChunk) []string {
	texts := make([]string, len(retrieved))
	for i, r := range retrieved {
		texts[i] = r.Chunk.Text
	}
	return texts
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
