package pipeline

import (
	"context"
	"time"
)

// Recorder archives completed runs. Recording is best effort: a recorder
// failure is logged and never fails the run that produced the record.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// Config controls pipeline behaviour. Callers construct it through options so
// a zero-configured pipeline matches the reference defaults.
type Config struct {
	Name string // Logical name for tracing/logging
	TopK int    // Default number of chunks retrieved per run

	PlannerPrompt  string // System prompt for the plan stage
	DraftPrompt    string // System prompt for the draft stage
	CriticPrompt   string // System prompt for the critic stage
	RevisionPrompt string // System prompt for the revision stage
	PlainPrompt    string // System prompt for plain mode
	GroundedPrompt string // System prompt for grounded mode

	CallTimeout time.Duration // Optional per-capability-call deadline (0 = none)

	recorder Recorder
}

// Option customises the pipeline configuration.
type Option func(*Config)

func applyOptions(opts []Option) *Config {
	cfg := &Config{
		Name:           "veracity",
		TopK:           3,
		PlannerPrompt:  plannerPrompt,
		DraftPrompt:    draftPrompt,
		CriticPrompt:   criticPrompt,
		RevisionPrompt: revisionPrompt,
		PlainPrompt:    plainPrompt,
		GroundedPrompt: groundedPrompt,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the logical pipeline name used in logs and spans.
func WithName(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Name = name
		}
	}
}

// WithTopK sets how many chunks a run retrieves when the caller passes k <= 0.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithPlannerPrompt overrides the plan stage system prompt.
func WithPlannerPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.PlannerPrompt = prompt
		}
	}
}

// WithDraftPrompt overrides the draft stage system prompt.
func WithDraftPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.DraftPrompt = prompt
		}
	}
}

// WithCriticPrompt overrides the critic stage system prompt.
func WithCriticPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.CriticPrompt = prompt
		}
	}
}

// WithRevisionPrompt overrides the revision stage system prompt.
func WithRevisionPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.RevisionPrompt = prompt
		}
	}
}

// WithCallTimeout bounds every individual capability call. A timeout fails
// the current run only; other concurrent runs are unaffected.
func WithCallTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.CallTimeout = d
		}
	}
}

// WithRecorder archives every completed run through the recorder.
func WithRecorder(r Recorder) Option {
	return func(cfg *Config) {
		cfg.recorder = r
	}
}
