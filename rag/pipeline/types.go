package pipeline

import (
	"fmt"

	"github.com/veracity-ai/veracity/rag/index"
)

// Mode selects which answer workflow a run executes.
type Mode string

const (
	// ModePlain calls the model directly without retrieval.
	ModePlain Mode = "plain"
	// ModeGrounded retrieves chunks and answers in a single grounded call.
	ModeGrounded Mode = "grounded"
	// ModeResponsible runs the full plan, draft, critique and revise workflow.
	ModeResponsible Mode = "responsible"
)

// ParseMode validates a free-form mode string against the closed enum.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlain, ModeGrounded, ModeResponsible:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown pipeline mode %q", s)
}

// RiskLevel is the critic's hallucination risk assessment.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// Verdict is the critic's structured judgment of a draft answer. Scores are
// pointers because the producer is a free-text generator: a field the critic
// omitted stays nil rather than reading as a zero score.
type Verdict struct {
	OverallScore      *float64  `json:"overall_score"`
	GroundingScore    *float64  `json:"grounding_score"`
	SafetyScore       *float64  `json:"safety_score"`
	HallucinationRisk RiskLevel `json:"hallucination_risk"`
	Issues            []string  `json:"issues"`
	Suggestions       []string  `json:"suggestions"`
	Summary           string    `json:"summary"`
}

// Run is the aggregate result of one end-to-end pipeline invocation. Fields
// that a mode skips stay at their zero value: plain runs carry no retrieval,
// grounded runs carry no plan or verdict.
type Run struct {
	Query         string              `json:"query"`
	Mode          Mode                `json:"mode"`
	Retrieved     []index.ScoredChunk `json:"retrieved,omitempty"`
	Plan          string              `json:"plan,omitempty"`
	DraftAnswer   string              `json:"draft_answer,omitempty"`
	Critic        *ParsedVerdict      `json:"critic,omitempty"`
	FinalAnswer   string              `json:"final_answer"`
	Revised       bool                `json:"revised"`
	EvidenceScore *float64            `json:"evidence_score,omitempty"`
}

// evidenceScore reports the best retrieval similarity clamped to [0,1], or
// nil when nothing was retrieved.
func evidenceScore(retrieved []index.ScoredChunk) *float64 {
	if len(retrieved) == 0 {
		return nil
	}
	best := retrieved[0].Similarity
	for _, r := range retrieved[1:] {
		if r.Similarity > best {
			best = r.Similarity
		}
	}
	if best < 0 {
		best = 0
	}
	if best > 1 {
		best = 1
	}
	return &best
}
