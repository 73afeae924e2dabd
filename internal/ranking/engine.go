package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upwork-automation/ranker/internal/ai"
	"github.com/upwork-automation/ranker/internal/upwork"
	"go.uber.org/zap"
)

// Breakdown is the full scoring record for one job. It is created once per
// ranking cycle and not modified afterwards.
type Breakdown struct {
	SkillsMatch   float64 `json:"skills_match"`
	BudgetScore   float64 `json:"budget_score"`
	ClientQuality float64 `json:"client_quality"`
	JobClarity    float64 `json:"job_clarity"`
	Competition   float64 `json:"competition"`
	Recency       float64 `json:"recency"`

	RuleScore float64 `json:"rule_score"`

	AIScore     float64  `json:"ai_score,omitempty"`
	AIReasoning string   `json:"ai_reasoning,omitempty"`
	Strengths   []string `json:"strengths,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`
	AIRanked    bool     `json:"ai_ranked"`

	FinalScore float64 `json:"final_score"`
}

// RankedJob pairs a job with its score breakdown.
type RankedJob struct {
	Job       *upwork.Job `json:"job"`
	Breakdown Breakdown   `json:"score_breakdown"`
}

// Engine runs one ranking cycle: rule-score every job, collect AI outcomes
// for the whole batch and blend the two signals per job. The returned slice
// keeps the input (deduplicated) order; sorting belongs to Select.
type Engine struct {
	cfg    *Config
	ranker ai.Ranker
	logger *zap.Logger
}

func NewEngine(cfg *Config, ranker ai.Ranker, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, ranker: ranker, logger: logger}
}

// Rank always completes and returns one RankedJob per input job. Any job left
// without an AI outcome, including after cancellation, falls back to its rule
// composite.
func (e *Engine) Rank(ctx context.Context, jobs []*upwork.Job) []*RankedJob {
	now := time.Now()

	outcomes := e.ranker.Rank(ctx, jobs)

	ranked := make([]*RankedJob, 0, len(jobs))
	for _, job := range jobs {
		breakdown := RuleScore(job, e.cfg, now)

		outcome := outcomes[job.ID]
		final, aiRanked := Blend(breakdown.RuleScore, outcome)
		breakdown.FinalScore = final
		breakdown.AIRanked = aiRanked

		if aiRanked {
			breakdown.AIScore = outcome.Result.Score
			breakdown.AIReasoning = outcome.Result.Reasoning
			breakdown.Strengths = outcome.Result.Strengths
			breakdown.Concerns = outcome.Result.Concerns
		}

		ranked = append(ranked, &RankedJob{Job: job, Breakdown: breakdown})
	}

	return ranked
}

// Explain renders a human-readable summary of one job's score.
func (r *RankedJob) Explain(cfg *Config) string {
	b := r.Breakdown
	w := cfg.Weights

	lines := []string{
		fmt.Sprintf("Overall Score: %v/100", b.FinalScore),
		fmt.Sprintf("Threshold: %v", cfg.Threshold),
		fmt.Sprintf("Qualifies: %t", b.FinalScore >= cfg.Threshold),
		"",
		"Score Breakdown:",
	}

	components := []struct {
		name   string
		score  float64
		weight float64
	}{
		{"Skills Match", b.SkillsMatch, w.SkillsMatch},
		{"Budget", b.BudgetScore, w.BudgetScore},
		{"Client Quality", b.ClientQuality, w.ClientQuality},
		{"Job Clarity", b.JobClarity, w.JobClarity},
		{"Competition", b.Competition, w.Competition},
		{"Recency", b.Recency, w.Recency},
	}

	for _, c := range components {
		lines = append(lines, fmt.Sprintf("  %s: %v/100 (weight: %v, contribution: %v)",
			c.name, c.score, c.weight, round2(c.score*c.weight)))
	}

	if b.AIRanked {
		lines = append(lines,
			"",
			fmt.Sprintf("AI Score: %v/100", b.AIScore),
			fmt.Sprintf("AI Reasoning: %s", b.AIReasoning),
		)
	}

	return strings.Join(lines, "\n")
}
