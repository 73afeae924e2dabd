package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/upwork-automation/ranker/internal/ai"
	"github.com/upwork-automation/ranker/internal/upwork"
	"go.uber.org/zap"
)

type stubRanker struct {
	outcomes map[string]ai.Outcome
}

func (s *stubRanker) Rank(_ context.Context, jobs []*upwork.Job) map[string]ai.Outcome {
	out := make(map[string]ai.Outcome, len(jobs))
	for _, job := range jobs {
		out[job.ID] = s.outcomes[job.ID]
	}
	return out
}

// Jobs equal on every factor except recency must rank in recency order when
// AI is disabled.
func TestEngineRanksByRecencyWhenAIDisabled(t *testing.T) {
	t.Parallel()

	now := time.Now()
	base := func(id string, age time.Duration) *upwork.Job {
		return &upwork.Job{
			ID:             id,
			JobType:        upwork.JobTypeHourly,
			BudgetMax:      80,
			RequiredSkills: []string{"Go"},
			Description:    "project with clear requirements",
			PostedAt:       now.Add(-age),
		}
	}

	// Recency scores 100, 60 and 10 respectively.
	jobs := []*upwork.Job{
		base("old", 100*time.Hour),
		base("fresh", 30*time.Minute),
		base("day", 20*time.Hour),
	}

	engine := NewEngine(testConfig(), ai.NewDisabled(), zap.NewNop())
	ranked := engine.Rank(context.Background(), jobs)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked jobs, got %d", len(ranked))
	}

	// Engine preserves input order; ordering is the selector's job.
	for i, id := range []string{"old", "fresh", "day"} {
		if ranked[i].Job.ID != id {
			t.Fatalf("expected input order preserved, got %s at %d", ranked[i].Job.ID, i)
		}
	}

	selected := Select(ranked, 0, 0)
	for i, id := range []string{"fresh", "day", "old"} {
		if selected[i].Job.ID != id {
			t.Fatalf("expected recency order, got %s at position %d", selected[i].Job.ID, i)
		}
	}

	for _, job := range ranked {
		if job.Breakdown.AIRanked {
			t.Fatalf("job %s should not be AI ranked", job.Job.ID)
		}
		if job.Breakdown.FinalScore != job.Breakdown.RuleScore {
			t.Fatalf("job %s: disabled AI must leave the rule score untouched", job.Job.ID)
		}
	}
}

func TestEngineBlendsAIOutcomes(t *testing.T) {
	t.Parallel()

	jobs := []*upwork.Job{
		{ID: "ok", RequiredSkills: []string{"Go"}},
		{ID: "broken", RequiredSkills: []string{"Go"}},
	}

	ranker := &stubRanker{outcomes: map[string]ai.Outcome{
		"ok": {Result: &ai.Result{
			Score:     90,
			Reasoning: "strong match",
			Strengths: []string{"skills overlap"},
		}},
		"broken": {Failure: &ai.Failure{Kind: ai.ParseFailed}},
	}}

	engine := NewEngine(testConfig(), ranker, zap.NewNop())
	ranked := engine.Rank(context.Background(), jobs)

	ok, broken := ranked[0].Breakdown, ranked[1].Breakdown

	if !ok.AIRanked || ok.AIScore != 90 || ok.AIReasoning != "strong match" {
		t.Fatalf("unexpected AI fields: %+v", ok)
	}
	want := round2(0.7*90 + 0.3*ok.RuleScore)
	if ok.FinalScore != want {
		t.Fatalf("expected blended score %v, got %v", want, ok.FinalScore)
	}

	if broken.AIRanked {
		t.Fatal("parse failure must not count as AI ranked")
	}
	if broken.FinalScore != broken.RuleScore {
		t.Fatalf("expected rule fallback, got %v vs %v", broken.FinalScore, broken.RuleScore)
	}
}
