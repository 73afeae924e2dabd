// Package ai scores jobs with a chat-completion model. Failures are contained
// per job: a Ranker always returns an outcome for every input job and never an
// error, so the caller can fall back to rule-based scores.
package ai

import (
	"context"
	"fmt"

	"github.com/upwork-automation/ranker/internal/upwork"
	"go.uber.org/zap"
)

// FailureKind classifies why a job did not receive an AI score.
type FailureKind int

const (
	// RequestFailed covers network errors, timeouts and non-2xx responses.
	RequestFailed FailureKind = iota
	// ParseFailed covers malformed or incomplete model responses.
	ParseFailed
	// Disabled means AI scoring is turned off in the configuration.
	Disabled
)

func (k FailureKind) String() string {
	switch k {
	case RequestFailed:
		return "request_failed"
	case ParseFailed:
		return "parse_failed"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Failure describes a per-job scoring failure.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is a successful model ranking for one job.
type Result struct {
	Score     float64
	Reasoning string
	Strengths []string
	Concerns  []string
}

// Outcome is the tagged result of scoring one job: exactly one of Result or
// Failure is set.
type Outcome struct {
	Result  *Result
	Failure *Failure
}

func (o Outcome) Succeeded() bool {
	return o.Result != nil && o.Failure == nil
}

func succeeded(result *Result) Outcome {
	return Outcome{Result: result}
}

func failed(kind FailureKind, err error) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Err: err}}
}

// Ranker produces an outcome for every job in a batch, keyed by job ID.
type Ranker interface {
	Rank(ctx context.Context, jobs []*upwork.Job) map[string]Outcome
}

// Modes for selecting a Ranker implementation.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
	ModeBatch      = "batch"
)

// NewRanker builds the ranker for the configured mode.
func NewRanker(mode string, scorer *Scorer, maxConcurrent, batchSize int, logger *zap.Logger) (Ranker, error) {
	switch mode {
	case ModeSequential:
		return NewSequential(scorer, logger), nil
	case ModeParallel:
		return NewParallel(scorer, maxConcurrent, logger), nil
	case ModeBatch:
		return NewBatch(scorer, batchSize, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ai ranking mode: %s", mode)
	}
}

type disabledRanker struct{}

// NewDisabled returns a ranker that marks every job as Disabled without
// issuing any model call.
func NewDisabled() Ranker {
	return disabledRanker{}
}

func (disabledRanker) Rank(_ context.Context, jobs []*upwork.Job) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(jobs))
	for _, job := range jobs {
		outcomes[job.ID] = failed(Disabled, nil)
	}
	return outcomes
}
