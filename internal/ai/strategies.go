package ai

import (
	"context"

	"github.com/upwork-automation/ranker/internal/upwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrent = 5
	defaultBatchSize     = 5
)

// Sequential issues one request at a time, in input order. A failed job does
// not block the jobs behind it.
type Sequential struct {
	scorer *Scorer
	logger *zap.Logger
}

func NewSequential(scorer *Scorer, logger *zap.Logger) *Sequential {
	return &Sequential{scorer: scorer, logger: logger}
}

func (s *Sequential) Rank(ctx context.Context, jobs []*upwork.Job) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			outcomes[job.ID] = failed(RequestFailed, err)
			continue
		}
		outcomes[job.ID] = logOutcome(s.logger, job.ID, s.scorer.ScoreJob(ctx, job))
	}
	return outcomes
}

// Parallel fans requests out across the batch with at most maxConcurrent in
// flight. Results are collected into a per-index slice and keyed by job ID
// afterwards, so the caller-visible ordering never depends on completion
// order and no two goroutines touch the same slot.
type Parallel struct {
	scorer        *Scorer
	maxConcurrent int
	logger        *zap.Logger
}

func NewParallel(scorer *Scorer, maxConcurrent int, logger *zap.Logger) *Parallel {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Parallel{scorer: scorer, maxConcurrent: maxConcurrent, logger: logger}
}

func (p *Parallel) Rank(ctx context.Context, jobs []*upwork.Job) map[string]Outcome {
	results := make([]Outcome, len(jobs))

	var group errgroup.Group
	group.SetLimit(p.maxConcurrent)

	for i, job := range jobs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = failed(RequestFailed, err)
				return nil
			}
			results[i] = p.scorer.ScoreJob(ctx, job)
			return nil
		})
	}

	// Goroutines never return errors; failures are captured per slot.
	_ = group.Wait()

	outcomes := make(map[string]Outcome, len(jobs))
	for i, job := range jobs {
		outcomes[job.ID] = logOutcome(p.logger, job.ID, results[i])
	}
	return outcomes
}

// Batch groups jobs into chunks and issues one request per chunk. Chunks are
// scored one after another; a chunk that cannot be parsed fails all of its
// member jobs without affecting the other chunks.
type Batch struct {
	scorer    *Scorer
	batchSize int
	logger    *zap.Logger
}

func NewBatch(scorer *Scorer, batchSize int, logger *zap.Logger) *Batch {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Batch{scorer: scorer, batchSize: batchSize, logger: logger}
}

func (b *Batch) Rank(ctx context.Context, jobs []*upwork.Job) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(jobs))

	for start := 0; start < len(jobs); start += b.batchSize {
		end := min(start+b.batchSize, len(jobs))
		chunk := jobs[start:end]

		if err := ctx.Err(); err != nil {
			for _, job := range chunk {
				outcomes[job.ID] = failed(RequestFailed, err)
			}
			continue
		}

		chunkOutcomes := b.scorer.ScoreChunk(ctx, chunk)
		for i, job := range chunk {
			outcomes[job.ID] = logOutcome(b.logger, job.ID, chunkOutcomes[i])
		}
	}

	return outcomes
}

func logOutcome(logger *zap.Logger, jobID string, outcome Outcome) Outcome {
	if logger != nil && !outcome.Succeeded() {
		logger.Warn("ai scoring failed, falling back to rule score",
			zap.String("job_id", jobID),
			zap.String("failure", outcome.Failure.Kind.String()),
			zap.Error(outcome.Failure.Err),
		)
	}
	return outcome
}
