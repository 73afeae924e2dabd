package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/upwork-automation/ranker/internal/upwork"
	"go.uber.org/zap"
)

func testJobs(ids ...string) []*upwork.Job {
	jobs := make([]*upwork.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, &upwork.Job{ID: id, Title: "job " + id})
	}
	return jobs
}

func testScorer(gen Generator) *Scorer {
	profile := Profile{Skills: []string{"Go"}, Experience: "10 years of backend work"}
	return NewScorer(gen, profile, time.Minute, 0, zap.NewNop())
}

// failingGenerator errors for messages mentioning one of the failing needles
// and answers everything else with a fixed score.
type failingGenerator struct {
	failOn string
}

func (g *failingGenerator) GenerateContent(_ context.Context, _, message string) (string, error) {
	if strings.Contains(message, g.failOn) {
		return "", errors.New("connection reset")
	}
	return `{"score": 70, "reasoning": "fine"}`, nil
}

func TestSequentialIsolatesFailures(t *testing.T) {
	t.Parallel()

	jobs := testJobs("a", "b", "c")
	ranker := NewSequential(testScorer(&failingGenerator{failOn: "job b"}), zap.NewNop())

	outcomes := ranker.Rank(context.Background(), jobs)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !outcomes["a"].Succeeded() || !outcomes["c"].Succeeded() {
		t.Fatalf("expected jobs a and c to succeed: %+v", outcomes)
	}

	failure := outcomes["b"].Failure
	if failure == nil || failure.Kind != RequestFailed {
		t.Fatalf("expected RequestFailed for job b, got %+v", outcomes["b"])
	}
}

func TestSequentialStopsAdmittingWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := testJobs("a", "b")
	ranker := NewSequential(testScorer(&failingGenerator{}), zap.NewNop())

	outcomes := ranker.Rank(ctx, jobs)

	for _, id := range []string{"a", "b"} {
		failure := outcomes[id].Failure
		if failure == nil || failure.Kind != RequestFailed {
			t.Fatalf("expected RequestFailed for job %s after cancellation, got %+v", id, outcomes[id])
		}
	}
}

// countingGenerator tracks the number of in-flight calls.
type countingGenerator struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (g *countingGenerator) GenerateContent(_ context.Context, _, _ string) (string, error) {
	current := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	g.calls.Add(1)

	for {
		seen := g.maxSeen.Load()
		if current <= seen || g.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}

	time.Sleep(20 * time.Millisecond)
	return `{"score": 55}`, nil
}

func TestParallelRespectsAdmissionBound(t *testing.T) {
	t.Parallel()

	gen := &countingGenerator{}
	jobs := testJobs("a", "b", "c", "d", "e")
	ranker := NewParallel(testScorer(gen), 2, zap.NewNop())

	outcomes := ranker.Rank(context.Background(), jobs)

	if got := gen.maxSeen.Load(); got > 2 {
		t.Fatalf("expected at most 2 in-flight requests, saw %d", got)
	}
	if got := gen.calls.Load(); got != 5 {
		t.Fatalf("expected 5 calls, got %d", got)
	}

	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	for _, job := range jobs {
		outcome, ok := outcomes[job.ID]
		if !ok {
			t.Fatalf("missing outcome for job %s", job.ID)
		}
		if !outcome.Succeeded() || outcome.Result.Score != 55 {
			t.Fatalf("unexpected outcome for job %s: %+v", job.ID, outcome)
		}
	}
}

// queuedGenerator replays canned responses in call order.
type queuedGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
}

func (g *queuedGenerator) GenerateContent(_ context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return "", errors.New("unexpected call")
	}
	response, err := g.responses[0], g.errs[0]
	g.responses, g.errs = g.responses[1:], g.errs[1:]
	return response, err
}

func TestBatchFailsWholeChunkOnMalformedResponse(t *testing.T) {
	t.Parallel()

	gen := &queuedGenerator{
		responses: []string{
			"this is not json",
			`[{"score": 88}, {"score": 33}]`,
		},
		errs: []error{nil, nil},
	}

	jobs := testJobs("a", "b", "c", "d")
	ranker := NewBatch(testScorer(gen), 2, zap.NewNop())

	outcomes := ranker.Rank(context.Background(), jobs)

	for _, id := range []string{"a", "b"} {
		failure := outcomes[id].Failure
		if failure == nil || failure.Kind != ParseFailed {
			t.Fatalf("expected ParseFailed for job %s, got %+v", id, outcomes[id])
		}
	}

	if !outcomes["c"].Succeeded() || outcomes["c"].Result.Score != 88 {
		t.Fatalf("unexpected outcome for job c: %+v", outcomes["c"])
	}
	if !outcomes["d"].Succeeded() || outcomes["d"].Result.Score != 33 {
		t.Fatalf("unexpected outcome for job d: %+v", outcomes["d"])
	}
}

func TestBatchChunkRequestFailure(t *testing.T) {
	t.Parallel()

	gen := &queuedGenerator{
		responses: []string{"", `[{"score": 60}]`},
		errs:      []error{errors.New("timeout"), nil},
	}

	jobs := testJobs("a", "b", "c")
	ranker := NewBatch(testScorer(gen), 2, zap.NewNop())

	outcomes := ranker.Rank(context.Background(), jobs)

	for _, id := range []string{"a", "b"} {
		failure := outcomes[id].Failure
		if failure == nil || failure.Kind != RequestFailed {
			t.Fatalf("expected RequestFailed for job %s, got %+v", id, outcomes[id])
		}
	}
	if !outcomes["c"].Succeeded() {
		t.Fatalf("expected trailing chunk to succeed, got %+v", outcomes["c"])
	}
}

func TestDisabledRankerNeverCalls(t *testing.T) {
	t.Parallel()

	jobs := testJobs("a", "b")
	outcomes := NewDisabled().Rank(context.Background(), jobs)

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for id, outcome := range outcomes {
		if outcome.Failure == nil || outcome.Failure.Kind != Disabled {
			t.Fatalf("expected Disabled failure for job %s, got %+v", id, outcome)
		}
	}
}

func TestNewRankerModes(t *testing.T) {
	t.Parallel()

	scorer := testScorer(&failingGenerator{})
	for _, mode := range []string{ModeSequential, ModeParallel, ModeBatch} {
		if _, err := NewRanker(mode, scorer, 2, 2, zap.NewNop()); err != nil {
			t.Fatalf("mode %s: unexpected error: %v", mode, err)
		}
	}

	if _, err := NewRanker("burst", scorer, 2, 2, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
