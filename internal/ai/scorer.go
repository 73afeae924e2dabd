package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/upwork-automation/ranker/internal/upwork"
	"github.com/upwork-automation/ranker/internal/utils"
	"go.uber.org/zap"
)

//go:embed rank_system.md
var rankSystemPrompt string

//go:embed rank_job.md
var rankJobTemplate string

//go:embed rank_batch_system.md
var rankBatchSystemPrompt string

//go:embed rank_batch.md
var rankBatchTemplate string

const (
	defaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200

	// Descriptions are shortened in chunk prompts to keep the request within
	// the model context window.
	chunkDescriptionLimit = 500
)

// Generator issues one chat-completion call with a system instruction and a
// user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Profile describes the freelancer on whose behalf jobs are scored.
type Profile struct {
	Skills     []string
	Experience string
}

// Scorer builds prompts for jobs, calls the model and parses the responses.
// It carries no cross-call state and is safe for concurrent use.
type Scorer struct {
	generator Generator
	profile   Profile
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

func NewScorer(generator Generator, profile Profile, timeout time.Duration, maxLogLength int, logger *zap.Logger) *Scorer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		profile:   profile,
		timeout:   timeout,
		maxLogLen: maxLogLength,
		logger:    logger,
	}
}

// ScoreJob issues a single-job ranking request. The outcome carries either the
// parsed result or a classified failure; it never panics or aborts the batch.
func (s *Scorer) ScoreJob(ctx context.Context, job *upwork.Job) Outcome {
	prompt := s.buildJobPrompt(job)

	raw, err := s.generate(ctx, rankSystemPrompt, prompt, job.ID)
	if err != nil {
		return failed(RequestFailed, err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return failed(ParseFailed, err)
	}

	return succeeded(result)
}

// ScoreChunk issues one request covering every job in the chunk. When the
// response cannot be parsed into exactly len(jobs) entries the whole chunk is
// failed, so callers never see partial credit within a chunk.
func (s *Scorer) ScoreChunk(ctx context.Context, jobs []*upwork.Job) []Outcome {
	prompt := s.buildChunkPrompt(jobs)

	raw, err := s.generate(ctx, rankBatchSystemPrompt, prompt, fmt.Sprintf("chunk_of_%d", len(jobs)))
	if err != nil {
		return failChunk(jobs, RequestFailed, err)
	}

	results, err := parseChunk(raw, len(jobs))
	if err != nil {
		return failChunk(jobs, ParseFailed, err)
	}

	outcomes := make([]Outcome, len(jobs))
	for i := range jobs {
		outcomes[i] = succeeded(results[i])
	}
	return outcomes
}

func failChunk(jobs []*upwork.Job, kind FailureKind, err error) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	for i := range jobs {
		outcomes[i] = failed(kind, err)
	}
	return outcomes
}

func (s *Scorer) generate(ctx context.Context, system, message, subject string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.logger != nil {
		s.logger.Debug("model ranking request",
			zap.String("subject", subject),
			zap.Int("prompt_length", utf8.RuneCountInString(message)),
			zap.String("prompt_preview", utils.TruncateForLog(message, s.maxLogLen)),
		)
	}

	raw, err := s.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug("model ranking response",
			zap.String("subject", subject),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
		)
	}

	return raw, nil
}

func (s *Scorer) buildJobPrompt(job *upwork.Job) string {
	replacer := strings.NewReplacer(
		"{{MY_SKILLS}}", strings.Join(s.profile.Skills, ", "),
		"{{MY_EXPERIENCE}}", s.profile.Experience,
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_TYPE}}", job.JobType,
		"{{BUDGET_INFO}}", job.FormatBudget(),
		"{{REQUIRED_SKILLS}}", strings.Join(job.RequiredSkills, ", "),
		"{{PROPOSALS_COUNT}}", strconv.Itoa(job.ProposalsCount),
		"{{CLIENT_RATING}}", formatClientRating(&job.Client),
		"{{CLIENT_SPENT}}", strconv.FormatFloat(job.Client.TotalSpent, 'f', -1, 64),
		"{{JOB_DESCRIPTION}}", job.Description,
	)
	return replacer.Replace(rankJobTemplate)
}

func (s *Scorer) buildChunkPrompt(jobs []*upwork.Job) string {
	blocks := make([]string, 0, len(jobs))
	for i, job := range jobs {
		blocks = append(blocks, fmt.Sprintf(
			"**JOB %d:**\nTitle: %s\nType: %s\nBudget: %s\nSkills: %s\nProposals: %d\nClient rating: %s\nClient spent: $%g\n\nDescription:\n%s",
			i, job.Title, job.JobType, job.FormatBudget(),
			strings.Join(job.RequiredSkills, ", "),
			job.ProposalsCount,
			formatClientRating(&job.Client),
			job.Client.TotalSpent,
			truncateRunes(job.Description, chunkDescriptionLimit),
		))
	}

	replacer := strings.NewReplacer(
		"{{JOB_COUNT}}", strconv.Itoa(len(jobs)),
		"{{MY_SKILLS}}", strings.Join(s.profile.Skills, ", "),
		"{{MY_EXPERIENCE}}", s.profile.Experience,
		"{{JOBS}}", strings.Join(blocks, "\n\n---\n\n"),
	)
	return replacer.Replace(rankBatchTemplate)
}

func formatClientRating(client *upwork.Client) string {
	if client == nil || client.Rating == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*client.Rating, 'f', 1, 64)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
