package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/upwork-automation/ranker/internal/ai"
	"github.com/upwork-automation/ranker/internal/ai/gemini"
	"github.com/upwork-automation/ranker/internal/logger"
	"github.com/upwork-automation/ranker/internal/proposal"
	"github.com/upwork-automation/ranker/internal/ranking"
	"github.com/upwork-automation/ranker/internal/secrets"
	"github.com/upwork-automation/ranker/internal/upwork"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes        = "Yes"
	PromptNo         = "No"
	PromptReport     = "Show score report"
	PromptDumpToFile = "Dump ranked jobs to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Hand the selection off for proposals?",
	Items: []string{PromptYes, PromptNo, PromptReport, PromptDumpToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single ranking cycle",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before handing selected jobs off")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := mustConfig(logger)

	logger.Info("starting the upwork-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"

	if err := rankCycle(ctx, config, logger, autoApprove); err != nil {
		logger.Fatal("ranking cycle failed", zap.Error(err))
	}
}

// mustConfig loads and validates the configuration, exiting on anything that
// would make the pipeline meaningless to run.
func mustConfig(logger *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Ranking == nil {
		logger.Fatal("ranking configuration is required")
	}

	if err := config.Ranking.Validate(); err != nil {
		logger.Fatal("validating ranking configuration", zap.Error(err))
	}

	if config.Search == nil || len(config.Search.Feeds) == 0 {
		logger.Fatal("at least one job feed is required under search.feeds")
	}

	if err := secrets.LoadDotenv(config.EnvFile); err != nil {
		logger.Warn("loading env file", zap.Error(err))
	}

	return config
}

// rankCycle executes one full cycle: load feeds, dedupe, score, select and
// hand off. It always completes; AI unavailability only degrades scores.
func rankCycle(ctx context.Context, config *Config, logger *zap.Logger, autoApprove bool) error {
	jobs, err := loadJobs(config, logger)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		logger.Info("exiting cycle", zap.String("reason", "no jobs found in feeds"))
		return nil
	}

	ranker := prepareRanker(ctx, config, logger)

	engine := ranking.NewEngine(config.Ranking, ranker, logger)
	ranked := engine.Rank(ctx, jobs)

	maxJobs := 0
	outputFile := ""
	if config.Output != nil {
		maxJobs = config.Output.MaxJobs
		outputFile = config.Output.File
	}

	selected := ranking.Select(ranked, config.Ranking.Threshold, maxJobs)

	logSummary(logger, config, ranked, selected)

	if len(selected) == 0 {
		logger.Info("no jobs met the threshold, skipping proposal handoff")
		return nil
	}

	handoff := &proposal.FileHandoff{Path: outputFile}

	if autoApprove {
		return submit(handoff, selected, logger)
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(action, handoff, config, ranked, selected, logger); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(action string, handoff proposal.Handoff, config *Config, ranked, selected []*ranking.RankedJob, logger *zap.Logger) error {
	switch action {
	case PromptYes:
		if err := submit(handoff, selected, logger); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReport:
		for _, job := range selected {
			fmt.Printf("\n# %s (%s)\n%s\n", job.Job.Title, job.Job.ID, job.Explain(config.Ranking))
		}
		return nil
	case PromptDumpToFile:
		all := &upwork.Jobs{}
		for _, job := range ranked {
			all.Items = append(all.Items, job.Job)
		}
		filename, err := all.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump ranked jobs to file: %w", err)
		}
		logger.Info("dumping ranked jobs to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func submit(handoff proposal.Handoff, selected []*ranking.RankedJob, logger *zap.Logger) error {
	location, err := handoff.Submit(selected)
	if err != nil {
		return fmt.Errorf("handing off selected jobs: %w", err)
	}

	logger.Info("handed selected jobs off for proposals",
		zap.Int("count", len(selected)),
		zap.String("location", location),
	)
	return nil
}

// loadJobs reads every configured feed and merges the lists with first-seen
// deduplication.
func loadJobs(config *Config, logger *zap.Logger) ([]*upwork.Job, error) {
	lists := make([][]*upwork.Job, 0, len(config.Search.Feeds))
	total := 0

	for _, feed := range config.Search.Feeds {
		jobs, err := upwork.LoadFeed(feed)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded job feed", zap.String("feed", feed), zap.Int("count", len(jobs)))
		lists = append(lists, jobs)
		total += len(jobs)
	}

	unique := upwork.MergeUnique(lists...)
	logger.Info("merged job feeds", zap.Int("total", total), zap.Int("unique", len(unique)))
	return unique, nil
}

// prepareRanker builds the AI ranker for the configured mode. Any AI
// configuration problem disables AI scoring for the cycle instead of aborting
// it.
func prepareRanker(ctx context.Context, config *Config, logger *zap.Logger) ai.Ranker {
	ranker, err := newAIRanker(ctx, config, logger)
	if err != nil {
		logger.Warn("ai scoring disabled for this cycle", zap.Error(err))
		return ai.NewDisabled()
	}
	return ranker
}

func newAIRanker(ctx context.Context, config *Config, logger *zap.Logger) (ai.Ranker, error) {
	cfg := config.AI
	if cfg == nil || !cfg.Enabled {
		logger.Info("ai scoring is disabled, using rule-based scores only")
		return ai.NewDisabled(), nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai scoring is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.MaxTokens, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	profile := ai.Profile{
		Skills:     config.Ranking.MySkills,
		Experience: cfg.MyExperience,
	}

	scorer := ai.NewScorer(generator, profile, time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.Gemini.MaxLogLength, genLogger)

	mode := strings.TrimSpace(strings.ToLower(cfg.Mode))
	if mode == "" {
		mode = ai.ModeSequential
	}

	logger.Info("ai scoring enabled", zap.String("mode", mode), zap.String("model", generator.Model()))

	return ai.NewRanker(mode, scorer, cfg.MaxConcurrent, cfg.BatchSize, logger)
}

func logSummary(logger *zap.Logger, config *Config, ranked, selected []*ranking.RankedJob) {
	logger.Info("ranking cycle summary",
		zap.Int("ranked", len(ranked)),
		zap.Float64("threshold", config.Ranking.Threshold),
		zap.Int("selected", len(selected)),
	)

	for i, job := range selected {
		if i >= 5 {
			break
		}
		logger.Info("top job",
			zap.Int("rank", i+1),
			zap.String("job_id", job.Job.ID),
			zap.String("title", job.Job.Title),
			zap.Float64("final_score", job.Breakdown.FinalScore),
			zap.Float64("rule_score", job.Breakdown.RuleScore),
			zap.Bool("ai_ranked", job.Breakdown.AIRanked),
		)
	}
}
