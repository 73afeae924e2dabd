package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/upwork-automation/ranker/internal/logger"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultIntervalMinutes = 60

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run ranking cycles on a schedule until interrupted",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("skip-initial-run", false, "wait for the first tick instead of running immediately")
}

func serve(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config := mustConfig(logger)

	interval := defaultIntervalMinutes
	if config.Scheduler != nil && config.Scheduler.IntervalMinutes > 0 {
		interval = config.Scheduler.IntervalMinutes
	}

	location := time.Local
	if config.Scheduler != nil && config.Scheduler.Timezone != "" {
		location, err = time.LoadLocation(config.Scheduler.Timezone)
		if err != nil {
			logger.Fatal("loading scheduler timezone", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting the upwork-ranker scheduler",
		zap.String("version", version),
		zap.Int("interval_minutes", interval),
		zap.String("timezone", location.String()),
	)

	cycle := func() {
		if !withinActiveHours(config.Scheduler, time.Now().In(location)) {
			logger.Info("outside active hours, skipping this run")
			return
		}
		// Scheduled cycles are non-interactive.
		if err := rankCycle(ctx, config, logger, true); err != nil {
			logger.Error("ranking cycle failed", zap.Error(err))
		}
	}

	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %dm", interval), cycle); err != nil {
		logger.Fatal("registering the ranking cycle", zap.Error(err))
	}

	if cmd.Flag("skip-initial-run").Value.String() != "true" {
		cycle()
	}

	scheduler.Start()

	<-ctx.Done()
	logger.Info("received shutdown signal, stopping the scheduler")

	// Let an in-flight cycle finish before exiting.
	<-scheduler.Stop().Done()
	logger.Info("scheduler stopped")
}

// withinActiveHours reports whether now falls inside the configured window.
// No window means always active.
func withinActiveHours(cfg *SchedulerConfig, now time.Time) bool {
	if cfg == nil || cfg.ActiveHours == nil {
		return true
	}

	start := cfg.ActiveHours.Start
	if start == "" {
		start = "00:00"
	}
	end := cfg.ActiveHours.End
	if end == "" {
		end = "23:59"
	}

	current := now.Format("15:04")
	return start <= current && current <= end
}
