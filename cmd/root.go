package cmd

import (
	"log"

	"github.com/upwork-automation/ranker/internal/ranking"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "upwork-ranker"
)

type Config struct {
	Search    *SearchConfig    `mapstructure:"search"`
	Ranking   *ranking.Config  `mapstructure:"ranking"`
	AI        *AIConfig        `mapstructure:"ai"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
	Output    *OutputConfig    `mapstructure:"output"`
	EnvFile   string           `mapstructure:"env-file"`
}

type SearchConfig struct {
	// Feeds are scraper dump files, one per executed search, in execution
	// order.
	Feeds []string `mapstructure:"feeds"`
}

type AIConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Provider       string        `mapstructure:"provider"`
	Mode           string        `mapstructure:"mode"`
	MaxConcurrent  int           `mapstructure:"max-concurrent"`
	BatchSize      int           `mapstructure:"batch-size"`
	MaxTokens      int           `mapstructure:"max-tokens"`
	TimeoutSeconds int           `mapstructure:"timeout-seconds"`
	MyExperience   string        `mapstructure:"my-experience"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base-url"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SchedulerConfig struct {
	IntervalMinutes int          `mapstructure:"interval-minutes"`
	Timezone        string       `mapstructure:"timezone"`
	ActiveHours     *ActiveHours `mapstructure:"active-hours"`
}

type ActiveHours struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type OutputConfig struct {
	// File receives the ranked selection for the proposal generator. Empty
	// means a temp file.
	File string `mapstructure:"file"`
	// MaxJobs bounds how many selected jobs are handed off per cycle.
	MaxJobs int `mapstructure:"max-jobs"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "upwork-ranker ranks scraped Upwork job listings and selects the best ones for proposals",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is upwork-ranker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the run and serve commands. If there is no
	// config, we can skip initialization.
	if runCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
