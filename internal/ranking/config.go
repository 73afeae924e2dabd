package ranking

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig marks configuration that must stop the pipeline before it
// runs.
var ErrInvalidConfig = errors.New("invalid ranking config")

// Weights must sum to 1.0; the invariant is enforced once in Validate, not at
// use sites.
const weightSumTolerance = 1e-6

type Weights struct {
	SkillsMatch   float64 `mapstructure:"skills-match" validate:"gte=0,lte=1"`
	BudgetScore   float64 `mapstructure:"budget-score" validate:"gte=0,lte=1"`
	ClientQuality float64 `mapstructure:"client-quality" validate:"gte=0,lte=1"`
	JobClarity    float64 `mapstructure:"job-clarity" validate:"gte=0,lte=1"`
	Competition   float64 `mapstructure:"competition" validate:"gte=0,lte=1"`
	Recency       float64 `mapstructure:"recency" validate:"gte=0,lte=1"`
}

func (w Weights) sum() float64 {
	return w.SkillsMatch + w.BudgetScore + w.ClientQuality + w.JobClarity + w.Competition + w.Recency
}

// DefaultWeights returns the stock weight distribution.
func DefaultWeights() Weights {
	return Weights{
		SkillsMatch:   0.25,
		BudgetScore:   0.20,
		ClientQuality: 0.20,
		JobClarity:    0.15,
		Competition:   0.10,
		Recency:       0.10,
	}
}

// Budget is the preferred rate range used by the budget sub-score.
type Budget struct {
	MinHourly float64 `mapstructure:"min-hourly" validate:"gte=0"`
	MaxHourly float64 `mapstructure:"max-hourly" validate:"gte=0"`
	MinFixed  float64 `mapstructure:"min-fixed" validate:"gte=0"`
	MaxFixed  float64 `mapstructure:"max-fixed" validate:"gte=0"`
}

type Config struct {
	Threshold float64  `mapstructure:"threshold" validate:"gte=0,lte=100"`
	Weights   Weights  `mapstructure:"weights"`
	MySkills  []string `mapstructure:"my-skills"`
	Budget    Budget   `mapstructure:"budget"`
}

// Validate checks field ranges and the sum-to-one weight invariant. It is
// called once at startup; a violation is fatal for the whole run.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	if sum := c.Weights.sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, expected 1.0", ErrInvalidConfig, sum)
	}

	return nil
}
