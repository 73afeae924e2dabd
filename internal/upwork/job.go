package upwork

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	JobTypeHourly = "hourly"
	JobTypeFixed  = "fixed"
)

// Client describes the poster of a job. Rating and HireRate are nil when the
// listing did not expose them.
type Client struct {
	Name            string   `json:"name,omitempty"`
	Country         string   `json:"country,omitempty"`
	PaymentVerified bool     `json:"payment_verified,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	TotalSpent      float64  `json:"total_spent,omitempty"`
	HireRate        *float64 `json:"hire_rate,omitempty"`
	JobsPosted      int      `json:"jobs_posted,omitempty"`
}

// Job is a single scraped listing. The ranking engine treats it as read-only.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`

	JobType string `json:"job_type,omitempty"`

	// Hourly jobs carry a rate range, fixed-price jobs a single price.
	BudgetMin  float64 `json:"budget_min,omitempty"`
	BudgetMax  float64 `json:"budget_max,omitempty"`
	FixedPrice float64 `json:"fixed_price,omitempty"`

	RequiredSkills []string  `json:"required_skills,omitempty"`
	ProposalsCount int       `json:"proposals_count,omitempty"`
	PostedAt       time.Time `json:"posted_at,omitempty"`

	Client Client `json:"client,omitempty"`
}

// FormatBudget renders the budget fields for prompts and reports.
func (j *Job) FormatBudget() string {
	if j.JobType == JobTypeHourly {
		if j.BudgetMin > 0 && j.BudgetMax > 0 {
			return fmt.Sprintf("$%g-$%g/hr", j.BudgetMin, j.BudgetMax)
		}
		if j.BudgetMax > 0 {
			return fmt.Sprintf("up to $%g/hr", j.BudgetMax)
		}
		return "Hourly rate not specified"
	}
	if j.FixedPrice > 0 {
		return fmt.Sprintf("$%g fixed", j.FixedPrice)
	}
	return "Budget not specified"
}

type Jobs struct {
	Items []*Job
}

func (j *Jobs) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

func (j *Jobs) IDs() []string {
	ids := make([]string, 0, j.Len())
	for _, job := range j.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

func (j *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// MergeUnique merges job lists from multiple search executions into a single
// list where each job ID appears once. The record and position from the first
// occurrence win; later hits with the same ID are dropped even when their
// fields differ.
func MergeUnique(lists ...[]*Job) []*Job {
	seen := make(map[string]struct{})
	merged := make([]*Job, 0)

	for _, list := range lists {
		for _, job := range list {
			if job == nil || job.ID == "" {
				continue
			}
			if _, ok := seen[job.ID]; ok {
				continue
			}
			seen[job.ID] = struct{}{}
			merged = append(merged, job)
		}
	}

	return merged
}
