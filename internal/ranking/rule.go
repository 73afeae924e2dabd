package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/upwork-automation/ranker/internal/upwork"
)

const neutralScore = 50

var positiveClarityKeywords = []string{
	"requirements", "deliverables", "deadline", "milestone",
	"experience", "skills", "looking for", "project",
}

var negativeClarityKeywords = []string{
	"asap", "urgent", "cheap", "lowest bid", "budget is tight",
	"test task", "unpaid",
}

// RuleScore computes the six sub-scores and their weighted composite for one
// job. It is pure and deterministic for a fixed now; missing or unknown fields
// degrade to neutral values, never to an error.
func RuleScore(job *upwork.Job, cfg *Config, now time.Time) Breakdown {
	b := Breakdown{
		SkillsMatch:   scoreSkillsMatch(job, cfg.MySkills),
		BudgetScore:   scoreBudget(job, cfg.Budget),
		ClientQuality: scoreClientQuality(&job.Client),
		JobClarity:    scoreJobClarity(job.Description),
		Competition:   scoreCompetition(job.ProposalsCount),
		Recency:       scoreRecency(job.PostedAt, now),
	}

	w := cfg.Weights
	composite := b.SkillsMatch*w.SkillsMatch +
		b.BudgetScore*w.BudgetScore +
		b.ClientQuality*w.ClientQuality +
		b.JobClarity*w.JobClarity +
		b.Competition*w.Competition +
		b.Recency*w.Recency

	b.RuleScore = round2(clampScore(composite))
	return b
}

func scoreSkillsMatch(job *upwork.Job, mySkills []string) float64 {
	if len(job.RequiredSkills) == 0 || len(mySkills) == 0 {
		return neutralScore
	}

	required := make(map[string]struct{}, len(job.RequiredSkills))
	for _, skill := range job.RequiredSkills {
		required[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	description := strings.ToLower(job.Description)

	var match float64
	for _, skill := range mySkills {
		lower := strings.ToLower(strings.TrimSpace(skill))
		if lower == "" {
			continue
		}
		if _, ok := required[lower]; ok {
			match++
			continue
		}
		if strings.Contains(description, lower) {
			match += 0.5
		}
	}

	return clampScore(100 * match / float64(len(job.RequiredSkills)))
}

func scoreBudget(job *upwork.Job, budget Budget) float64 {
	var rate, lo, hi float64
	if job.JobType == upwork.JobTypeHourly {
		lo, hi = budget.MinHourly, budget.MaxHourly
		rate = job.BudgetMax
		if rate <= 0 {
			rate = job.BudgetMin
		}
	} else {
		lo, hi = budget.MinFixed, budget.MaxFixed
		rate = job.FixedPrice
	}

	if hi <= 0 || rate <= 0 {
		// No configured range or no budget on the listing.
		return neutralScore
	}

	switch {
	case rate >= hi:
		return 100
	case rate >= lo:
		if hi == lo {
			return 100
		}
		return clampScore(50 + 50*(rate-lo)/(hi-lo))
	default:
		// Linear penalty for shortfall below the minimum, bottoming out at 0.
		return clampScore(50 - 50*(lo-rate)/lo)
	}
}

func scoreClientQuality(client *upwork.Client) float64 {
	score := float64(neutralScore)

	if client.PaymentVerified {
		score += 15
	}

	if client.Rating != nil {
		switch rating := *client.Rating; {
		case rating >= 4.8:
			score += 20
		case rating >= 4.5:
			score += 15
		case rating >= 4.0:
			score += 10
		case rating < 3.5:
			score -= 15
		}
	}

	switch spent := client.TotalSpent; {
	case spent >= 100_000:
		score += 15
	case spent >= 10_000:
		score += 10
	case spent >= 1_000:
		score += 5
	case spent < 100:
		score -= 5
	}

	if client.HireRate != nil {
		switch rate := *client.HireRate; {
		case rate >= 80:
			score += 10
		case rate >= 50:
			score += 5
		case rate < 30:
			score -= 10
		}
	}

	return clampScore(score)
}

func scoreJobClarity(description string) float64 {
	score := float64(neutralScore)

	switch words := len(strings.Fields(description)); {
	case words >= 200:
		score += 20
	case words >= 100:
		score += 10
	case words < 30:
		score -= 15
	}

	lower := strings.ToLower(description)
	for _, keyword := range positiveClarityKeywords {
		if strings.Contains(lower, keyword) {
			score += 3
		}
	}
	for _, keyword := range negativeClarityKeywords {
		if strings.Contains(lower, keyword) {
			score -= 10
		}
	}

	return clampScore(score)
}

func scoreCompetition(proposals int) float64 {
	switch {
	case proposals == 0:
		return 100
	case proposals <= 5:
		return 90
	case proposals <= 10:
		return 75
	case proposals <= 20:
		return 60
	case proposals <= 35:
		return 40
	case proposals <= 50:
		return 25
	default:
		return 10
	}
}

func scoreRecency(postedAt, now time.Time) float64 {
	if postedAt.IsZero() {
		return neutralScore
	}

	switch hours := now.Sub(postedAt).Hours(); {
	case hours <= 1:
		return 100
	case hours <= 3:
		return 90
	case hours <= 6:
		return 80
	case hours <= 12:
		return 70
	case hours <= 24:
		return 60
	case hours <= 48:
		return 40
	case hours <= 72:
		return 25
	default:
		return 10
	}
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
