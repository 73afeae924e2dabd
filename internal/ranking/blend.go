package ranking

import (
	"github.com/upwork-automation/ranker/internal/ai"
)

// Blend ratio applied when the model scored the job. On any AI failure the
// rule composite carries the full weight; a failed job is never dropped here.
const (
	aiBlendWeight   = 0.7
	ruleBlendWeight = 0.3
)

// Blend combines the rule composite with the AI outcome for one job. The
// second return reports whether the AI signal contributed.
func Blend(ruleScore float64, outcome ai.Outcome) (float64, bool) {
	if !outcome.Succeeded() {
		return ruleScore, false
	}
	return round2(aiBlendWeight*outcome.Result.Score + ruleBlendWeight*ruleScore), true
}
