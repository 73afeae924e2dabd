package ranking

import "sort"

// Select filters the scored jobs to those at or above threshold, sorts them by
// final score descending and truncates to maxCount entries. The sort is
// stable, so ties keep their discovery order. maxCount <= 0 means no limit.
// An empty result is a normal outcome, not an error.
func Select(ranked []*RankedJob, threshold float64, maxCount int) []*RankedJob {
	selected := make([]*RankedJob, 0, len(ranked))
	for _, job := range ranked {
		if job.Breakdown.FinalScore >= threshold {
			selected = append(selected, job)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Breakdown.FinalScore > selected[j].Breakdown.FinalScore
	})

	if maxCount > 0 && len(selected) > maxCount {
		selected = selected[:maxCount]
	}

	return selected
}
