// Package proposal is the boundary to proposal generation. Rendering and
// output layout live downstream; this package only hands the ranked selection
// over.
package proposal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/upwork-automation/ranker/internal/ranking"
)

// Handoff delivers the selected jobs, in final ranked order, to the proposal
// generator. Submit returns a location describing where the payload went.
type Handoff interface {
	Submit(jobs []*ranking.RankedJob) (string, error)
}

type payload struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Jobs        []*ranking.RankedJob `json:"jobs"`
}

// FileHandoff writes the ranked selection as JSON to Path, or to a temp file
// when Path is empty.
type FileHandoff struct {
	Path string
}

func (h *FileHandoff) Submit(jobs []*ranking.RankedJob) (string, error) {
	file, err := h.open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload{GeneratedAt: time.Now().UTC(), Jobs: jobs}); err != nil {
		return "", fmt.Errorf("encoding ranked jobs: %w", err)
	}

	return file.Name(), nil
}

func (h *FileHandoff) open() (*os.File, error) {
	if h.Path == "" {
		return os.CreateTemp("", "ranked_jobs_*.json")
	}
	return os.Create(h.Path)
}
