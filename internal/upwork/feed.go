package upwork

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

// feedFile is the dump format produced by the scraper for one executed search.
// Jobs are kept loosely typed so dumps from older scraper versions with extra
// fields still load.
type feedFile struct {
	Search string           `json:"search,omitempty"`
	Jobs   []map[string]any `json:"jobs"`
}

// LoadFeed reads a single scraper dump file and returns its jobs in file order.
func LoadFeed(path string) ([]*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feed %q: %w", path, err)
	}

	var feed feedFile
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", path, err)
	}

	var jobs []*Job
	cfg := &mapstructure.DecoderConfig{
		Result:     &jobs,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("building feed decoder: %w", err)
	}
	if err := decoder.Decode(feed.Jobs); err != nil {
		return nil, fmt.Errorf("decoding jobs from %q: %w", path, err)
	}

	return jobs, nil
}

// LoadFeeds reads every dump file and merges the results with first-seen
// deduplication, preserving file order.
func LoadFeeds(paths []string) ([]*Job, error) {
	lists := make([][]*Job, 0, len(paths))
	for _, path := range paths {
		jobs, err := LoadFeed(path)
		if err != nil {
			return nil, err
		}
		lists = append(lists, jobs)
	}
	return MergeUnique(lists...), nil
}
