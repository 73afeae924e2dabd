package upwork

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFeed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing feed file: %v", err)
	}
	return path
}

func TestLoadFeed(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, t.TempDir(), "golang.json", `{
		"search": "golang developer",
		"jobs": [
			{
				"id": "job-1",
				"title": "Go microservices",
				"job_type": "hourly",
				"budget_min": 50,
				"budget_max": 90,
				"required_skills": ["Go", "PostgreSQL"],
				"proposals_count": 7,
				"posted_at": "2026-08-30T10:00:00Z",
				"client": {"payment_verified": true, "rating": 4.9, "total_spent": 25000},
				"scraper_version": "unknown extra field"
			},
			{"id": "job-2", "title": "Fixed scope API", "job_type": "fixed", "fixed_price": 1500}
		]
	}`)

	jobs, err := LoadFeed(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	job := jobs[0]
	if job.ID != "job-1" || job.Title != "Go microservices" {
		t.Fatalf("unexpected first job: %+v", job)
	}
	if job.JobType != JobTypeHourly || job.BudgetMin != 50 || job.BudgetMax != 90 {
		t.Fatalf("unexpected budget fields: %+v", job)
	}
	if len(job.RequiredSkills) != 2 || job.RequiredSkills[1] != "PostgreSQL" {
		t.Fatalf("unexpected skills: %v", job.RequiredSkills)
	}

	wantPosted := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !job.PostedAt.Equal(wantPosted) {
		t.Fatalf("expected posted_at %s, got %s", wantPosted, job.PostedAt)
	}

	if !job.Client.PaymentVerified || job.Client.Rating == nil || *job.Client.Rating != 4.9 {
		t.Fatalf("unexpected client: %+v", job.Client)
	}

	if jobs[1].FixedPrice != 1500 {
		t.Fatalf("unexpected second job: %+v", jobs[1])
	}
}

func TestLoadFeedErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadFeed(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := writeFeed(t, t.TempDir(), "broken.json", `{"jobs": [`)
	if _, err := LoadFeed(path); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestLoadFeedsMergesAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFeed(t, dir, "first.json", `{"jobs": [{"id": "a", "title": "first a"}, {"id": "b"}]}`)
	second := writeFeed(t, dir, "second.json", `{"jobs": [{"id": "b"}, {"id": "c"}, {"id": "a", "title": "second a"}]}`)

	jobs, err := LoadFeeds([]string{first, second})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(jobs) != 3 {
		t.Fatalf("expected 3 unique jobs, got %d", len(jobs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if jobs[i].ID != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, jobs[i].ID)
		}
	}
	if jobs[0].Title != "first a" {
		t.Fatalf("expected the first file to win for job a, got %q", jobs[0].Title)
	}
}
