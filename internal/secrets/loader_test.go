package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	t.Setenv("RANKER_TEST_SECRET", "from-env")

	cases := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "file wins over env and value",
			src:  Source{Name: "api key", File: file, Env: "RANKER_TEST_SECRET", Value: "inline"},
			want: "from-file",
		},
		{
			name: "env wins over value",
			src:  Source{Name: "api key", Env: "RANKER_TEST_SECRET", Value: "inline"},
			want: "from-env",
		},
		{
			name: "inline value",
			src:  Source{Name: "api key", Value: "  inline  "},
			want: "inline",
		},
		{
			name: "unset env falls back to value",
			src:  Source{Name: "api key", Env: "RANKER_TEST_UNSET", Value: "inline"},
			want: "inline",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Load(tc.src)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatal("expected error when nothing is configured")
	}

	_, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error for a missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if writeErr := os.WriteFile(empty, []byte("  \n"), 0o600); writeErr != nil {
		t.Fatalf("writing empty file: %v", writeErr)
	}
	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Fatal("expected error for an empty file")
	}

	_, err = Load(Source{File: filepath.Join(t.TempDir(), "missing")})
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected fallback name in error, got %v", err)
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("RANKER_DOTENV_KEY=loaded\n"), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	t.Setenv("RANKER_DOTENV_KEY", "")
	os.Unsetenv("RANKER_DOTENV_KEY")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("RANKER_DOTENV_KEY"); got != "loaded" {
		t.Fatalf("expected dotenv value to be loaded, got %q", got)
	}

	if err := LoadDotenv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
}
