package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_REQUESTS_PER_MINUTE", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.GeminiRequestsPerMinute != 15 {
		t.Fatalf("expected default rpm 15, got %d", cfg.GeminiRequestsPerMinute)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("expected default concurrency 4, got %d", cfg.WorkerConcurrency)
	}
	if cfg.NATSSubject != "tenants.consolidate" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "9000")
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "300")
	t.Setenv("WORKER_CONCURRENCY", "8")

	cfg := Load()
	if cfg.APIPort != "9000" {
		t.Fatalf("expected api port override, got %q", cfg.APIPort)
	}
	if cfg.GeminiTimeoutSeconds != 300 {
		t.Fatalf("expected timeout 300, got %d", cfg.GeminiTimeoutSeconds)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.WorkerConcurrency)
	}
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("WORKER_CONCURRENCY", "many")

	cfg := Load()
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("expected fallback concurrency 4, got %d", cfg.WorkerConcurrency)
	}
}

func TestLoadReadsConfigFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "API_PORT: \"7070\"\nGEMINI_MODEL: gemini-2.5-pro\nWORKER_CONCURRENCY: 16\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg := Load()
	if cfg.APIPort != "7070" {
		t.Fatalf("expected file api port 7070, got %q", cfg.APIPort)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected env to win over file, got %q", cfg.GeminiModel)
	}
	if cfg.WorkerConcurrency != 16 {
		t.Fatalf("expected file concurrency 16, got %d", cfg.WorkerConcurrency)
	}
}

func TestLoadToleratesMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("API_PORT", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected defaults when file is missing, got %q", cfg.APIPort)
	}
}
