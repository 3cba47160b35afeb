package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kitadev/agent-core/domain/policy"
)

func TestLoadStringOverridesDefaults(t *testing.T) {
	loader := NewLoader()

	cfg, err := loader.LoadString(`
logging:
  level: debug
sandbox:
  image: custom-sandbox:2
limits:
  cpu_seconds: 60
  timeout_seconds: 300
  memory_bytes: 1073741824
  max_output_bytes: 1048576
agent:
  max_retries: 5
  retry_same_step: false
`)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Sandbox.Image != "custom-sandbox:2" {
		t.Errorf("Sandbox.Image = %q, want custom-sandbox:2", cfg.Sandbox.Image)
	}
	// Unset fields keep defaults.
	if cfg.Sandbox.User != "sandbox_user" {
		t.Errorf("Sandbox.User = %q, want default sandbox_user", cfg.Sandbox.User)
	}
	if cfg.Agent.MaxRetries != 5 {
		t.Errorf("Agent.MaxRetries = %d, want 5", cfg.Agent.MaxRetries)
	}
	if cfg.RetrySameStep() {
		t.Error("RetrySameStep() = true, want false")
	}

	limits, err := cfg.ResourceLimits()
	if err != nil {
		t.Fatal(err)
	}
	if limits.CPUSeconds != 60 {
		t.Errorf("CPUSeconds = %d, want 60", limits.CPUSeconds)
	}
}

func TestDefaultRetrySameStep(t *testing.T) {
	cfg, err := NewLoader().LoadString("logging:\n  level: info\n")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.RetrySameStep() {
		t.Error("RetrySameStep() should default to true")
	}
}

func TestLoadRejectsLimitsAboveCeiling(t *testing.T) {
	_, err := NewLoader().LoadString(`
limits:
  cpu_seconds: 9999
  timeout_seconds: 300
  memory_bytes: 1024
  max_output_bytes: 1024
`)
	if err == nil {
		t.Fatal("limits above the ceiling should fail validation")
	}
	if !errors.Is(err, ErrValidationFailed) && !errors.Is(err, policy.ErrLimitExceedsCeiling) {
		t.Errorf("error = %v, want validation failure", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := NewLoader().LoadString("logging: [not: a map")
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("TEST_SANDBOX_IMAGE", "env-image:7")

	cfg, err := NewLoader().LoadString("sandbox:\n  image: ${TEST_SANDBOX_IMAGE}\n")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sandbox.Image != "env-image:7" {
		t.Errorf("Sandbox.Image = %q, want env-image:7", cfg.Sandbox.Image)
	}
}

func TestStrictEnvMissing(t *testing.T) {
	loader := NewLoaderWithOptions(WithStrictEnv(true))

	_, err := loader.LoadString("sandbox:\n  image: ${DEFINITELY_UNSET_VAR_42}\n")
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("error = %v, want ErrMissingEnvVar", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}
