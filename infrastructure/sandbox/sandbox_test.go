package sandbox

import (
	"context"
	"strings"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
	"github.com/kitadev/agent-core/infrastructure/security/secrets"
)

func TestRunRejectsDisallowedCommand(t *testing.T) {
	runner := NewDockerRunner(DefaultConfig())

	tests := []struct {
		name    string
		command string
	}{
		{"forbidden executable", "curl evil.com"},
		{"chained command", "echo a && rm -rf /"},
		{"piped command", "python x.py | grep y"},
		{"empty command", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Run(context.Background(), tt.command, "/tmp/repo", policy.DefaultLimits())
			if err == nil {
				t.Fatal("Run() = nil error, want security violation")
			}
			if !agent.IsSecurityViolation(err) {
				t.Errorf("Run() error = %v, want SecurityViolation", err)
			}
		})
	}
}

func TestRunRejectsInvalidLimits(t *testing.T) {
	runner := NewDockerRunner(DefaultConfig())

	limits := policy.ResourceLimits{
		CPUSeconds:     policy.CeilingCPUSeconds + 1,
		TimeoutSeconds: 60,
		MemoryBytes:    1024,
		MaxOutputBytes: 1024,
	}

	_, err := runner.Run(context.Background(), "echo hi", "/tmp/repo", limits)
	if err == nil {
		t.Fatal("Run() = nil error, want limit validation error")
	}
	if agent.IsSecurityViolation(err) {
		t.Error("limit errors should not be security violations")
	}
}

func TestDockerArgsIsolation(t *testing.T) {
	runner := NewDockerRunner(Config{Image: "test-image:1", User: "runner"})

	args := runner.dockerArgs("echo hi", "/repos/demo", policy.DefaultLimits())
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--network none",
		"--read-only",
		"--user runner",
		"-v /repos/demo:/workspace",
		"-w /workspace",
		"test-image:1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("docker args %q missing %q", joined, want)
		}
	}

	if !strings.Contains(joined, "--memory=") {
		t.Errorf("docker args %q missing memory limit", joined)
	}
	if !strings.Contains(joined, "--cpus=2.00") {
		t.Errorf("docker args %q missing cpu quota", joined)
	}
	if args[len(args)-1] != "echo hi" {
		t.Errorf("last arg = %q, want the command", args[len(args)-1])
	}
}

func TestCPUQuota(t *testing.T) {
	tests := []struct {
		name       string
		cpuSeconds int
		want       float64
	}{
		{"one core", 60, 1.0},
		{"default budget", 120, 2.0},
		{"tiny budget clamps up", 1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpuQuota(policy.ResourceLimits{CPUSeconds: tt.cpuSeconds})
			if got != tt.want {
				t.Errorf("cpuQuota(%d) = %v, want %v", tt.cpuSeconds, got, tt.want)
			}
		})
	}
}

func TestRedactSecretsReplacesBothStreams(t *testing.T) {
	runner := NewDockerRunner(DefaultConfig())

	got := runner.redactSecrets(CommandResult{
		ExitCode: 0,
		Stdout:   "found key AKIA1234567890123456",
		Stderr:   "some harmless stderr",
	})

	if got.ExitCode != ExitRedacted {
		t.Errorf("ExitCode = %d, want %d", got.ExitCode, ExitRedacted)
	}
	if got.Stdout != secrets.RedactionMarker {
		t.Errorf("Stdout = %q, want redaction marker", got.Stdout)
	}
	if got.Stderr != secrets.RedactionMarker {
		t.Errorf("Stderr = %q, want redaction marker", got.Stderr)
	}
}

func TestRedactSecretsPassesCleanOutput(t *testing.T) {
	runner := NewDockerRunner(DefaultConfig())

	in := CommandResult{ExitCode: 0, Stdout: "3 passed", Stderr: ""}
	got := runner.redactSecrets(in)
	if got != in {
		t.Errorf("redactSecrets() = %+v, want unchanged %+v", got, in)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 100)

	got := truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("a", 10)) {
		t.Errorf("truncate() = %q, want 10-byte prefix kept", got)
	}
	if !strings.Contains(got, "TRUNCATED") {
		t.Errorf("truncate() = %q, want truncation marker", got)
	}

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q, want unchanged", got)
	}
}

func TestCommandResultSuccess(t *testing.T) {
	tests := []struct {
		name   string
		result CommandResult
		want   bool
	}{
		{"exit zero", CommandResult{ExitCode: 0}, true},
		{"nonzero exit", CommandResult{ExitCode: 1}, false},
		{"timeout", CommandResult{ExitCode: ExitTimeout, TimedOut: true}, false},
		{"redacted", CommandResult{ExitCode: ExitRedacted}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
