// Package sandbox executes commands inside an isolated Docker container.
//
// Every run passes the same pipeline in order: command allowlist, resource
// limit validation, containerized execution with a wall-clock kill, and a
// secret scan over the captured output. Security violations surface as
// errors; timeouts and redactions are ordinary results.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
	"github.com/kitadev/agent-core/infrastructure/logging"
	"github.com/kitadev/agent-core/infrastructure/security/allowlist"
	"github.com/kitadev/agent-core/infrastructure/security/secrets"
)

// Exit codes reserved for sandbox-level outcomes. Container exit codes are
// never negative, so these cannot collide.
const (
	ExitTimeout  = -1
	ExitRedacted = -2
)

// CommandResult is the outcome of one sandboxed command.
type CommandResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timed_out"`
}

// Success reports whether the command completed normally with exit 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Runner executes a command against a repository under resource limits.
type Runner interface {
	Run(ctx context.Context, command, repoPath string, limits policy.ResourceLimits) (CommandResult, error)
}

// Config configures the Docker runner.
type Config struct {
	// Image is the sandbox container image.
	Image string

	// User is the non-privileged user commands run as.
	User string

	// MaxConcurrent caps simultaneous container launches.
	MaxConcurrent int
}

// DefaultConfig returns the standard sandbox configuration.
func DefaultConfig() Config {
	return Config{
		Image:         "kita-sandbox:latest",
		User:          "sandbox_user",
		MaxConcurrent: 4,
	}
}

// DockerRunner runs commands in throwaway Docker containers with network
// isolation and a read-only root filesystem.
type DockerRunner struct {
	config   Config
	guard    *allowlist.Guard
	scanner  *secrets.Scanner
	bulkhead bulkhead.Bulkhead[CommandResult]
}

// Option configures a DockerRunner.
type Option func(*DockerRunner)

// WithGuard replaces the default command guard.
func WithGuard(g *allowlist.Guard) Option {
	return func(r *DockerRunner) {
		r.guard = g
	}
}

// WithScanner replaces the default secret scanner.
func WithScanner(s *secrets.Scanner) Option {
	return func(r *DockerRunner) {
		r.scanner = s
	}
}

// NewDockerRunner creates a runner with the given configuration.
func NewDockerRunner(config Config, opts ...Option) *DockerRunner {
	if config.Image == "" {
		config.Image = DefaultConfig().Image
	}
	if config.User == "" {
		config.User = DefaultConfig().User
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}

	r := &DockerRunner{
		config:  config,
		guard:   allowlist.NewGuard(),
		scanner: secrets.NewScanner(),
		bulkhead: bulkhead.New[CommandResult](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command in the sandbox. It returns a SecurityViolation
// error for disallowed commands and an error for invalid limits; timeouts
// and secret redactions come back as results, not errors.
func (r *DockerRunner) Run(ctx context.Context, command, repoPath string, limits policy.ResourceLimits) (CommandResult, error) {
	if !r.guard.IsCommandAllowed(command) {
		logging.Error().
			Add(logging.Command(command)).
			Msg("blocked command outside allowlist")
		return CommandResult{}, &agent.SecurityViolation{Msg: fmt.Sprintf("command not allowed: %s", command)}
	}

	if err := limits.Validate(); err != nil {
		return CommandResult{}, fmt.Errorf("invalid resource limits: %w", err)
	}

	return r.bulkhead.Execute(ctx, func(ctx context.Context) (CommandResult, error) {
		result, err := r.execute(ctx, command, repoPath, limits)
		if err != nil {
			return CommandResult{}, err
		}
		return r.redactSecrets(result), nil
	})
}

func (r *DockerRunner) execute(ctx context.Context, command, repoPath string, limits policy.ResourceLimits) (CommandResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, limits.Timeout())
	defer cancel()

	args := r.dockerArgs(command, repoPath, limits)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, "docker", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Info().
		Add(logging.Command(command)).
		Add(logging.Str("repo_path", repoPath)).
		Msg("executing sandboxed command")

	err := cmd.Run()

	result := CommandResult{
		Stdout: truncate(stdout.String(), limits.MaxOutputBytes),
		Stderr: truncate(stderr.String(), limits.MaxOutputBytes),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		logging.Error().
			Add(logging.Command(command)).
			Add(logging.Duration(limits.Timeout())).
			Msg("sandbox wall-clock timeout, process killed")
		result.ExitCode = ExitTimeout
		result.TimedOut = true
		return result, nil

	case err == nil:
		return result, nil

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return CommandResult{}, fmt.Errorf("sandbox execution failed: %w", err)
	}
}

// dockerArgs builds the container invocation. Isolation flags are fixed:
// no network, read-only root, non-privileged user, repository bind-mounted
// as the working directory.
func (r *DockerRunner) dockerArgs(command, repoPath string, limits policy.ResourceLimits) []string {
	return []string{
		"run",
		"--rm",
		"--network", "none",
		"--read-only",
		"--user", r.config.User,
		fmt.Sprintf("--memory=%db", limits.MemoryBytes),
		fmt.Sprintf("--cpus=%.2f", cpuQuota(limits)),
		"-w", "/workspace",
		"-v", fmt.Sprintf("%s:/workspace", repoPath),
		r.config.Image,
		"/bin/bash", "-c", command,
	}
}

// cpuQuota converts the CPU-seconds budget into a Docker core count,
// spreading the budget over a one-minute window. A minimum of a tenth
// of a core keeps tiny budgets runnable.
func cpuQuota(limits policy.ResourceLimits) float64 {
	quota := float64(limits.CPUSeconds) / 60.0
	if quota < 0.1 {
		return 0.1
	}
	return quota
}

// redactSecrets converts any output containing a secret into a full
// redaction. Partial redaction is not acceptable: context around a secret
// can itself leak.
func (r *DockerRunner) redactSecrets(result CommandResult) CommandResult {
	if !r.scanner.HasSecrets(result.Stdout, result.Stderr) {
		return result
	}

	logging.Error().
		Add(logging.ExitCode(ExitRedacted)).
		Msg("secrets detected in sandbox output, result redacted")

	return CommandResult{
		ExitCode: ExitRedacted,
		Stdout:   secrets.RedactionMarker,
		Stderr:   secrets.RedactionMarker,
		TimedOut: result.TimedOut,
	}
}

func truncate(s string, maxBytes int64) string {
	if int64(len(s)) <= maxBytes {
		return s
	}
	return s[:maxBytes] + "\n[OUTPUT TRUNCATED]"
}

// DescribeIsolation returns a human-readable summary of the isolation
// flags, used by the CLI validate command.
func (r *DockerRunner) DescribeIsolation() string {
	return strings.Join([]string{
		"network: none",
		"root filesystem: read-only",
		"user: " + r.config.User,
		"image: " + r.config.Image,
	}, "\n")
}
