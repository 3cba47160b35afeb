// Package config provides YAML configuration for the agent runtime.
package config

import (
	"errors"
	"fmt"

	"github.com/kitadev/agent-core/domain/policy"
)

// Config errors.
var (
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidFormat    = errors.New("invalid config format")
	ErrValidationFailed = errors.New("config validation failed")
	ErrMissingEnvVar    = errors.New("referenced environment variable not set")
)

// Config is the full runtime configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Limits   LimitsConfig   `yaml:"limits"`
	Agent    AgentConfig    `yaml:"agent"`
	Security SecurityConfig `yaml:"security"`
	Audit    AuditConfig    `yaml:"audit"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures the trace exporter.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

// SandboxConfig configures the Docker sandbox.
type SandboxConfig struct {
	Image         string `yaml:"image"`
	User          string `yaml:"user"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// LimitsConfig configures per-step resource limits. Values are validated
// against the hard ceilings at load time.
type LimitsConfig struct {
	CPUSeconds     int   `yaml:"cpu_seconds"`
	TimeoutSeconds int   `yaml:"timeout_seconds"`
	MemoryBytes    int64 `yaml:"memory_bytes"`
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// AgentConfig configures the run policy.
type AgentConfig struct {
	MaxRetries    int   `yaml:"max_retries"`
	RetrySameStep *bool `yaml:"retry_same_step"`
}

// SecurityConfig narrows the command allowlist. The allowlist is closed:
// configuration may only remove entries, never add them.
type SecurityConfig struct {
	RemovedCommands []string `yaml:"removed_commands"`
}

// AuditConfig configures the audit sink.
type AuditConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	limits := policy.DefaultLimits()
	retrySame := true
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Tracing: TracingConfig{Exporter: "noop", ServiceName: "agent-core"},
		Sandbox: SandboxConfig{Image: "kita-sandbox:latest", User: "sandbox_user", MaxConcurrent: 4},
		Limits: LimitsConfig{
			CPUSeconds:     limits.CPUSeconds,
			TimeoutSeconds: limits.TimeoutSeconds,
			MemoryBytes:    limits.MemoryBytes,
			MaxOutputBytes: limits.MaxOutputBytes,
		},
		Agent:    AgentConfig{MaxRetries: 3, RetrySameStep: &retrySame},
		Security: SecurityConfig{},
		Audit:    AuditConfig{InMemory: true},
	}
}

// ResourceLimits converts the limits section into the validated domain
// value.
func (c Config) ResourceLimits() (policy.ResourceLimits, error) {
	return policy.NewResourceLimits(
		c.Limits.CPUSeconds,
		c.Limits.TimeoutSeconds,
		c.Limits.MemoryBytes,
		c.Limits.MaxOutputBytes,
	)
}

// RetrySameStep resolves the retry policy, defaulting to true.
func (c Config) RetrySameStep() bool {
	if c.Agent.RetrySameStep == nil {
		return true
	}
	return *c.Agent.RetrySameStep
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if _, err := c.ResourceLimits(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if c.Agent.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrValidationFailed)
	}
	if c.Sandbox.MaxConcurrent < 0 {
		return fmt.Errorf("%w: sandbox max_concurrent must not be negative", ErrValidationFailed)
	}
	switch c.Tracing.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("%w: unknown tracing exporter %q", ErrValidationFailed, c.Tracing.Exporter)
	}
	return nil
}
