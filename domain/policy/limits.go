package policy

import (
	"fmt"
	"time"
)

// Hard ceilings for sandbox resource limits. These are absolute and may
// never be exceeded by configuration; a configured limit above any ceiling
// is a construction-time error, never silently clamped.
const (
	CeilingCPUSeconds     = 300
	CeilingTimeoutSeconds = 1200
	CeilingMemoryBytes    = 4 * 1024 * 1024 * 1024
	CeilingMaxOutputBytes = 50 * 1024 * 1024
)

// ResourceLimits bounds a single sandboxed command execution.
type ResourceLimits struct {
	// CPUSeconds is the CPU time quota.
	CPUSeconds int `json:"cpu_seconds" yaml:"cpu_seconds"`

	// TimeoutSeconds is the wall-clock timeout. On expiry the sandboxed
	// process is forcibly killed, not merely abandoned.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// MemoryBytes is the memory ceiling for the sandbox.
	MemoryBytes int64 `json:"memory_bytes" yaml:"memory_bytes"`

	// MaxOutputBytes caps captured stdout/stderr.
	MaxOutputBytes int64 `json:"max_output_bytes" yaml:"max_output_bytes"`
}

// DefaultLimits returns the standard per-step limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		CPUSeconds:     120,
		TimeoutSeconds: 600,
		MemoryBytes:    2 * 1024 * 1024 * 1024,
		MaxOutputBytes: 10 * 1024 * 1024,
	}
}

// HardCeilings returns the absolute ceilings as a ResourceLimits value.
func HardCeilings() ResourceLimits {
	return ResourceLimits{
		CPUSeconds:     CeilingCPUSeconds,
		TimeoutSeconds: CeilingTimeoutSeconds,
		MemoryBytes:    CeilingMemoryBytes,
		MaxOutputBytes: CeilingMaxOutputBytes,
	}
}

// NewResourceLimits validates the given limits against the hard ceilings
// and returns them. Construction is the only sanctioned way to obtain a
// ResourceLimits value from external configuration.
func NewResourceLimits(cpuSeconds, timeoutSeconds int, memoryBytes, maxOutputBytes int64) (ResourceLimits, error) {
	l := ResourceLimits{
		CPUSeconds:     cpuSeconds,
		TimeoutSeconds: timeoutSeconds,
		MemoryBytes:    memoryBytes,
		MaxOutputBytes: maxOutputBytes,
	}
	if err := l.Validate(); err != nil {
		return ResourceLimits{}, err
	}
	return l, nil
}

// Validate checks every limit independently against its hard ceiling.
func (l ResourceLimits) Validate() error {
	if l.CPUSeconds <= 0 || l.TimeoutSeconds <= 0 || l.MemoryBytes <= 0 || l.MaxOutputBytes <= 0 {
		return fmt.Errorf("%w: limits must be positive", ErrLimitInvalid)
	}
	if l.CPUSeconds > CeilingCPUSeconds {
		return fmt.Errorf("%w: cpu limit %ds exceeds ceiling %ds", ErrLimitExceedsCeiling, l.CPUSeconds, CeilingCPUSeconds)
	}
	if l.TimeoutSeconds > CeilingTimeoutSeconds {
		return fmt.Errorf("%w: timeout %ds exceeds ceiling %ds", ErrLimitExceedsCeiling, l.TimeoutSeconds, CeilingTimeoutSeconds)
	}
	if l.MemoryBytes > CeilingMemoryBytes {
		return fmt.Errorf("%w: memory limit %d bytes exceeds ceiling %d bytes", ErrLimitExceedsCeiling, l.MemoryBytes, CeilingMemoryBytes)
	}
	if l.MaxOutputBytes > CeilingMaxOutputBytes {
		return fmt.Errorf("%w: output limit %d bytes exceeds ceiling %d bytes", ErrLimitExceedsCeiling, l.MaxOutputBytes, CeilingMaxOutputBytes)
	}
	return nil
}

// Timeout returns the wall-clock timeout as a duration.
func (l ResourceLimits) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}
