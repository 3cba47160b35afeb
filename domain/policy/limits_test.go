package policy

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultLimitsAreValid(t *testing.T) {
	if err := DefaultLimits().Validate(); err != nil {
		t.Errorf("DefaultLimits().Validate() = %v", err)
	}
	if err := HardCeilings().Validate(); err != nil {
		t.Errorf("HardCeilings().Validate() = %v, ceilings themselves must pass", err)
	}
}

func TestNewResourceLimits(t *testing.T) {
	tests := []struct {
		name    string
		cpu     int
		timeout int
		memory  int64
		output  int64
		wantErr error
	}{
		{
			name: "valid limits",
			cpu:  60, timeout: 300, memory: 1 << 30, output: 1 << 20,
		},
		{
			name: "zero cpu",
			cpu:  0, timeout: 300, memory: 1 << 30, output: 1 << 20,
			wantErr: ErrLimitInvalid,
		},
		{
			name: "negative timeout",
			cpu:  60, timeout: -1, memory: 1 << 30, output: 1 << 20,
			wantErr: ErrLimitInvalid,
		},
		{
			name: "cpu above ceiling",
			cpu:  CeilingCPUSeconds + 1, timeout: 300, memory: 1 << 30, output: 1 << 20,
			wantErr: ErrLimitExceedsCeiling,
		},
		{
			name: "timeout above ceiling",
			cpu:  60, timeout: CeilingTimeoutSeconds + 1, memory: 1 << 30, output: 1 << 20,
			wantErr: ErrLimitExceedsCeiling,
		},
		{
			name: "memory above ceiling",
			cpu:  60, timeout: 300, memory: CeilingMemoryBytes + 1, output: 1 << 20,
			wantErr: ErrLimitExceedsCeiling,
		},
		{
			name: "output above ceiling",
			cpu:  60, timeout: 300, memory: 1 << 30, output: CeilingMaxOutputBytes + 1,
			wantErr: ErrLimitExceedsCeiling,
		},
		{
			name: "at the ceiling exactly",
			cpu:  CeilingCPUSeconds, timeout: CeilingTimeoutSeconds,
			memory: CeilingMemoryBytes, output: CeilingMaxOutputBytes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResourceLimits(tt.cpu, tt.timeout, tt.memory, tt.output)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("NewResourceLimits() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewResourceLimits() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	l := ResourceLimits{TimeoutSeconds: 90}
	if got := l.Timeout(); got != 90*time.Second {
		t.Errorf("Timeout() = %v, want 90s", got)
	}
}
