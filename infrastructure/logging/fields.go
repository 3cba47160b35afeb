package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/kitadev/agent-core/domain/agent"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// State adds a state field.
func State(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", string(s))
	}
}

// FromState adds a from_state field for transitions.
func FromState(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", string(s))
	}
}

// ToState adds a to_state field for transitions.
func ToState(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_state", string(s))
	}
}

// StepID adds a plan step ID field.
func StepID(id int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step_id", id)
	}
}

// Action adds an action kind field.
func Action(kind agent.ActionKind) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action", string(kind))
	}
}

// Command adds a command field.
func Command(cmd string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("command", cmd)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Task adds a task field.
func Task(task string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("task", task)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ExitCode adds an exit code field.
func ExitCode(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("exit_code", code)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Confidence adds a confidence score field.
func Confidence(score float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("confidence", score)
	}
}

// Str adds a string field with a custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
