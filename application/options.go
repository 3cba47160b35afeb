package application

import (
	"context"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
	"github.com/kitadev/agent-core/domain/run"
	"github.com/kitadev/agent-core/infrastructure/planner"
	"github.com/kitadev/agent-core/infrastructure/repocontext"
	"github.com/kitadev/agent-core/infrastructure/sandbox"
)

type options struct {
	runID         string
	planner       planner.Planner
	runner        sandbox.Runner
	limits        policy.ResourceLimits
	maxRetries    int
	retrySameStep bool
	sink          run.Sink
	verifier      Verifier
}

func defaultOptions() options {
	return options{
		planner:       planner.NewScriptedPlanner(),
		runner:        sandbox.NewDockerRunner(sandbox.DefaultConfig()),
		limits:        policy.DefaultLimits(),
		maxRetries:    DefaultMaxRetries,
		retrySameStep: true,
		verifier:      passVerifier,
	}
}

// passVerifier accepts the run as verified. Final verification is an
// external concern unless a verifier is injected.
func passVerifier(context.Context, repocontext.Context, agent.Plan, *agent.History) (bool, string) {
	return true, "verification delegated to external tooling"
}

// Option configures a Controller.
type Option func(*options)

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithPlanner sets the planning oracle.
func WithPlanner(p planner.Planner) Option {
	return func(o *options) {
		o.planner = p
	}
}

// WithRunner sets the sandbox runner.
func WithRunner(r sandbox.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLimits sets the per-step resource limits.
func WithLimits(l policy.ResourceLimits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithMaxRetries bounds cumulative step failures for the run.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithRetrySameStep chooses whether a retry re-runs the failed step
// (true, the default) or advances to the next one.
func WithRetrySameStep(same bool) Option {
	return func(o *options) {
		o.retrySameStep = same
	}
}

// WithSink sets the audit sink that receives the terminal run record.
func WithSink(s run.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithVerifier sets the final verification hook.
func WithVerifier(v Verifier) Option {
	return func(o *options) {
		o.verifier = v
	}
}
