// Package application orchestrates the run lifecycle: validation,
// planning, sandboxed execution, reflection, and the terminal outcome.
package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/ledger"
	"github.com/kitadev/agent-core/domain/run"
	"github.com/kitadev/agent-core/infrastructure/logging"
	"github.com/kitadev/agent-core/infrastructure/observability"
	"github.com/kitadev/agent-core/infrastructure/planner"
	"github.com/kitadev/agent-core/infrastructure/repocontext"
	"github.com/kitadev/agent-core/infrastructure/security/guardrails"
	"github.com/kitadev/agent-core/infrastructure/statemachine"
)

// Verifier runs the final verification phase. It reports whether the
// verification passed and a human-readable detail.
type Verifier func(ctx context.Context, repo repocontext.Context, plan agent.Plan, history *agent.History) (bool, string)

// Controller drives one run for a (task, repository) pair from Idle to a
// terminal state. A Controller is single-use: it exclusively owns its
// state machine, plan, history, and reflection engine, and is never
// shared across runs.
type Controller struct {
	runID    string
	task     string
	repoPath string

	interp  *statemachine.Interpreter
	ledger  *ledger.Ledger
	history *agent.History

	planner       planner.Planner
	executor      *StepExecutor
	reflection    *ReflectionEngine
	confidence    *ConfidenceEvaluator
	taskValidator *guardrails.TaskValidator
	planValidator *guardrails.PlanValidator
	builder       *repocontext.Builder
	verify        Verifier
	sink          run.Sink

	retrySameStep bool

	plan agent.Plan
	repo repocontext.Context
	done bool
}

// NewController creates a controller for one run.
func NewController(task, repoPath string, opts ...Option) (*Controller, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	led := ledger.New(runID)
	interp, err := statemachine.NewInterpreter(statemachine.NewContext(runID, led))
	if err != nil {
		return nil, err
	}

	return &Controller{
		runID:         runID,
		task:          task,
		repoPath:      repoPath,
		interp:        interp,
		ledger:        led,
		history:       &agent.History{},
		planner:       cfg.planner,
		executor:      NewStepExecutor(cfg.runner, cfg.limits),
		reflection:    NewReflectionEngine(cfg.maxRetries),
		confidence:    NewConfidenceEvaluator(),
		taskValidator: guardrails.NewTaskValidator(),
		planValidator: guardrails.NewPlanValidator(),
		builder:       repocontext.NewBuilder(),
		verify:        cfg.verifier,
		sink:          cfg.sink,
		retrySameStep: cfg.retrySameStep,
	}, nil
}

// RunID returns the identifier of this run.
func (c *Controller) RunID() string {
	return c.runID
}

// Run executes the task. It always returns a terminal state: any
// transition violation or panic inside the lifecycle is converted into a
// forced StoppedError at this boundary.
func (c *Controller) Run(ctx context.Context) agent.State {
	if c.done {
		return c.interp.State()
	}
	c.done = true

	ctx, span := observability.StartSpan(ctx, "agent.run",
		attribute.String("run_id", c.runID),
		attribute.String("task", c.task),
	)
	defer span.End()

	c.interp.Start()

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.interp.ForceErrorStop(fmt.Sprintf("unhandled panic: %v", r))
			}
		}()
		if err := c.lifecycle(ctx); err != nil {
			c.interp.ForceErrorStop(err.Error())
		}
	}()

	// The lifecycle must not leave the run dangling in a transient state.
	if !c.interp.State().IsTerminal() {
		c.interp.ForceErrorStop("run ended outside a terminal state")
	}

	final := c.interp.State()
	span.SetAttributes(attribute.String("final_state", final.String()))

	c.publish(ctx, final)
	c.report(final)

	return final
}

// lifecycle is the single-threaded run sequence. It returns nil when the
// run reached a terminal state legitimately; a non-nil error means an
// illegal transition or internal fault that Run converts to a forced stop.
func (c *Controller) lifecycle(ctx context.Context) error {
	if err := c.interp.Transition(agent.StateReceivedTask, "task received"); err != nil {
		return err
	}

	// Task guardrail. Blockers are a soft rejection, not an error.
	validation := c.taskValidator.ValidateTask(c.task)
	if !validation.Passed {
		if err := c.interp.Transition(agent.StateNormalized, "task normalized with blockers"); err != nil {
			return err
		}
		return c.interp.Transition(agent.StateStoppedSafe,
			"task validation failed: "+strings.Join(validation.Blockers, "; "))
	}
	if err := c.interp.Transition(agent.StateNormalized, "task normalized"); err != nil {
		return err
	}

	// Language detection and indexing happen as normalization work. A
	// repository the system cannot reason about is a hard boundary.
	repo, err := c.builder.Build(c.repoPath)
	if err != nil {
		c.interp.ForceErrorStop("context failure: " + err.Error())
		return nil
	}
	if !repo.Detection.Supported {
		c.interp.ForceErrorStop("unsupported language: " + repo.Detection.Reason)
		return nil
	}
	c.repo = repo

	// Planning. Any oracle failure is a safe, user-correctable stop.
	if err := c.interp.Transition(agent.StatePlanning, "invoking planning oracle"); err != nil {
		return err
	}
	plan, planErr := c.planner.GeneratePlan(ctx, c.task, repo.Index)
	if planErr != nil {
		return c.interp.Transition(agent.StateStoppedSafe, "planning failure: "+planErr.Error())
	}
	planValidation := c.planValidator.ValidatePlan(plan)
	if !planValidation.Passed {
		return c.interp.Transition(agent.StateStoppedSafe,
			"plan validation failed: "+strings.Join(planValidation.Blockers, "; "))
	}
	c.plan = plan
	if err := c.interp.Transition(agent.StatePlanValidated, "plan generated and validated"); err != nil {
		return err
	}

	// Execution preflight. The repository can vanish between indexing
	// and the first step; that is an error stop, not a safe stop.
	if err := c.interp.Transition(agent.StateContextBuilding, "preparing execution context"); err != nil {
		return err
	}
	if err := c.builder.Preflight(repo.RepoPath); err != nil {
		return c.interp.Transition(agent.StateStoppedError, "execution preflight failed: "+err.Error())
	}
	if err := c.interp.Transition(agent.StateContextReady, "execution context ready"); err != nil {
		return err
	}

	if err := c.executePlan(ctx); err != nil {
		return err
	}
	if c.interp.State().IsTerminal() {
		return nil
	}

	return c.finalVerification(ctx)
}

// executePlan iterates the plan steps. The machine stays in ExecutingStep
// across successful steps; only the phase boundary and the failure loop
// touch the transition table.
func (c *Controller) executePlan(ctx context.Context) error {
	if err := c.interp.Transition(agent.StateExecutingStep, "starting execution loop"); err != nil {
		return err
	}

	i := 0
	for i < len(c.plan.Steps) {
		step := c.plan.Steps[i]

		stepCtx, span := observability.StartSpan(ctx, "agent.step",
			attribute.Int("step_id", step.ID),
			attribute.String("action", string(step.Action)),
		)
		result := c.executor.Execute(stepCtx, step, c.repo.RepoPath)
		span.SetAttributes(attribute.Bool("success", result.Success))
		span.End()

		c.history.Append(result)
		c.ledger.RecordStep(step.ID, result)

		if result.Success {
			i++
			continue
		}

		if err := c.interp.Transition(agent.StateTestsFailed,
			fmt.Sprintf("step %d failed: %s", step.ID, result.Error)); err != nil {
			return err
		}
		if err := c.interp.Transition(agent.StateReflecting, "analyzing failure"); err != nil {
			return err
		}

		decision := c.reflection.Reflect(result)
		if decision.Decision != DecisionRetry {
			return c.interp.Transition(agent.StateStoppedSafe, decision.Reason)
		}

		if err := c.interp.Transition(agent.StateRetrying, decision.Reason); err != nil {
			return err
		}
		if err := c.interp.Transition(agent.StateExecutingStep, "retrying execution"); err != nil {
			return err
		}
		if !c.retrySameStep {
			i++
		}
	}

	return c.interp.Transition(agent.StateStepCompleted, "all steps executed")
}

func (c *Controller) finalVerification(ctx context.Context) error {
	if err := c.interp.Transition(agent.StateTesting, "running final verification"); err != nil {
		return err
	}

	passed, detail := c.verify(ctx, c.repo, c.plan, c.history)
	if passed {
		if err := c.interp.Transition(agent.StateTestsPassed, "all tests passed"); err != nil {
			return err
		}
		return c.interp.Transition(agent.StateCompleted, "task successfully finished")
	}

	if err := c.interp.Transition(agent.StateTestsFailed, "verification failed: "+detail); err != nil {
		return err
	}
	if err := c.interp.Transition(agent.StateReflecting, "analyzing test failure"); err != nil {
		return err
	}
	return c.interp.Transition(agent.StateStoppedSafe, "tests failed after execution")
}

// publish hands the terminal record to the audit sink. Sink failures are
// logged, never fatal: the run outcome stands regardless.
func (c *Controller) publish(ctx context.Context, final agent.State) {
	if c.sink == nil {
		return
	}

	rec := run.Record{
		RunID:       c.runID,
		Task:        c.task,
		RepoPath:    c.repoPath,
		FinalState:  final,
		Confidence:  c.confidence.Evaluate(c.history.Results()),
		Transitions: c.ledger.Transitions(),
		Steps:       c.ledger.Steps(),
	}
	if err := c.sink.Publish(ctx, rec); err != nil {
		logging.Error().
			Add(logging.RunID(c.runID)).
			Add(logging.ErrorField(err)).
			Msg("audit sink publish failed")
	}
}

func (c *Controller) report(final agent.State) {
	event := logging.Info()
	if agent.TerminalOutcome(final) == agent.OutcomeFault {
		event = logging.Error()
	}
	event.
		Add(logging.RunID(c.runID)).
		Add(logging.State(final)).
		Add(logging.Str("outcome", string(agent.TerminalOutcome(final)))).
		Add(logging.Confidence(c.confidence.Evaluate(c.history.Results()))).
		Msg("run finished")
}

// Report summarizes a finished run for external consumers.
type Report struct {
	RunID       string                    `json:"run_id"`
	Task        string                    `json:"task"`
	RepoPath    string                    `json:"repo_path"`
	FinalState  agent.State               `json:"final_state"`
	Outcome     agent.Outcome             `json:"outcome"`
	Confidence  float64                   `json:"confidence"`
	Retries     int                       `json:"retries"`
	Transitions []ledger.TransitionRecord `json:"transitions"`
	History     []agent.ExecutionResult   `json:"history"`
}

// Report returns the run summary. Meaningful once Run has returned.
func (c *Controller) Report() Report {
	final := c.interp.State()
	return Report{
		RunID:       c.runID,
		Task:        c.task,
		RepoPath:    c.repoPath,
		FinalState:  final,
		Outcome:     agent.TerminalOutcome(final),
		Confidence:  c.confidence.Evaluate(c.history.Results()),
		Retries:     c.reflection.Retries(),
		Transitions: c.ledger.Transitions(),
		History:     c.history.Results(),
	}
}
