package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitadev/agent-core/application"
	"github.com/kitadev/agent-core/domain/run"
	"github.com/kitadev/agent-core/infrastructure/config"
	"github.com/kitadev/agent-core/infrastructure/logging"
	"github.com/kitadev/agent-core/infrastructure/observability"
	"github.com/kitadev/agent-core/infrastructure/planner"
	"github.com/kitadev/agent-core/infrastructure/sandbox"
	"github.com/kitadev/agent-core/infrastructure/security/allowlist"
	badgersink "github.com/kitadev/agent-core/infrastructure/storage/badger"
	"github.com/kitadev/agent-core/infrastructure/storage/memory"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	repoPath   string
	planPath   string
	task       string
	maxRetries int
	jsonOutput bool
	verbose    bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task against a repository",
		Long: `Run a task against a repository through the full lifecycle: task
validation, planning, plan validation, sandboxed execution, and final
verification. The run always ends in a terminal state.

The planning oracle is external: --plan points to a file holding the
oracle's JSON response (optionally fenced in a markdown code block).

Examples:
  # Run a task with an oracle response on disk
  kita run --repo ./myproject --plan plan.json "Fix the bug in main.py"

  # Run with a configuration file and JSON output
  kita run -c kita.yaml --repo ./myproject --plan plan.json --json "Add input validation"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.task = args[0]
			return a.runTask(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.repoPath, "repo", ".", "Path to the target repository")
	cmd.Flags().StringVar(&opts.planPath, "plan", "", "Path to the planning oracle response (required)")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", 0, "Maximum cumulative step retries (overrides config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run report as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

// loadConfig loads the configuration file, or the defaults when no path
// is given.
func loadConfig(path string, strict bool) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	loader := config.NewLoaderWithOptions(config.WithStrictEnv(strict))
	return loader.LoadFile(path)
}

// newSink builds the audit sink from the configuration.
func newSink(cfg config.Config) (run.Sink, error) {
	if cfg.Audit.InMemory || cfg.Audit.Dir == "" {
		return memory.NewSink(), nil
	}
	return badgersink.NewSink(badgersink.Config{
		Dir:        cfg.Audit.Dir,
		SyncWrites: true,
	})
}

// runTask executes the run command.
func (a *App) runTask(ctx context.Context, opts *runOptions) error {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.maxRetries > 0 {
		cfg.Agent.MaxRetries = opts.maxRetries
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	provider, err := observability.New(observability.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		Exporter:       observability.Exporter(cfg.Tracing.Exporter),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	planData, err := os.ReadFile(opts.planPath)
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}
	plan, err := planner.ParsePlan(string(planData))
	if err != nil {
		return fmt.Errorf("failed to parse plan file: %w", err)
	}

	limits, err := cfg.ResourceLimits()
	if err != nil {
		return fmt.Errorf("invalid resource limits: %w", err)
	}

	guard := allowlist.NewGuard(allowlist.WithRemoved(cfg.Security.RemovedCommands...))
	runner := sandbox.NewDockerRunner(sandbox.Config{
		Image:         cfg.Sandbox.Image,
		User:          cfg.Sandbox.User,
		MaxConcurrent: cfg.Sandbox.MaxConcurrent,
	}, sandbox.WithGuard(guard))

	sink, err := newSink(cfg)
	if err != nil {
		return fmt.Errorf("failed to open audit sink: %w", err)
	}
	defer sink.Close()

	ctrl, err := application.NewController(opts.task, opts.repoPath,
		application.WithPlanner(planner.NewStaticPlanner(plan)),
		application.WithRunner(runner),
		application.WithLimits(limits),
		application.WithMaxRetries(cfg.Agent.MaxRetries),
		application.WithRetrySameStep(cfg.RetrySameStep()),
		application.WithSink(sink),
	)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(a.stdout, "Run ID: %s\n", ctrl.RunID())
		fmt.Fprintf(a.stdout, "Repository: %s\n", opts.repoPath)
		fmt.Fprintf(a.stdout, "Plan steps: %d\n", plan.Len())
		fmt.Fprintf(a.stdout, "\n")
	}

	startTime := time.Now()
	final := ctrl.Run(ctx)
	duration := time.Since(startTime)

	report := ctrl.Report()

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(a.stdout, "Run finished\n")
	fmt.Fprintf(a.stdout, "  Run ID: %s\n", report.RunID)
	fmt.Fprintf(a.stdout, "  State: %s\n", final)
	fmt.Fprintf(a.stdout, "  Outcome: %s\n", report.Outcome)
	fmt.Fprintf(a.stdout, "  Confidence: %.2f\n", report.Confidence)
	fmt.Fprintf(a.stdout, "  Retries: %d\n", report.Retries)
	fmt.Fprintf(a.stdout, "  Duration: %s\n", duration.Round(time.Millisecond))

	if opts.verbose && len(report.Transitions) > 0 {
		fmt.Fprintf(a.stdout, "\nTransitions:\n")
		for _, rec := range report.Transitions {
			fmt.Fprintf(a.stdout, "  -> %s (%s)\n", rec.Next, rec.Reason)
		}
	}

	return nil
}
