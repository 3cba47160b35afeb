package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitadev/agent-core/infrastructure/sandbox"
	"github.com/kitadev/agent-core/infrastructure/security/allowlist"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath   string
	strict       bool
	checkCommand string
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file and show the effective safety envelope:
resource limits, sandbox isolation, and the command allowlist after any
configured removals.

Examples:
  # Validate a configuration file
  kita validate -c kita.yaml

  # Strict validation (fail on missing env vars)
  kita validate -c kita.yaml --strict

  # Check whether a command would pass the allowlist
  kita validate -c kita.yaml --check-command "python main.py"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().StringVar(&opts.checkCommand, "check-command", "", "Check a command against the effective allowlist")

	return cmd
}

// validateConfig validates the configuration file and prints the
// effective safety envelope.
func (a *App) validateConfig(opts *validateOptions) error {
	cfg, err := loadConfig(opts.configPath, opts.strict)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	limits, err := cfg.ResourceLimits()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	guard := allowlist.NewGuard(allowlist.WithRemoved(cfg.Security.RemovedCommands...))
	runner := sandbox.NewDockerRunner(sandbox.Config{
		Image:         cfg.Sandbox.Image,
		User:          cfg.Sandbox.User,
		MaxConcurrent: cfg.Sandbox.MaxConcurrent,
	}, sandbox.WithGuard(guard))

	fmt.Fprintf(a.stdout, "Configuration is valid\n")

	fmt.Fprintf(a.stdout, "\nResource limits:\n")
	fmt.Fprintf(a.stdout, "  CPU: %ds\n", limits.CPUSeconds)
	fmt.Fprintf(a.stdout, "  Wall clock: %ds\n", limits.TimeoutSeconds)
	fmt.Fprintf(a.stdout, "  Memory: %d bytes\n", limits.MemoryBytes)
	fmt.Fprintf(a.stdout, "  Max output: %d bytes\n", limits.MaxOutputBytes)

	fmt.Fprintf(a.stdout, "\nSandbox isolation:\n")
	fmt.Fprintf(a.stdout, "%s\n", indent(runner.DescribeIsolation(), "  "))

	allowed := guard.Allowed()
	sort.Strings(allowed)
	fmt.Fprintf(a.stdout, "\nAllowed commands (%d):\n", len(allowed))
	for _, c := range allowed {
		fmt.Fprintf(a.stdout, "  %s\n", c)
	}
	if len(cfg.Security.RemovedCommands) > 0 {
		fmt.Fprintf(a.stdout, "Removed by configuration: %v\n", cfg.Security.RemovedCommands)
	}

	fmt.Fprintf(a.stdout, "\nRetry policy: max %d, same-step=%v\n", cfg.Agent.MaxRetries, cfg.RetrySameStep())

	if opts.checkCommand != "" {
		verdict := "DENIED"
		if guard.IsCommandAllowed(opts.checkCommand) {
			verdict = "ALLOWED"
		}
		fmt.Fprintf(a.stdout, "\nCommand check: %q -> %s\n", opts.checkCommand, verdict)
	}

	return nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
