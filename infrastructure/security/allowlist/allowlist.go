// Package allowlist enforces the closed command allowlist for sandboxed
// execution. Only commands whose executable appears in the allowlist may
// run; everything else is rejected, including shell chaining.
package allowlist

import "strings"

// defaultAllowed is the minimal set of executables permitted in the sandbox.
var defaultAllowed = []string{
	// Python
	"python", "python3", "pip", "pytest", "pylint",

	// Node/JS
	"node", "npm", "yarn", "pnpm", "eslint",

	// Basic utilities
	"ls", "dir", "cat", "echo", "grep", "find", "wc", "head", "tail", "pwd",
	"mkdir", "rm", "cp", "mv", "touch", "chmod", "date",
}

// defaultForbidden lists tokens rejected anywhere on the command line,
// not just in executable position.
var defaultForbidden = []string{
	// Network
	"curl", "wget", "scp", "ssh", "ftp", "telnet", "nc", "ncat",
	// Privilege
	"sudo", "su",
	// System packages
	"apt", "apt-get", "yum", "apk", "dnf",
	// Orchestration
	"docker", "podman", "kubectl",
	// System control
	"reboot", "shutdown", "init",
}

// metacharacters that enable shell chaining or substitution. Commands
// containing any of these are rejected outright.
var metacharacters = []string{";", "&&", "||", "|", "`", "$("}

// Guard answers whether a command line may be handed to the sandbox.
// It is immutable after construction and safe for concurrent use.
type Guard struct {
	allowed   map[string]struct{}
	forbidden map[string]struct{}
}

// Option customizes a Guard at construction time.
type Option func(*Guard)

// WithAllowed replaces the default allowlist.
func WithAllowed(commands ...string) Option {
	return func(g *Guard) {
		g.allowed = toSet(commands)
	}
}

// WithRemoved drops commands from the allowed set. The allowlist is
// closed: configuration can only narrow it, so there is no option that
// adds entries.
func WithRemoved(commands ...string) Option {
	return func(g *Guard) {
		for _, c := range commands {
			delete(g.allowed, c)
		}
	}
}

// WithForbidden replaces the default forbidden token set.
func WithForbidden(tokens ...string) Option {
	return func(g *Guard) {
		g.forbidden = toSet(tokens)
	}
}

// NewGuard creates a guard with the default allowlist and forbidden set,
// modified by any options.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		allowed:   toSet(defaultAllowed),
		forbidden: toSet(defaultForbidden),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsCommandAllowed reports whether the command line passes the allowlist.
// The first whitespace-separated token must be an allowed executable, no
// token may be forbidden, and no shell metacharacter may appear anywhere.
func (g *Guard) IsCommandAllowed(commandLine string) bool {
	trimmed := strings.TrimSpace(commandLine)
	if trimmed == "" {
		return false
	}

	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return false
	}

	if _, ok := g.allowed[parts[0]]; !ok {
		return false
	}

	for _, token := range parts {
		if _, ok := g.forbidden[token]; ok {
			return false
		}
	}

	for _, meta := range metacharacters {
		if strings.Contains(commandLine, meta) {
			return false
		}
	}

	return true
}

// Allowed returns a copy of the allowed executable set.
func (g *Guard) Allowed() []string {
	return fromSet(g.allowed)
}

// Forbidden returns a copy of the forbidden token set.
func (g *Guard) Forbidden() []string {
	return fromSet(g.forbidden)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
