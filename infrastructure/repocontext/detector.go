// Package repocontext builds the execution context for a run: it detects
// the repository's primary language and produces a plain-text index of the
// tree for the planning oracle.
package repocontext

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kitadev/agent-core/infrastructure/logging"
)

// Supported language tiers. Runs against repositories outside these sets
// stop safely instead of guessing.
var (
	primarySupported   = map[string]struct{}{"python": {}}
	secondarySupported = map[string]struct{}{"javascript": {}, "typescript": {}}
)

var extensionMap = map[string]string{
	".py":    "python",
	".pyw":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".go":    "go",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".sh":    "shell",
	".bash":  "shell",
}

// indicatorFiles map package-manager and build files to the language they
// imply. Indicators outrank raw extension counts.
var indicatorFiles = map[string]string{
	"requirements.txt": "python",
	"pyproject.toml":   "python",
	"setup.py":         "python",
	"Pipfile":          "python",
	"package.json":     "javascript",
	"tsconfig.json":    "typescript",
	"pom.xml":          "java",
	"build.gradle":     "java",
	"Cargo.toml":       "rust",
	"go.mod":           "go",
	"Gemfile":          "ruby",
	"composer.json":    "php",
}

var detectorIgnoreDirs = map[string]struct{}{
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
	"venv":         {},
	"env":          {},
	".venv":        {},
	".env":         {},
	"dist":         {},
	"build":        {},
	"vendor":       {},
}

// DetectionResult reports what the detector concluded about a repository.
type DetectionResult struct {
	PrimaryLanguage string         `json:"primary_language"`
	Confidence      float64        `json:"confidence"`
	Supported       bool           `json:"supported"`
	FileCounts      map[string]int `json:"file_counts"`
	Reason          string         `json:"reason"`
}

// ExecutionProfile describes how to run and test code for a language.
type ExecutionProfile struct {
	Runtime        string   `json:"runtime"`
	TestCommands   []string `json:"test_commands"`
	LintCommands   []string `json:"lint_commands"`
	PackageManager string   `json:"package_manager"`
}

var executionProfiles = map[string]ExecutionProfile{
	"python": {
		Runtime:        "python3",
		TestCommands:   []string{"pytest", "python -m unittest"},
		LintCommands:   []string{"pylint", "flake8", "mypy"},
		PackageManager: "pip",
	},
	"javascript": {
		Runtime:        "node",
		TestCommands:   []string{"npm test", "yarn test", "pnpm test"},
		LintCommands:   []string{"eslint"},
		PackageManager: "npm",
	},
	"typescript": {
		Runtime:        "node",
		TestCommands:   []string{"npm test", "yarn test", "pnpm test"},
		LintCommands:   []string{"eslint", "tsc --noEmit"},
		PackageManager: "npm",
	},
}

// Detector determines the primary language of a repository.
type Detector struct{}

// NewDetector creates a language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect walks the repository and classifies its primary language.
// Indicator files win over extension counts; extension counts derive a
// confidence from their share of recognized files.
func (d *Detector) Detect(repoPath string) (DetectionResult, error) {
	fileCounts := make(map[string]int)
	indicatorCounts := make(map[string]int)

	err := filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if path == repoPath {
				return nil
			}
			if _, skip := detectorIgnoreDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if lang, ok := indicatorFiles[name]; ok {
			indicatorCounts[lang]++
		}
		if lang, ok := extensionMap[filepath.Ext(name)]; ok {
			fileCounts[lang]++
		}
		return nil
	})
	if err != nil {
		return DetectionResult{}, fmt.Errorf("walking repository %s: %w", repoPath, err)
	}

	result := classify(fileCounts, indicatorCounts)

	logging.Info().
		Add(logging.Str("language", result.PrimaryLanguage)).
		Add(logging.Str("reason", result.Reason)).
		Msg("language detection complete")

	return result, nil
}

func classify(fileCounts, indicatorCounts map[string]int) DetectionResult {
	var primary string
	var confidence float64

	switch {
	case len(indicatorCounts) > 0:
		primary = mostCommon(indicatorCounts)
		confidence = 0.9
	case len(fileCounts) > 0:
		primary = mostCommon(fileCounts)
		total := 0
		for _, n := range fileCounts {
			total += n
		}
		confidence = float64(fileCounts[primary]) / float64(total)
	}

	supported := IsSupported(primary)

	var reason string
	switch {
	case primary == "":
		reason = "could not determine primary language: no recognizable source files found"
	case supported:
		reason = fmt.Sprintf("primary language %q is supported", primary)
	default:
		reason = fmt.Sprintf("primary language %q is not supported; supported: %s", primary, strings.Join(SupportedLanguages(), ", "))
	}

	return DetectionResult{
		PrimaryLanguage: primary,
		Confidence:      confidence,
		Supported:       supported,
		FileCounts:      fileCounts,
		Reason:          reason,
	}
}

// mostCommon returns the key with the highest count, breaking ties by
// lexicographic order so detection is deterministic.
func mostCommon(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	bestCount := -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}

// IsSupported reports whether the language is in a supported tier.
func IsSupported(language string) bool {
	if _, ok := primarySupported[language]; ok {
		return true
	}
	_, ok := secondarySupported[language]
	return ok
}

// SupportedLanguages returns all supported languages in sorted order.
func SupportedLanguages() []string {
	var out []string
	for lang := range primarySupported {
		out = append(out, lang)
	}
	for lang := range secondarySupported {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// ProfileFor returns the execution profile for a supported language.
func ProfileFor(language string) (ExecutionProfile, bool) {
	p, ok := executionProfiles[language]
	return p, ok
}

// statRepo verifies the path exists and is a directory.
func statRepo(repoPath string) error {
	info, err := os.Stat(repoPath)
	if err != nil {
		return fmt.Errorf("repository path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repository path %s is not a directory", repoPath)
	}
	return nil
}
