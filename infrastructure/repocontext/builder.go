package repocontext

import (
	"fmt"
	"path/filepath"
)

// Context is the assembled execution context handed to the planner.
type Context struct {
	RepoPath  string           `json:"repo_path"`
	Detection DetectionResult  `json:"detection"`
	Profile   ExecutionProfile `json:"profile"`
	Index     string           `json:"index"`
}

// Builder assembles a Context from a repository path.
type Builder struct {
	detector *Detector
	indexer  *Indexer
}

// NewBuilder creates a context builder.
func NewBuilder() *Builder {
	return &Builder{
		detector: NewDetector(),
		indexer:  NewIndexer(),
	}
}

// Build canonicalizes the repository path, detects its language, and
// indexes the tree. An unsupported language is not an error here; the
// caller inspects Detection.Supported and stops safely.
func (b *Builder) Build(repoPath string) (Context, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return Context{}, fmt.Errorf("resolving repository path: %w", err)
	}
	if err := statRepo(abs); err != nil {
		return Context{}, err
	}

	detection, err := b.detector.Detect(abs)
	if err != nil {
		return Context{}, err
	}

	index, err := b.indexer.Index(abs)
	if err != nil {
		return Context{}, err
	}

	profile, _ := ProfileFor(detection.PrimaryLanguage)

	return Context{
		RepoPath:  abs,
		Detection: detection,
		Profile:   profile,
		Index:     index,
	}, nil
}

// Preflight re-verifies the repository is reachable before execution
// begins. The repository can disappear between normalization and the
// first step.
func (b *Builder) Preflight(repoPath string) error {
	return statRepo(repoPath)
}
