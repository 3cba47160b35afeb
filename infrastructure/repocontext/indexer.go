package repocontext

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Indexing caps. Files above maxIndexedFileSize get no content; content
// above maxContentChars is truncated.
const (
	maxIndexedFileSize = 20000
	maxContentChars    = 1000
)

var indexerIgnoreDirs = map[string]struct{}{
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
	"venv":         {},
	"env":          {},
	".venv":        {},
	".env":         {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
}

// Indexer produces a plain-text summary of a repository tree for the
// planning oracle.
type Indexer struct{}

// NewIndexer creates a repository indexer.
func NewIndexer() *Indexer {
	return &Indexer{}
}

// Index walks the repository and returns file paths with truncated
// content. Hidden files, compiled artifacts, and ignored directories are
// skipped. If the repository is a git working tree, HEAD metadata is
// prepended.
func (i *Indexer) Index(repoPath string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository Root: %s\n", repoPath)
	if head := describeHead(repoPath); head != "" {
		fmt.Fprintf(&b, "%s\n", head)
	}
	b.WriteString("Files:\n")

	err := filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path == repoPath {
				return nil
			}
			name := entry.Name()
			if _, skip := indexerIgnoreDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".pyc") {
			return nil
		}

		rel, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			rel = path
		}
		fmt.Fprintf(&b, "\n[FILE: %s]\n", rel)

		info, statErr := entry.Info()
		if statErr != nil {
			fmt.Fprintf(&b, "[Error reading file: %v]\n", statErr)
			return nil
		}
		if info.Size() >= maxIndexedFileSize {
			b.WriteString("[File too large, skipped content]\n")
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			fmt.Fprintf(&b, "[Error reading file: %v]\n", readErr)
			return nil
		}
		text := string(content)
		if len(text) > maxContentChars {
			text = text[:maxContentChars] + "\n...[TRUNCATED]"
		}
		b.WriteString(text)
		b.WriteString("\n")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("indexing repository %s: %w", repoPath, err)
	}

	return b.String(), nil
}

// describeHead returns a one-line git HEAD summary, or empty when the
// path is not a git repository.
func describeHead(repoPath string) string {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}

	ref := head.Name().Short()
	if head.Name().IsBranch() {
		return fmt.Sprintf("Git: branch %s at %s", ref, head.Hash().String()[:8])
	}
	return fmt.Sprintf("Git: detached HEAD at %s", head.Hash().String()[:8])
}
