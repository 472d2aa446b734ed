package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/contractdiff/internal/diff"
	"github.com/nao1215/contractdiff/internal/model"
)

// File and directory permissions for the output tree.
const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Layout maps contracts to paths under Root.
type Layout struct {
	// Root is the diffs directory.
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// GroupDir returns the directory of a reference contract.
func (l Layout) GroupDir(ref model.Address) string {
	return filepath.Join(l.Root, ref.String())
}

// ReferencePath returns where the reference source is stored.
func (l Layout) ReferencePath(ref model.Address) string {
	return filepath.Join(l.Root, ref.String(), ref.String())
}

// DiffPath returns where the diff of cand against ref is stored.
func (l Layout) DiffPath(ref, cand model.Address) string {
	return filepath.Join(l.Root, ref.String(), cand.String())
}

// GroupResult describes what WriteGroup put on disk.
type GroupResult struct {
	// Diffs are the diff files written, in candidate order.
	Diffs []model.DiffRecord

	// Identical are the candidates whose source equals the reference.
	// No file is written for them.
	Identical []model.Address
}

// WriteGroup writes the reference source and the diff of every candidate.
//
// Existing files are overwritten. Candidates identical to the reference
// produce no file. Any filesystem error is returned immediately; the
// caller treats it as fatal since later groups would fail the same way.
func (l Layout) WriteGroup(g *model.ComparisonGroup, contextLines int, logger *slog.Logger) (GroupResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ref := g.Reference.Address
	dir := l.GroupDir(ref)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return GroupResult{}, fmt.Errorf("failed to create group directory %s: %w", dir, err)
	}

	refPath := l.ReferencePath(ref)
	if err := os.WriteFile(refPath, []byte(g.Reference.Source), filePerm); err != nil {
		return GroupResult{}, fmt.Errorf("failed to write reference source %s: %w", refPath, err)
	}

	var res GroupResult
	for _, cand := range g.Candidates {
		if cand.Address == ref {
			continue
		}

		unified := diff.Unified(g.Reference.Source, cand.Source, ref.String(), cand.Address.String(), contextLines)
		if unified == "" {
			logger.Info("candidate identical to reference, no diff written",
				"reference", ref,
				"candidate", cand.Address,
			)
			res.Identical = append(res.Identical, cand.Address)
			continue
		}

		path := l.DiffPath(ref, cand.Address)
		if err := os.WriteFile(path, []byte(unified), filePerm); err != nil {
			return res, fmt.Errorf("failed to write diff %s: %w", path, err)
		}
		res.Diffs = append(res.Diffs, model.DiffRecord{
			Reference: ref,
			Candidate: cand.Address,
			Path:      path,
			Size:      int64(len(unified)),
		})
	}
	return res, nil
}
