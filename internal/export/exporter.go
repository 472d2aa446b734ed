package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/contractdiff/internal/diff"
	"github.com/nao1215/contractdiff/internal/review"
)

// IndexFileName is the name of the Markdown index in the export directory.
const IndexFileName = "INDEX.md"

// collisionSuffix is appended to a file name already present in the
// export directory.
const collisionSuffix = "_0"

// ErrSelectionNotFound is returned when the selection file does not exist.
var ErrSelectionNotFound = errors.New("selection file not found (run the review first)")

// Entry is one exported diff.
type Entry struct {
	// Source is the path listed in the selection file.
	Source string

	// Dest is the path of the copy.
	Dest string

	// Reference is the directory name the diff was found in.
	Reference string

	// Candidate is the diff file name.
	Candidate string

	// Added is the number of added lines in the diff.
	Added int

	// Removed is the number of removed lines in the diff.
	Removed int
}

// Result describes an export run.
type Result struct {
	// Entries are the diffs copied, in selection order.
	Entries []Entry

	// Missing are selected paths that could not be read.
	Missing []string

	// IndexPath is the path of the written index.
	IndexPath string
}

// Exporter copies selected diffs.
type Exporter struct {
	selectionPath string
	exportDir     string
	logger        *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New creates an Exporter reading selectionPath and writing to exportDir.
func New(selectionPath, exportDir string, opts ...Option) *Exporter {
	e := &Exporter{
		selectionPath: selectionPath,
		exportDir:     exportDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run copies every selected diff and writes the index.
//
// Selected files that no longer exist are skipped with a warning. A path
// listed more than once is copied once.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	f, err := os.Open(e.selectionPath)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: %s", ErrSelectionNotFound, e.selectionPath)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to open selection file: %w", err)
	}
	paths, err := review.ReadSelection(f)
	_ = f.Close()
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(e.exportDir, 0o750); err != nil {
		return Result{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	var res Result
	done := make(map[string]bool, len(paths))
	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if done[src] {
			e.logger.Debug("diff listed twice, already exported", "path", src)
			continue
		}
		done[src] = true

		entry, err := e.copyDiff(src)
		if err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) && pathErr.Path == src {
				e.logger.Warn("skipping selected diff", "path", src, "error", err)
				res.Missing = append(res.Missing, src)
				continue
			}
			return res, err
		}
		res.Entries = append(res.Entries, entry)
	}

	res.IndexPath = filepath.Join(e.exportDir, IndexFileName)
	if err := writeIndex(res.IndexPath, res); err != nil {
		return res, err
	}
	return res, nil
}

// copyDiff copies src into the export directory, keeping its mode and
// modification time. Errors reading src are returned as *os.PathError
// naming src.
func (e *Exporter) copyDiff(src string) (Entry, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Entry{}, err
	}
	content, err := os.ReadFile(src) //nolint:gosec // path comes from the selection file
	if err != nil {
		return Entry{}, err
	}

	dest, err := freeName(e.exportDir, filepath.Base(src))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to choose export name for %s: %w", src, err)
	}
	if err := os.WriteFile(dest, content, info.Mode().Perm()); err != nil {
		return Entry{}, fmt.Errorf("failed to export %s: %w", src, err)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		e.logger.Debug("failed to keep modification time", "path", dest, "error", err)
	}

	added, removed := diff.Stats(string(content))
	return Entry{
		Source:    src,
		Dest:      dest,
		Reference: filepath.Base(filepath.Dir(src)),
		Candidate: filepath.Base(src),
		Added:     added,
		Removed:   removed,
	}, nil
}

// freeName returns dir/name, with collisionSuffix appended until the path
// does not exist.
func freeName(dir, name string) (string, error) {
	dest := filepath.Join(dir, name)
	for {
		_, err := os.Lstat(dest)
		if errors.Is(err, os.ErrNotExist) {
			return dest, nil
		}
		if err != nil {
			return "", err
		}
		dest += collisionSuffix
	}
}

// writeIndex writes the Markdown index of an export.
func writeIndex(path string, res Result) error {
	f, err := os.Create(path) //nolint:gosec // path is inside the export directory
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1("Selected diffs")
	md.PlainText("")

	if len(res.Entries) == 0 {
		md.PlainText("No diffs exported.")
		md.PlainText("")
	} else {
		rows := make([][]string, 0, len(res.Entries))
		for _, en := range res.Entries {
			rows = append(rows, []string{
				"`" + en.Reference + "`",
				"`" + en.Candidate + "`",
				"+" + strconv.Itoa(en.Added),
				"-" + strconv.Itoa(en.Removed),
				"[" + filepath.Base(en.Dest) + "](" + filepath.ToSlash(filepath.Base(en.Dest)) + ")",
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Reference", "Candidate", "Added", "Removed", "File"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(res.Missing) > 0 {
		md.H2("Missing")
		md.PlainText("")
		md.BulletList(res.Missing...)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return f.Close()
}
