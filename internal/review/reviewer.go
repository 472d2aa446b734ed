package review

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/nao1215/contractdiff/internal/model"
)

// Result counts what a review session did.
type Result struct {
	// Total is the number of diffs found when the session started.
	Total int

	// Reviewed is the number of diffs a decision was made on.
	Reviewed int

	// Selected is the number of diffs appended to the selection file.
	Selected int

	// Unreadable is the number of diffs skipped because they could not be read.
	Unreadable int

	// Quit reports whether the operator ended the session early.
	Quit bool
}

// Reviewer runs a review session over a diffs tree.
type Reviewer struct {
	root      string
	filter    Filter
	decider   Decider
	selection *Selection
	logger    *slog.Logger

	// notices receives user-facing skip notices.
	notices io.Writer
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reviewer) {
		r.logger = logger
	}
}

// WithFilter restricts the session to diffs matching f.
func WithFilter(f Filter) Option {
	return func(r *Reviewer) {
		r.filter = f
	}
}

// WithNotices sets where skip notices for unreadable diffs are written.
func WithNotices(w io.Writer) Option {
	return func(r *Reviewer) {
		r.notices = w
	}
}

// New creates a Reviewer over root.
func New(root string, decider Decider, selection *Selection, opts ...Option) *Reviewer {
	r := &Reviewer{
		root:      root,
		decider:   decider,
		selection: selection,
		notices:   io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.notices == nil {
		r.notices = io.Discard
	}
	return r
}

// Run reviews every diff until the sequence ends or the Decider quits.
//
// Unreadable or malformed diffs are skipped with a warning. Errors from the
// Decider and failures to write the selection file end the session.
func (r *Reviewer) Run(ctx context.Context) (Result, error) {
	info, err := os.Stat(r.root)
	if err != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", ErrDiffDirNotFound, r.root)
	}

	res := Result{Total: Count(r.root, r.filter)}
	r.logger.Info("starting review", "root", r.root, "diffs", res.Total)

	index := 0
	for rec, err := range Enumerate(r.root, r.filter) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			r.skip(&res, rec.Path, err)
			continue
		}
		index++

		content, err := readDiff(rec.Path)
		if err != nil {
			r.skip(&res, rec.Path, err)
			continue
		}

		d, err := r.decider.Decide(ctx, Item{
			Record:  rec,
			Content: content,
			Index:   index,
			Total:   max(res.Total, index),
		})
		if err != nil {
			return res, err
		}

		switch d {
		case model.DecisionSelect:
			if err := r.selection.Append(rec.Path); err != nil {
				return res, err
			}
			res.Selected++
			res.Reviewed++
			r.logger.Debug("diff selected", "path", rec.Path)
		case model.DecisionQuit:
			res.Quit = true
			return res, nil
		default:
			res.Reviewed++
		}
	}
	return res, nil
}

// skip records an unreadable diff.
func (r *Reviewer) skip(res *Result, path string, err error) {
	res.Unreadable++
	r.logger.Warn("skipping unreadable diff", "path", path, "error", err)
	fmt.Fprintf(r.notices, "warning: skipping %s: %v\n", path, err) //nolint:errcheck // best effort notice
}

// readDiff loads a diff file and checks it is text.
func readDiff(path string) (string, error) {
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the diffs tree
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrMalformedDiff
	}
	return string(b), nil
}
