package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/contractdiff/internal/diff"
	"github.com/nao1215/contractdiff/internal/explorer"
	"github.com/nao1215/contractdiff/internal/model"
	"github.com/nao1215/contractdiff/internal/store"
)

// Summary counts what a crawl did.
type Summary struct {
	// References is the number of reference contracts processed.
	References int

	// Candidates is the number of candidate sources fetched.
	Candidates int

	// DiffsWritten is the number of diff files written.
	DiffsWritten int

	// Identical is the number of candidates identical to their reference.
	Identical int

	// Skipped is the number of references and candidates skipped because
	// of an explorer failure.
	Skipped int
}

// add merges o into s.
func (s *Summary) add(o Summary) {
	s.References += o.References
	s.Candidates += o.Candidates
	s.DiffsWritten += o.DiffsWritten
	s.Identical += o.Identical
	s.Skipped += o.Skipped
}

// Crawler runs the crawl stage.
type Crawler struct {
	// source answers explorer queries.
	source explorer.ContractSource

	// layout decides where results are written.
	layout store.Layout

	// contextLines is the number of context lines in diffs.
	contextLines int

	// start and end select the window [start, end) of the sorted verified
	// list to use as references. end <= 0 means the end of the list.
	start, end int

	// onlyVerified restricts candidates to the verified list.
	onlyVerified bool

	// concurrency is the number of references processed at once.
	concurrency int

	// progress receives one line per reference.
	progress io.Writer

	// logger is used for structured logging.
	logger *slog.Logger

	// progressMu serializes progress lines.
	progressMu sync.Mutex
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithContextLines sets the number of context lines in diffs.
func WithContextLines(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.contextLines = n
		}
	}
}

// WithRange restricts the references to the window [start, end) of the
// sorted verified list. end <= 0 means no upper bound.
func WithRange(start, end int) Option {
	return func(c *Crawler) {
		c.start = max(start, 0)
		c.end = end
	}
}

// WithOnlyVerified sets whether candidates must appear in the verified list.
func WithOnlyVerified(only bool) Option {
	return func(c *Crawler) {
		c.onlyVerified = only
	}
}

// WithConcurrency sets how many references are processed at once.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProgress sets where progress lines are written. nil disables them.
func WithProgress(w io.Writer) Option {
	return func(c *Crawler) {
		c.progress = w
	}
}

// New creates a Crawler reading from source and writing to layout.
func New(source explorer.ContractSource, layout store.Layout, opts ...Option) *Crawler {
	c := &Crawler{
		source:       source,
		layout:       layout,
		contextLines: diff.DefaultContext,
		onlyVerified: true,
		concurrency:  1,
		progress:     io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.progress == nil {
		c.progress = io.Discard
	}
	return c
}

// Run crawls the explorer and writes the diffs.
//
// The returned Summary is valid even when an error is returned; it covers
// the references finished before the failure.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	startTime := time.Now()

	verified, err := c.source.ListVerifiedContracts(ctx)
	if err != nil {
		return Summary{}, err
	}
	verified = model.UniqueAddresses(verified)
	model.SortAddresses(verified)

	refs := window(verified, c.start, c.end)
	c.logger.Info("starting crawl",
		"verified", len(verified),
		"references", len(refs),
		"concurrency", c.concurrency,
	)

	verifiedSet := make(map[model.Address]struct{}, len(verified))
	for _, a := range verified {
		verifiedSet[a] = struct{}{}
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	record := func(s Summary) {
		mu.Lock()
		summary.add(s)
		mu.Unlock()
	}

	if c.concurrency <= 1 {
		for i, ref := range refs {
			s, err := c.processReference(ctx, i, len(refs), ref, verifiedSet)
			record(s)
			if err != nil {
				return summary, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i, ref := range refs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := c.processReference(gctx, i, len(refs), ref, verifiedSet)
				record(s)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
	}

	c.logger.Info("crawl complete",
		"references", summary.References,
		"diffs", summary.DiffsWritten,
		"skipped", summary.Skipped,
		"elapsed", time.Since(startTime),
	)
	return summary, nil
}

// processReference handles one reference contract. Explorer failures are
// absorbed into the Summary; only cancellation and filesystem errors are
// returned.
func (c *Crawler) processReference(
	ctx context.Context,
	i, total int,
	ref model.Address,
	verified map[model.Address]struct{},
) (Summary, error) {
	var s Summary

	similar, err := c.source.ListSimilar(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		c.logWarnSkip("skipping reference: similar contracts unavailable", ref, err)
		c.printf("[%d/%d] %s: skipped (%v)\n", i+1, total, ref, err)
		s.Skipped++
		return s, nil
	}

	candidates := c.filterCandidates(ref, similar, verified)
	if len(candidates) == 0 {
		c.logger.Debug("no similar contracts", "reference", ref)
		c.printf("[%d/%d] %s: 0 diffs\n", i+1, total, ref)
		s.References++
		return s, nil
	}

	refSource, err := c.source.FetchSource(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		c.logWarnSkip("skipping reference", ref, err)
		c.printf("[%d/%d] %s: skipped (%v)\n", i+1, total, ref, err)
		s.Skipped++
		return s, nil
	}

	group := &model.ComparisonGroup{
		Reference: model.Contract{Address: ref, Source: refSource},
	}
	for _, cand := range candidates {
		src, err := c.source.FetchSource(ctx, cand)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			c.logWarnSkip("skipping candidate", cand, err, "reference", ref)
			s.Skipped++
			continue
		}
		group.Candidates = append(group.Candidates, model.Contract{Address: cand, Source: src})
		s.Candidates++
	}

	s.References++
	if len(group.Candidates) == 0 {
		c.printf("[%d/%d] %s: 0 diffs\n", i+1, total, ref)
		return s, nil
	}

	res, err := c.layout.WriteGroup(group, c.contextLines, c.logger)
	if err != nil {
		return s, err
	}
	s.DiffsWritten += len(res.Diffs)
	s.Identical += len(res.Identical)

	c.printf("[%d/%d] %s: %d diffs\n", i+1, total, ref, len(res.Diffs))
	return s, nil
}

// filterCandidates removes the reference itself and, when onlyVerified is
// set, anything not in the verified list. The result is sorted.
func (c *Crawler) filterCandidates(ref model.Address, similar []model.Address, verified map[model.Address]struct{}) []model.Address {
	out := make([]model.Address, 0, len(similar))
	for _, a := range model.UniqueAddresses(similar) {
		if a == ref {
			continue
		}
		if c.onlyVerified {
			if _, ok := verified[a]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// logWarnSkip logs a skipped contract, calling out exhausted rate limits.
func (c *Crawler) logWarnSkip(msg string, addr model.Address, err error, attrs ...any) {
	args := append([]any{"address", addr, "error", err}, attrs...)
	switch {
	case explorer.IsRateLimited(err):
		args = append(args, "cause", "rate limit retries exhausted")
	case errors.Is(err, explorer.ErrSourceNotFound):
		args = append(args, "cause", "no verified source")
	}
	c.logger.Warn(msg, args...)
}

// printf writes a progress line.
func (c *Crawler) printf(format string, args ...any) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	fmt.Fprintf(c.progress, format, args...) //nolint:errcheck // progress output is best effort
}

// window returns addrs[start:end] clamped to the slice bounds.
// end <= 0 means len(addrs).
func window(addrs []model.Address, start, end int) []model.Address {
	if end <= 0 || end > len(addrs) {
		end = len(addrs)
	}
	if start >= end {
		return nil
	}
	return addrs[start:end]
}
