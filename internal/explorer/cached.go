package explorer

import (
	"context"
	"log/slog"

	"github.com/nao1215/contractdiff/internal/model"
)

// Store persists explorer answers between runs.
// Get methods report found=false for missing or expired entries.
type Store interface {
	GetSource(ctx context.Context, addr model.Address) (source string, found bool, err error)
	PutSource(ctx context.Context, addr model.Address, source string) error
	GetSimilar(ctx context.Context, addr model.Address) (similar []model.Address, found bool, err error)
	PutSimilar(ctx context.Context, addr model.Address, similar []model.Address) error
}

// CachedSource wraps a ContractSource with a Store for ListSimilar and
// FetchSource. The verified list changes between runs and always goes to
// the underlying source.
//
// Cache failures never fail a request: a read error falls through to the
// underlying source and a write error is only logged.
type CachedSource struct {
	next   ContractSource
	store  Store
	logger *slog.Logger
}

// NewCachedSource returns a CachedSource reading through to next.
func NewCachedSource(next ContractSource, store Store, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{next: next, store: store, logger: logger}
}

// ListVerifiedContracts implements ContractSource.
func (c *CachedSource) ListVerifiedContracts(ctx context.Context) ([]model.Address, error) {
	return c.next.ListVerifiedContracts(ctx)
}

// ListSimilar implements ContractSource.
func (c *CachedSource) ListSimilar(ctx context.Context, addr model.Address) ([]model.Address, error) {
	similar, found, err := c.store.GetSimilar(ctx, addr)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", "kind", "similar", "address", addr, "error", err)
	case found:
		c.logger.Debug("cache hit", "kind", "similar", "address", addr)
		return similar, nil
	}

	similar, err = c.next.ListSimilar(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := c.store.PutSimilar(ctx, addr, similar); err != nil {
		c.logger.Warn("cache write failed", "kind", "similar", "address", addr, "error", err)
	}
	return similar, nil
}

// FetchSource implements ContractSource. Missing sources are not cached,
// so a contract verified later is picked up on the next run.
func (c *CachedSource) FetchSource(ctx context.Context, addr model.Address) (string, error) {
	src, found, err := c.store.GetSource(ctx, addr)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", "kind", "source", "address", addr, "error", err)
	case found:
		c.logger.Debug("cache hit", "kind", "source", "address", addr)
		return src, nil
	}

	src, err = c.next.FetchSource(ctx, addr)
	if err != nil {
		return "", err
	}
	if err := c.store.PutSource(ctx, addr, src); err != nil {
		c.logger.Warn("cache write failed", "kind", "source", "address", addr, "error", err)
	}
	return src, nil
}
