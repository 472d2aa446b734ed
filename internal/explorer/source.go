package explorer

import (
	"context"

	"github.com/nao1215/contractdiff/internal/model"
)

// ContractSource is the external collaborator the crawler reads from.
//
// Implementations must be safe for concurrent use when the crawler runs
// with concurrency greater than one.
type ContractSource interface {
	// ListVerifiedContracts returns the verified contracts, across all pages.
	ListVerifiedContracts(ctx context.Context) ([]model.Address, error)

	// ListSimilar returns the contracts the explorer considers similar to addr.
	ListSimilar(ctx context.Context, addr model.Address) ([]model.Address, error)

	// FetchSource returns the flattened source text of addr.
	// It returns ErrSourceNotFound when the contract has no verified source.
	FetchSource(ctx context.Context, addr model.Address) (string, error)
}
