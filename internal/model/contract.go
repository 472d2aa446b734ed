package model

// Contract is a verified contract together with its flattened source text.
type Contract struct {
	// Address identifies the contract.
	Address Address `json:"address"`

	// Source is the contract source. Multi-file contracts are flattened
	// into a single text before they reach this struct.
	Source string `json:"source"`
}

// ComparisonGroup is one reference contract plus the candidates the explorer
// considers similar to it. Groups only live for the duration of a crawl;
// the diffs derived from them are what gets persisted.
type ComparisonGroup struct {
	// Reference is the comparison baseline.
	Reference Contract

	// Candidates are the similar contracts whose source could be fetched.
	Candidates []Contract
}

// CandidateAddresses returns the addresses of all candidates in order.
func (g *ComparisonGroup) CandidateAddresses() []Address {
	out := make([]Address, 0, len(g.Candidates))
	for _, c := range g.Candidates {
		out = append(out, c.Address)
	}
	return out
}
