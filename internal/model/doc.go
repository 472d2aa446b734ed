// Package model defines the core data structures shared by the crawler,
// the reviewer and the exporter.
//
// This package contains the following main types:
//   - Address: a validated, normalised contract address
//   - Contract: a contract address together with its flattened source text
//   - ComparisonGroup: a reference contract and the candidates the explorer
//     reports as similar to it
//   - DiffRecord: one persisted diff of a candidate against its reference
//   - Decision: the operator's answer for a single diff during review
//
// Design decision: We keep models in their own package so that the explorer,
// crawl, review and export packages can share them without import cycles.
package model
