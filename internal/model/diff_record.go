package model

import (
	"fmt"
)

// DiffRecord is a persisted diff of a candidate contract against its reference.
// The record is stored at <root>/<Reference>/<Candidate> and is immutable
// once written; a re-crawl overwrites it wholesale.
type DiffRecord struct {
	// Reference is the reference contract the diff was computed against.
	Reference Address `json:"reference"`

	// Candidate is the similar contract.
	Candidate Address `json:"candidate"`

	// Path is the location of the diff file as it was enumerated.
	Path string `json:"path"`

	// Size is the diff file size in bytes.
	Size int64 `json:"size"`
}

// String returns a short human-readable description of the record.
func (r DiffRecord) String() string {
	return fmt.Sprintf("%s vs %s", r.Candidate, r.Reference)
}
