package model

// Decision is the operator's answer for a single diff during review.
type Decision int

const (
	// DecisionSkip moves on without recording the diff.
	DecisionSkip Decision = iota
	// DecisionSelect appends the diff path to the selection file.
	DecisionSelect
	// DecisionQuit ends the review session.
	DecisionQuit
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionSelect:
		return "select"
	case DecisionQuit:
		return "quit"
	default:
		return unknownStr
	}
}

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"
