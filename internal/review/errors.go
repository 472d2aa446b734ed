package review

import "errors"

// Review errors.
var (
	// ErrDiffDirNotFound is returned when the diffs directory does not exist.
	ErrDiffDirNotFound = errors.New("diff directory not found (run the crawl first)")

	// ErrMalformedDiff is reported for diff files that are not valid UTF-8 text.
	ErrMalformedDiff = errors.New("malformed diff file")

	// ErrScriptExhausted is returned by ScriptedDecider when it runs out of answers.
	ErrScriptExhausted = errors.New("scripted decider has no more answers")
)
