// Package diff computes line-based unified diffs between contract sources.
//
// Conventions:
//   - Diffs are whitespace-sensitive and use 3 lines of context by default.
//   - Identical inputs produce an empty diff (no header, no hunks).
//   - Every line is newline-terminated before diffing, so a missing final
//     newline never shows up as a change.
//   - Multi-file contracts are flattened into one text with a
//     "// File: <name>" banner in front of each file, in the order the
//     explorer lists them.
//
// The diff itself is produced by github.com/pmezard/go-difflib, a port of
// Python's difflib, so the output matches `diff -u` closely.
package diff
