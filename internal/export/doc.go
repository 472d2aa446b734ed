// Package export copies the diffs selected during review into a flat
// directory and writes a Markdown index of them.
//
// Files keep their base name (the candidate address). When that name is
// already taken in the export directory, "_0" is appended until it is free,
// so diffs of the same candidate against different references do not
// overwrite each other.
package export
