package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified returns the unified diff of cand against ref.
// refName and candName label the "---" and "+++" header lines.
// The result is empty when both texts are equal.
func Unified(ref, cand, refName, candName string, context int) string {
	if context < 0 {
		context = DefaultContext
	}
	if ref == cand {
		return ""
	}

	ud := difflib.UnifiedDiff{
		A:        splitLines(ref),
		B:        splitLines(cand),
		FromFile: refName,
		ToFile:   candName,
		Context:  context,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		// Writing into a strings.Builder cannot fail.
		return ""
	}
	return out
}

// splitLines splits s into newline-terminated lines.
// Unlike difflib.SplitLines it does not add a phantom empty line when s
// already ends with a newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	last := len(lines) - 1
	if !strings.HasSuffix(lines[last], "\n") {
		lines[last] += "\n"
	}
	return lines
}

// Stats counts added and removed lines in a unified diff.
// File header lines ("--- " and "+++ " before the first hunk) are not counted.
func Stats(unified string) (added, removed int) {
	inHunk := false
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk:
			continue
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// Normalize prepares source text for diffing: carriage returns are dropped
// and the text is put in Unicode NFC so that equivalent encodings of the
// same comment do not produce spurious changes.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return norm.NFC.String(s)
}
