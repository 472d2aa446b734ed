package diff

import (
	"strings"
)

// fileBanner prefixes each file of a flattened multi-file contract.
const fileBanner = "// File: "

// SourceFile is one file of a verified contract.
type SourceFile struct {
	// Name is the file name as shown by the explorer. It may be empty
	// for single-file contracts.
	Name string

	// Content is the file text.
	Content string
}

// Flatten joins the files of a contract into a single normalised text.
// A single unnamed file is returned as is (normalised); otherwise every
// file is preceded by a "// File: <name>" banner and terminated by a newline.
func Flatten(files []SourceFile) string {
	switch len(files) {
	case 0:
		return ""
	case 1:
		if files[0].Name == "" {
			return Normalize(files[0].Content)
		}
	}

	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fileBanner)
		b.WriteString(f.Name)
		b.WriteString("\n")
		content := Normalize(f.Content)
		b.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
