package review

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/nao1215/contractdiff/internal/model"
)

// Filter restricts which diff files are enumerated.
type Filter struct {
	// MinSize is the smallest file size in bytes to include.
	MinSize int64

	// MaxSize excludes files of this size or larger. Zero means no limit.
	MaxSize int64
}

// match reports whether a file of the given size passes the filter.
func (f Filter) match(size int64) bool {
	if size < f.MinSize {
		return false
	}
	return f.MaxSize <= 0 || size < f.MaxSize
}

// legacyReferenceSuffix marks reference sources written by older crawls
// as <ref>/<ref>_code.
const legacyReferenceSuffix = "_code"

// Enumerate yields the diff records under root in lexical order.
//
// A diff record is a regular file at root/<ref>/<name> where name is not
// the reference source itself. Deeper directories and files directly under
// root are ignored. Walk errors are yielded with a record holding only the
// failing path, and enumeration continues.
//
// The sequence reads the filesystem each time it is ranged over, so it can
// be restarted.
func Enumerate(root string, filter Filter) iter.Seq2[model.DiffRecord, error] {
	return func(yield func(model.DiffRecord, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error { //nolint:errcheck // errors are yielded
			if err != nil {
				if !yield(model.DiffRecord{Path: path}, err) {
					return filepath.SkipAll
				}
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			parts := strings.Split(rel, string(filepath.Separator))

			if d.IsDir() {
				if len(parts) > 1 {
					return filepath.SkipDir
				}
				return nil
			}
			if len(parts) != 2 || !d.Type().IsRegular() {
				return nil
			}

			ref, name := parts[0], parts[1]
			if name == ref || name == ref+legacyReferenceSuffix {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				if !yield(model.DiffRecord{Path: path}, err) {
					return filepath.SkipAll
				}
				return nil
			}
			if !filter.match(info.Size()) {
				return nil
			}

			rec := model.DiffRecord{
				Reference: model.Address(ref),
				Candidate: model.Address(name),
				Path:      path,
				Size:      info.Size(),
			}
			if !yield(rec, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Count returns the number of records Enumerate would yield, ignoring errors.
func Count(root string, filter Filter) int {
	n := 0
	for _, err := range Enumerate(root, filter) {
		if err == nil {
			n++
		}
	}
	return n
}
