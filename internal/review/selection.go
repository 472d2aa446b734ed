package review

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Selection appends selected diff paths to a file, one per line.
//
// The file is opened on the first Append, so a session that selects
// nothing leaves it untouched (or absent). Every Append is synced to disk
// before it returns.
type Selection struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewSelection returns a Selection appending to path.
func NewSelection(path string) *Selection {
	return &Selection{path: path}
}

// Path returns the selection file path.
func (s *Selection) Path() string {
	return s.path
}

// Append adds diffPath to the selection file.
func (s *Selection) Append(diffPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // path comes from the operator
		if err != nil {
			return fmt.Errorf("failed to open selection file: %w", err)
		}
		s.f = f
	}

	if _, err := s.f.WriteString(diffPath + "\n"); err != nil {
		return fmt.Errorf("failed to append to selection file: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync selection file: %w", err)
	}
	return nil
}

// Close closes the selection file if it was opened.
func (s *Selection) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadSelection reads the paths listed in a selection file.
// Blank lines are ignored; duplicates are kept.
func ReadSelection(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	return paths, nil
}
