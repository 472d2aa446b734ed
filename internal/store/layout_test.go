package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/contractdiff/internal/model"
)

const (
	refAddr   = model.Address("0x1111111111111111111111111111111111111111")
	candAddr1 = model.Address("0x2222222222222222222222222222222222222222")
	candAddr2 = model.Address("0x3333333333333333333333333333333333333333")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestLayoutPaths tests path construction.
func TestLayoutPaths(t *testing.T) {
	t.Parallel()

	l := NewLayout("diffs")
	if got, want := l.ReferencePath(refAddr), filepath.Join("diffs", refAddr.String(), refAddr.String()); got != want {
		t.Errorf("ReferencePath = %q, expected %q", got, want)
	}
	if got, want := l.DiffPath(refAddr, candAddr1), filepath.Join("diffs", refAddr.String(), candAddr1.String()); got != want {
		t.Errorf("DiffPath = %q, expected %q", got, want)
	}
}

// TestWriteGroup tests writing a comparison group.
func TestWriteGroup(t *testing.T) {
	t.Parallel()

	t.Run("writes reference and non-empty diffs", func(t *testing.T) {
		t.Parallel()

		l := NewLayout(filepath.Join(t.TempDir(), "diffs"))
		g := &model.ComparisonGroup{
			Reference: model.Contract{Address: refAddr, Source: "contract X {\n}\n"},
			Candidates: []model.Contract{
				{Address: candAddr1, Source: "contract X {\n    uint a;\n}\n"},
				{Address: candAddr2, Source: "contract X {\n}\n"},
			},
		}

		res, err := l.WriteGroup(g, 3, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ref, err := os.ReadFile(l.ReferencePath(refAddr))
		if err != nil {
			t.Fatalf("reference not written: %v", err)
		}
		if string(ref) != g.Reference.Source {
			t.Errorf("reference = %q", ref)
		}

		d, err := os.ReadFile(l.DiffPath(refAddr, candAddr1))
		if err != nil {
			t.Fatalf("diff not written: %v", err)
		}
		if !strings.Contains(string(d), "+    uint a;\n") {
			t.Errorf("diff content = %q", d)
		}

		if _, err := os.Stat(l.DiffPath(refAddr, candAddr2)); !os.IsNotExist(err) {
			t.Error("identical candidate should not produce a file")
		}

		if len(res.Diffs) != 1 || res.Diffs[0].Candidate != candAddr1 || res.Diffs[0].Size != int64(len(d)) {
			t.Errorf("Diffs = %+v", res.Diffs)
		}
		if len(res.Identical) != 1 || res.Identical[0] != candAddr2 {
			t.Errorf("Identical = %v", res.Identical)
		}
	})

	t.Run("overwrites previous run", func(t *testing.T) {
		t.Parallel()

		l := NewLayout(t.TempDir())
		g := &model.ComparisonGroup{
			Reference:  model.Contract{Address: refAddr, Source: "a\n"},
			Candidates: []model.Contract{{Address: candAddr1, Source: "b\n"}},
		}
		if _, err := l.WriteGroup(g, 3, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		g.Candidates[0].Source = "c\n"
		if _, err := l.WriteGroup(g, 3, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		d, err := os.ReadFile(l.DiffPath(refAddr, candAddr1))
		if err != nil {
			t.Fatalf("diff not written: %v", err)
		}
		if strings.Contains(string(d), "+b") || !strings.Contains(string(d), "+c") {
			t.Errorf("diff was not overwritten: %q", d)
		}
	})

	t.Run("reference among candidates is ignored", func(t *testing.T) {
		t.Parallel()

		l := NewLayout(t.TempDir())
		g := &model.ComparisonGroup{
			Reference:  model.Contract{Address: refAddr, Source: "a\n"},
			Candidates: []model.Contract{{Address: refAddr, Source: "something else\n"}},
		}
		res, err := l.WriteGroup(g, 3, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Diffs) != 0 {
			t.Errorf("expected no diffs, got %+v", res.Diffs)
		}
		ref, _ := os.ReadFile(l.ReferencePath(refAddr)) //nolint:errcheck // content checked below
		if string(ref) != "a\n" {
			t.Errorf("reference overwritten: %q", ref)
		}
	})

	t.Run("unwritable root is an error", func(t *testing.T) {
		t.Parallel()

		root := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(root, []byte("not a directory"), 0o600); err != nil {
			t.Fatal(err)
		}

		l := NewLayout(root)
		g := &model.ComparisonGroup{Reference: model.Contract{Address: refAddr, Source: "a\n"}}
		if _, err := l.WriteGroup(g, 3, discardLogger()); err == nil {
			t.Error("expected error when root is a file")
		}
	})
}
