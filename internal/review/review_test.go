package review

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/contractdiff/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeTree creates files under root. Keys are slash-separated paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

const sampleDiff = "--- 0xabc\n+++ 0xdef\n@@ -1 +1,3 @@\n contract X {\n+    uint a;\n }\n"

// newSampleTree returns a diffs tree with three diffs and the paths in
// enumeration order.
func newSampleTree(t *testing.T) (string, []string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "diffs")
	writeTree(t, root, map[string]string{
		"0xaaa/0xaaa":      "contract X {}\n",
		"0xaaa/0xbbb":      sampleDiff,
		"0xaaa/0xccc":      sampleDiff + "+extra\n",
		"0xaaa/nested/0xf": "ignored",
		"0xddd/0xddd":      "contract Y {}\n",
		"0xddd/0xddd_code": "legacy reference",
		"0xddd/0xeee":      sampleDiff,
		"README":           "not a diff",
	})
	return root, []string{
		filepath.Join(root, "0xaaa", "0xbbb"),
		filepath.Join(root, "0xaaa", "0xccc"),
		filepath.Join(root, "0xddd", "0xeee"),
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	lines, err := ReadSelection(f)
	if err != nil {
		t.Fatal(err)
	}
	return lines
}

// TestEnumerate tests diff record enumeration.
func TestEnumerate(t *testing.T) {
	t.Parallel()

	t.Run("yields diffs in lexical order", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		var got []model.DiffRecord
		for rec, err := range Enumerate(root, Filter{}) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got = append(got, rec)
		}

		if len(got) != len(want) {
			t.Fatalf("expected %d records, got %+v", len(want), got)
		}
		for i := range want {
			if got[i].Path != want[i] {
				t.Errorf("record %d path = %s, expected %s", i, got[i].Path, want[i])
			}
		}
		if got[0].Reference != "0xaaa" || got[0].Candidate != "0xbbb" {
			t.Errorf("record 0 = %+v", got[0])
		}
		if got[0].Size != int64(len(sampleDiff)) {
			t.Errorf("record 0 size = %d, expected %d", got[0].Size, len(sampleDiff))
		}
	})

	t.Run("is restartable", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		seq := Enumerate(root, Filter{})
		for range 2 {
			n := 0
			for _, err := range seq {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				n++
			}
			if n != len(want) {
				t.Errorf("expected %d records, got %d", len(want), n)
			}
		}
	})

	t.Run("size window", func(t *testing.T) {
		t.Parallel()

		root, _ := newSampleTree(t)
		size := int64(len(sampleDiff))

		if n := Count(root, Filter{MinSize: size + 1}); n != 1 {
			t.Errorf("MinSize: expected 1 record, got %d", n)
		}
		if n := Count(root, Filter{MaxSize: size + 1}); n != 2 {
			t.Errorf("MaxSize: expected 2 records, got %d", n)
		}
		if n := Count(root, Filter{MinSize: size, MaxSize: size}); n != 0 {
			t.Errorf("empty window: expected 0 records, got %d", n)
		}
	})

	t.Run("early break stops the walk", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		for rec := range Enumerate(root, Filter{}) {
			if rec.Path != want[0] {
				t.Errorf("first record = %s, expected %s", rec.Path, want[0])
			}
			break
		}
	})

	t.Run("missing root yields an error", func(t *testing.T) {
		t.Parallel()

		n := 0
		for _, err := range Enumerate(filepath.Join(t.TempDir(), "missing"), Filter{}) {
			if err == nil {
				t.Error("expected an error")
			}
			n++
		}
		if n != 1 {
			t.Errorf("expected a single error, got %d items", n)
		}
	})
}

// TestReviewer tests review sessions with scripted answers.
func TestReviewer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("yes to all appends every diff in order", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		selPath := filepath.Join(t.TempDir(), "interesting_diffs.txt")
		sel := NewSelection(selPath)
		defer sel.Close()

		dec := NewScriptedDecider(model.DecisionSelect, model.DecisionSelect, model.DecisionSelect)
		res, err := New(root, dec, sel, WithLogger(discardLogger())).Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Total != 3 || res.Selected != 3 || res.Reviewed != 3 || res.Quit {
			t.Errorf("result = %+v", res)
		}

		got := readLines(t, selPath)
		if strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("selection = %v, expected %v", got, want)
		}
	})

	t.Run("rerun appends again", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		selPath := filepath.Join(t.TempDir(), "interesting_diffs.txt")

		for range 2 {
			sel := NewSelection(selPath)
			dec := NewScriptedDecider(model.DecisionSelect, model.DecisionSelect, model.DecisionSelect)
			if _, err := New(root, dec, sel, WithLogger(discardLogger())).Run(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_ = sel.Close()
		}

		if got := readLines(t, selPath); len(got) != 2*len(want) {
			t.Errorf("expected %d lines, got %d", 2*len(want), len(got))
		}
	})

	t.Run("no to all leaves the file absent", func(t *testing.T) {
		t.Parallel()

		root, _ := newSampleTree(t)
		selPath := filepath.Join(t.TempDir(), "interesting_diffs.txt")
		sel := NewSelection(selPath)
		defer sel.Close()

		dec := NewScriptedDecider(model.DecisionSkip, model.DecisionSkip, model.DecisionSkip)
		res, err := New(root, dec, sel, WithLogger(discardLogger())).Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Selected != 0 || res.Reviewed != 3 {
			t.Errorf("result = %+v", res)
		}
		if _, err := os.Stat(selPath); !os.IsNotExist(err) {
			t.Error("selection file should not exist")
		}
	})

	t.Run("no to all leaves an existing file unmodified", func(t *testing.T) {
		t.Parallel()

		root, _ := newSampleTree(t)
		selPath := filepath.Join(t.TempDir(), "interesting_diffs.txt")
		if err := os.WriteFile(selPath, []byte("previous/session\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		sel := NewSelection(selPath)
		defer sel.Close()

		dec := NewScriptedDecider(model.DecisionSkip, model.DecisionSkip, model.DecisionSkip)
		if _, err := New(root, dec, sel, WithLogger(discardLogger())).Run(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := os.ReadFile(selPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "previous/session\n" {
			t.Errorf("selection file modified: %q", b)
		}
	})

	t.Run("interruption after approving item 1 of 3 keeps exactly item 1", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		selPath := filepath.Join(t.TempDir(), "interesting_diffs.txt")
		sel := NewSelection(selPath)

		var atSecond []string
		calls := 0
		dec := DecideFunc(func(_ context.Context, item Item) (model.Decision, error) {
			calls++
			if calls == 1 {
				return model.DecisionSelect, nil
			}
			// Look at the file as a killed process would leave it.
			atSecond = readLines(t, selPath)
			return model.DecisionQuit, nil
		})

		res, err := New(root, dec, sel, WithLogger(discardLogger())).Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Quit || res.Selected != 1 {
			t.Errorf("result = %+v", res)
		}
		if len(atSecond) != 1 || atSecond[0] != want[0] {
			t.Errorf("selection at item 2 = %v, expected [%s]", atSecond, want[0])
		}
		_ = sel.Close()
		if got := readLines(t, selPath); len(got) != 1 || got[0] != want[0] {
			t.Errorf("selection = %v, expected [%s]", got, want[0])
		}
	})

	t.Run("unreadable diff is skipped with a notice", func(t *testing.T) {
		t.Parallel()

		root, want := newSampleTree(t)
		if err := os.WriteFile(want[1], []byte{0xff, 0xfe, 0x00, 0x80}, 0o600); err != nil {
			t.Fatal(err)
		}

		var notices bytes.Buffer
		dec := NewScriptedDecider(model.DecisionSelect, model.DecisionSelect)
		sel := NewSelection(filepath.Join(t.TempDir(), "sel.txt"))
		defer sel.Close()

		res, err := New(root, dec, sel, WithLogger(discardLogger()), WithNotices(&notices)).Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Unreadable != 1 || res.Selected != 2 {
			t.Errorf("result = %+v", res)
		}
		seen := dec.Seen()
		if len(seen) != 2 || seen[0].Path != want[0] || seen[1].Path != want[2] {
			t.Errorf("decider saw %+v", seen)
		}
		if !strings.Contains(notices.String(), want[1]) {
			t.Errorf("notice does not name the file: %q", notices.String())
		}
	})

	t.Run("decider receives position and content", func(t *testing.T) {
		t.Parallel()

		root, _ := newSampleTree(t)
		var items []Item
		dec := DecideFunc(func(_ context.Context, item Item) (model.Decision, error) {
			items = append(items, item)
			return model.DecisionSkip, nil
		})

		if _, err := New(root, dec, NewSelection(filepath.Join(t.TempDir(), "s")), WithLogger(discardLogger())).Run(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}
		for i, it := range items {
			if it.Index != i+1 || it.Total != 3 {
				t.Errorf("item %d position = %d/%d", i, it.Index, it.Total)
			}
		}
		if items[0].Content != sampleDiff {
			t.Errorf("content = %q", items[0].Content)
		}
	})

	t.Run("decider error ends the session", func(t *testing.T) {
		t.Parallel()

		root, _ := newSampleTree(t)
		dec := NewScriptedDecider(model.DecisionSkip)
		_, err := New(root, dec, NewSelection(filepath.Join(t.TempDir(), "s")), WithLogger(discardLogger())).Run(ctx)
		if !errors.Is(err, ErrScriptExhausted) {
			t.Errorf("expected ErrScriptExhausted, got %v", err)
		}
	})

	t.Run("missing diffs directory", func(t *testing.T) {
		t.Parallel()

		_, err := New(filepath.Join(t.TempDir(), "diffs"), NewScriptedDecider(), NewSelection("x"), WithLogger(discardLogger())).Run(ctx)
		if !errors.Is(err, ErrDiffDirNotFound) {
			t.Errorf("expected ErrDiffDirNotFound, got %v", err)
		}
	})
}

// TestPromptDecider tests terminal answers.
func TestPromptDecider(t *testing.T) {
	t.Parallel()

	item := Item{
		Record:  model.DiffRecord{Path: "diffs/0xabc/0xdef", Size: int64(len(sampleDiff))},
		Content: sampleDiff,
		Index:   1,
		Total:   2,
	}

	tests := []struct {
		name  string
		input string
		want  model.Decision
	}{
		{"s selects", "s\n", model.DecisionSelect},
		{"yes selects", "Yes\n", model.DecisionSelect},
		{"enter skips", "\n", model.DecisionSkip},
		{"n skips", "n\n", model.DecisionSkip},
		{"q quits", "q\n", model.DecisionQuit},
		{"eof quits", "", model.DecisionQuit},
		{"answer without newline", "s", model.DecisionSelect},
		{"unknown answer repeats the prompt", "maybe\ny\n", model.DecisionSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			p := NewPromptDecider(strings.NewReader(tt.input), &out)
			got, err := p.Decide(context.Background(), item)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%q) = %s, expected %s", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "1/2: diffs/0xabc/0xdef (size: ") {
				t.Errorf("banner missing from output: %q", out.String())
			}
			if !strings.Contains(out.String(), "+    uint a;") {
				t.Errorf("diff missing from output: %q", out.String())
			}
		})
	}

	t.Run("last diff is announced", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		last := item
		last.Index = 2
		if _, err := NewPromptDecider(strings.NewReader("n\n"), &out).Decide(context.Background(), last); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "This is the last diff.") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("answers are read in sequence", func(t *testing.T) {
		t.Parallel()

		p := NewPromptDecider(strings.NewReader("s\nn\nq\n"), io.Discard)
		want := []model.Decision{model.DecisionSelect, model.DecisionSkip, model.DecisionQuit}
		for i, w := range want {
			got, err := p.Decide(context.Background(), item)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != w {
				t.Errorf("answer %d = %s, expected %s", i, got, w)
			}
		}
	})
}

// TestPromptDeciderCancel tests that cancelling the context ends a prompt
// that is still waiting for input.
func TestPromptDeciderCancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(t.Context())
	p := NewPromptDecider(pr, io.Discard)

	type result struct {
		d   model.Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := p.Decide(ctx, Item{Record: model.DiffRecord{Path: "diffs/0xabc/0xdef"}, Index: 1, Total: 1})
		done <- result{d, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.err)
		}
		if res.d != model.DecisionQuit {
			t.Errorf("Decide = %s, expected %s", res.d, model.DecisionQuit)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Decide still waiting for input after cancellation")
	}
}

// TestRender tests that rendering keeps every diff line.
func TestRender(t *testing.T) {
	t.Parallel()

	p := NewPromptDecider(strings.NewReader(""), io.Discard)
	out := p.Render(sampleDiff + "-\tremoved with tab\n")
	for _, line := range []string{"--- 0xabc", "+++ 0xdef", "@@ -1 +1,3 @@", " contract X {", "+    uint a;", "-\tremoved with tab"} {
		if !strings.Contains(out, line) {
			t.Errorf("rendered diff misses %q: %q", line, out)
		}
	}
	if strings.Count(out, "\n") != strings.Count(sampleDiff, "\n")+1 {
		t.Errorf("line count changed: %q", out)
	}
}

// TestReadSelection tests parsing of selection files.
func TestReadSelection(t *testing.T) {
	t.Parallel()

	got, err := ReadSelection(strings.NewReader("a/b\r\n\n  \nc/d\na/b\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a/b", "c/d", "a/b"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ReadSelection = %v, expected %v", got, want)
	}
}
