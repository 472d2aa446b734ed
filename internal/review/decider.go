package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/contractdiff/internal/model"
)

// Item is one diff presented to a Decider.
type Item struct {
	// Record is the diff being reviewed.
	Record model.DiffRecord

	// Content is the diff text.
	Content string

	// Index is the 1-based position of the record in the session.
	Index int

	// Total is the number of records in the session.
	Total int
}

// Decider decides what to do with a diff.
type Decider interface {
	Decide(ctx context.Context, item Item) (model.Decision, error)
}

// DecideFunc adapts a function to the Decider interface.
type DecideFunc func(ctx context.Context, item Item) (model.Decision, error)

// Decide implements Decider.
func (f DecideFunc) Decide(ctx context.Context, item Item) (model.Decision, error) {
	return f(ctx, item)
}

// ScriptedDecider answers with a fixed list of decisions, in order.
// Once the list is exhausted it returns ErrScriptExhausted.
type ScriptedDecider struct {
	mu        sync.Mutex
	decisions []model.Decision
	seen      []model.DiffRecord
}

// NewScriptedDecider returns a ScriptedDecider replaying decisions.
func NewScriptedDecider(decisions ...model.Decision) *ScriptedDecider {
	return &ScriptedDecider{decisions: decisions}
}

// Decide implements Decider.
func (s *ScriptedDecider) Decide(_ context.Context, item Item) (model.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.decisions) == 0 {
		return model.DecisionQuit, ErrScriptExhausted
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	s.seen = append(s.seen, item.Record)
	return d, nil
}

// Seen returns the records the decider was asked about.
func (s *ScriptedDecider) Seen() []model.DiffRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DiffRecord(nil), s.seen...)
}

// promptText is shown after every diff.
const promptText = "(s)ave diff, (n)ext (Enter), (q)uit: "

// PromptDecider shows each diff on a terminal and reads the answer from a
// line of input.
//
// Accepted answers: "s", "y" or "yes" select the diff; "n", "no" or an
// empty line skip it; "q" or "quit" end the session. End of input also
// ends the session. Anything else repeats the prompt.
type PromptDecider struct {
	in  *bufio.Reader
	out io.Writer

	// answers carries lines read from in. A single reader goroutine fills
	// it so a blocked read never holds up context cancellation.
	answers  chan answer
	readOnce sync.Once

	banner lipgloss.Style
	header lipgloss.Style
	added  lipgloss.Style
	remove lipgloss.Style
	hunk   lipgloss.Style
}

// NewPromptDecider creates a PromptDecider reading answers from in and
// writing diffs to out. Colours are used only when out is a terminal.
func NewPromptDecider(in io.Reader, out io.Writer) *PromptDecider {
	r := lipgloss.NewRenderer(out)
	style := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color)).TabWidth(lipgloss.NoTabConversion)
	}
	return &PromptDecider{
		in:     bufio.NewReader(in),
		out:    out,
		banner: style("1").Bold(true),
		header: style("2"),
		added:  style("6"),
		remove: style("5"),
		hunk:   style("3"),
	}
}

// Decide implements Decider.
func (p *PromptDecider) Decide(ctx context.Context, item Item) (model.Decision, error) {
	fmt.Fprintln(p.out, p.banner.Render(fmt.Sprintf("%d/%d: %s (size: %dB)", //nolint:errcheck // terminal output
		item.Index, item.Total, item.Record.Path, item.Record.Size)))
	fmt.Fprint(p.out, p.Render(item.Content)) //nolint:errcheck // terminal output
	if item.Index == item.Total {
		fmt.Fprintln(p.out, "This is the last diff.") //nolint:errcheck // terminal output
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.DecisionQuit, err
		}

		fmt.Fprint(p.out, promptText) //nolint:errcheck // terminal output
		line, err := p.readLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.DecisionQuit, ctxErr
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return model.DecisionQuit, fmt.Errorf("failed to read answer: %w", err)
		}
		eof := errors.Is(err, io.EOF)
		if eof && line == "" {
			fmt.Fprintln(p.out) //nolint:errcheck // terminal output
			return model.DecisionQuit, nil
		}

		if d, ok := parseAnswer(line); ok {
			return d, nil
		}
		fmt.Fprintf(p.out, "unrecognised answer %q\n", strings.TrimSpace(line)) //nolint:errcheck // terminal output
		if eof {
			return model.DecisionQuit, nil
		}
	}
}

// answer is one line of operator input.
type answer struct {
	line string
	err  error
}

// readLine returns the next line of input, or the context error when ctx
// is cancelled first. The line read while waiting is kept for the next call.
func (p *PromptDecider) readLine(ctx context.Context) (string, error) {
	p.readOnce.Do(func() {
		p.answers = make(chan answer)
		go func() {
			defer close(p.answers)
			for {
				line, err := p.in.ReadString('\n')
				p.answers <- answer{line: line, err: err}
				if err != nil {
					return
				}
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a, ok := <-p.answers:
		if !ok {
			return "", io.EOF
		}
		return a.line, a.err
	}
}

// parseAnswer maps a line of input to a Decision.
func parseAnswer(line string) (model.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "y", "yes", "save":
		return model.DecisionSelect, true
	case "", "n", "no", "next":
		return model.DecisionSkip, true
	case "q", "quit", "exit":
		return model.DecisionQuit, true
	default:
		return model.DecisionSkip, false
	}
}

// Render colours a unified diff line by line: file headers green, added
// lines cyan, removed lines magenta and hunk headers yellow.
func (p *PromptDecider) Render(unified string) string {
	var b strings.Builder
	for line := range strings.Lines(unified) {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "--- "), strings.HasPrefix(text, "+++ "):
			text = p.header.Render(text)
		case strings.HasPrefix(text, "+"):
			text = p.added.Render(text)
		case strings.HasPrefix(text, "-"):
			text = p.remove.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = p.hunk.Render(text)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}
