package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Tracker reports the progress of a numbered list of items ("[3/12] ms-python.python").
// On a terminal the current item spins until it is finished; otherwise each
// finished item is printed as one line.
type Tracker struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	total   int
	current int
	label   string
	spin    *spinner.Spinner
}

// NewTracker creates a tracker for total items writing to out.
func NewTracker(out io.Writer, total int, caps TerminalCapabilities) *Tracker {
	return &Tracker{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
		total:   total,
	}
}

// Start marks the next item as in progress.
func (t *Tracker) Start(label string) {
	t.current++
	t.label = label
	if !t.caps.Animate {
		return
	}
	t.spin = spinner.New(spinner.CharSets[t.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(t.out))
	t.spin.Suffix = " " + t.prefix() + label
	t.spin.Start()
}

// Success finishes the current item as done.
func (t *Tracker) Success(detail string) {
	t.finish(t.paint(color.FgGreen, t.symbols.Checkmark), detail)
}

// Skip finishes the current item as skipped.
func (t *Tracker) Skip(detail string) {
	t.finish(t.paint(color.FgYellow, t.symbols.Skipped), detail)
}

// Fail finishes the current item as failed.
func (t *Tracker) Fail(detail string) {
	t.finish(t.paint(color.FgRed, t.symbols.Failure), detail)
}

// Done reports how many items have been started.
func (t *Tracker) Done() int { return t.current }

func (t *Tracker) finish(mark, detail string) {
	if t.spin != nil {
		t.spin.Stop()
		t.spin = nil
	}
	line := fmt.Sprintf("%s %s%s", mark, t.prefix(), t.label)
	if detail != "" {
		line += " (" + detail + ")"
	}
	fmt.Fprintln(t.out, line)
}

func (t *Tracker) prefix() string {
	return fmt.Sprintf("[%d/%d] ", t.current, t.total)
}

func (t *Tracker) paint(attr color.Attribute, s string) string {
	if !t.caps.SupportsColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
