// Package progress renders per-item progress for long running steps such as
// extension installs: a spinner on terminals, plain status lines elsewhere.
package progress

// TerminalCapabilities describes what the attached terminal can display.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	// Animate enables the spinner; off outside terminals and in CI.
	Animate bool
	Width   int
}

// ProgressSymbols are the markers printed for finished items.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	Skipped    string
	SpinnerSet int
}
