package settings

import (
	"fmt"
	"strings"
)

// MalformedInputError reports input that is not a valid JSON-compatible
// settings tree. Merges abort on it before producing any output.
type MalformedInputError struct {
	// Source names the file or label the input came from, when known.
	Source string
	// Path is the dotted key path of the offending value, when known.
	Path string
	// Offset is the byte offset in the input for parse errors.
	Offset int64
	// Reason describes what is wrong.
	Reason string
	// Err is the underlying decoder error, if any.
	Err error
}

func (e *MalformedInputError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed settings")
	if e.Source != "" {
		fmt.Fprintf(&sb, " in %s", e.Source)
	}
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %q", e.Path)
	}
	if e.Offset > 0 {
		fmt.Fprintf(&sb, " (offset %d)", e.Offset)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
