package testutil

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ExtensionIDPattern matches a marketplace extension ID, optionally pinned
// to a version ("publisher.name@1.2.3").
const ExtensionIDPattern = `^[A-Za-z0-9][A-Za-z0-9-]*\.[A-Za-z0-9][A-Za-z0-9._-]*(@[^@\s]+)?$`

// EditorFlag describes one flag of an editor command line. A nil Value
// marks a switch that takes no argument.
type EditorFlag struct {
	Value *regexp.Regexp
}

// EditorCLI is the set of flags profilesync may pass to one editor binary.
type EditorCLI struct {
	Binary string
	Flags  map[string]EditorFlag
	// Required flags must appear in every invocation.
	Required []string
}

var extensionFlags = map[string]EditorFlag{
	"list-extensions":   {},
	"show-versions":     {},
	"force":             {},
	"version":           {},
	"install-extension": {Value: regexp.MustCompile(ExtensionIDPattern)},
	"strict-ssl":        {Value: regexp.MustCompile(`^(true|false)$`)},
}

var editors = map[string]EditorCLI{
	"code":   {Binary: "code", Flags: extensionFlags},
	"codium": {Binary: "codium", Flags: extensionFlags},
}

// LookupEditor returns the known command line of an editor.
func LookupEditor(name string) (EditorCLI, bool) {
	cli, ok := editors[name]
	return cli, ok
}

// ValidateEditorArgs checks args against the command line of the named
// editor, so tests catch a flag the real binary would reject.
func ValidateEditorArgs(editor string, args []string) error {
	cli, ok := editors[editor]
	if !ok {
		return fmt.Errorf("unknown editor: %s", editor)
	}
	return cli.Validate(args)
}

// Validate reports the first argument the editor would not accept.
func (c EditorCLI) Validate(args []string) error {
	seen := make(map[string]bool)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return fmt.Errorf("unexpected argument %q", arg)
		}
		name, value, inline := strings.Cut(flagName(arg), "=")
		flag, ok := c.Flags[name]
		if !ok {
			return fmt.Errorf("unknown %s flag: %s", c.Binary, arg)
		}
		seen[name] = true

		if flag.Value == nil {
			if inline {
				return fmt.Errorf("flag --%s takes no value", name)
			}
			continue
		}
		if !inline {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return fmt.Errorf("flag --%s requires a value", name)
			}
			i++
			value = args[i]
		}
		if !flag.Value.MatchString(value) {
			return fmt.Errorf("flag --%s: invalid value %q", name, value)
		}
	}

	for _, name := range c.Required {
		if !seen[name] {
			return fmt.Errorf("missing required flag: --%s", name)
		}
	}
	return nil
}

// flagName strips leading dashes and lowercases the flag name.
func flagName(arg string) string {
	return strings.ToLower(strings.TrimLeft(arg, "-"))
}

// SkipWithoutEditor skips the test unless the editor binary is on PATH.
func SkipWithoutEditor(t interface{ Skip(...any) }, editor string) {
	cli, ok := editors[editor]
	if !ok {
		t.Skip("unknown editor: " + editor)
		return
	}
	if _, err := exec.LookPath(cli.Binary); err != nil {
		t.Skip(cli.Binary + " not found in PATH")
	}
}
