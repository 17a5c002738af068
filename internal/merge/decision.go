package merge

import (
	"github.com/profilesync/profilesync/internal/settings"
)

// Action is the outcome recorded for one key path.
type Action string

const (
	// ActionOverwrite means a source value replaced the existing value.
	ActionOverwrite Action = "overwrite"
	// ActionAdded means the key did not exist before the merge.
	ActionAdded Action = "added"
	// ActionMerged means nested objects or arrays were combined.
	ActionMerged Action = "merged"
	// ActionProtected means the key kept its pre-merge value because it is
	// in the protected key set.
	ActionProtected Action = "protected"
	// ActionUnchanged means sources touched the key without changing it.
	ActionUnchanged Action = "unchanged"
)

// Actions lists every action in reporting order.
var Actions = []Action{ActionAdded, ActionOverwrite, ActionMerged, ActionProtected, ActionUnchanged}

// Decision is the record of what happened to one key path.
type Decision struct {
	// Key is the dotted key path, e.g. "editor.fontSize" or "[python].editor.tabSize".
	Key string
	// Path holds the individual key segments of Key.
	Path []string
	// Action is the final outcome for the key.
	Action Action
	// Source is the label of the winning source (the last one to touch the key),
	// or the base label for protected keys.
	Source string
	// Old is the value before the merge; meaningful only when HadOld is set.
	Old settings.Value
	// HadOld reports whether the key existed before the merge.
	HadOld bool
	// New is the value after the merge.
	New settings.Value
	// Conflict is set when an overwrite replaced a value of a different shape
	// involving an object or array (e.g. object vs array). It is kept for
	// human review rather than treated as an error.
	Conflict bool
}

// Result is the output of Merge.
type Result struct {
	// Doc is the merged settings document.
	Doc *settings.Document
	// Decisions is the decision log in first-encountered traversal order.
	Decisions []Decision
}

// Count returns the number of decisions with the given action.
func (r *Result) Count(action Action) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Action == action {
			n++
		}
	}
	return n
}

// Conflicts returns the decisions that resolved a type conflict.
func (r *Result) Conflicts() []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.Conflict {
			out = append(out, d)
		}
	}
	return out
}

// Find returns the decision for a dotted key, if any.
func (r *Result) Find(key string) (Decision, bool) {
	for _, d := range r.Decisions {
		if d.Key == key {
			return d, true
		}
	}
	return Decision{}, false
}

// Changed reports whether the merge altered the base document.
func (r *Result) Changed() bool {
	for _, d := range r.Decisions {
		if d.Action != ActionUnchanged && d.Action != ActionProtected {
			return true
		}
	}
	return false
}
