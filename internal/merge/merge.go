// Package merge implements the settings merge engine: a user's own settings
// (the base) are combined with an ordered list of shared profiles, later
// sources overriding earlier ones, while a set of protected keys keeps the
// user's values. Every key-level outcome is recorded in a decision log.
//
// Merge is a pure function: it performs no I/O and never modifies its inputs.
package merge

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/profilesync/profilesync/internal/settings"
)

// DefaultBaseLabel labels the base document in decisions.
const DefaultBaseLabel = "user"

// Source is one settings document applied on top of the base. Its position
// in the slice passed to Merge is its priority: later sources win.
type Source struct {
	Label string
	Doc   *settings.Document
}

// Options tunes a merge.
type Options struct {
	// BaseLabel names the base document in decisions (default "user").
	BaseLabel string
	// TrackUnchanged keeps decisions for keys that sources touched without
	// changing. They are dropped by default.
	TrackUnchanged bool
}

// Merge combines base with sources in ascending priority order.
//
// Per key path: protected keys present in base keep their base value; keys
// missing from the accumulator are added; object pairs are merged
// recursively; array pairs become their de-duplicated union (sorted when all
// elements are strings); anything else is overwritten by the source value,
// including shape mismatches, which are flagged as conflicts.
//
// Inputs are validated first. A nil or malformed document yields a
// *settings.MalformedInputError and no result.
func Merge(base *settings.Document, sources []Source, protected KeySet, opts Options) (*Result, error) {
	if opts.BaseLabel == "" {
		opts.BaseLabel = DefaultBaseLabel
	}
	if err := validateInputs(base, sources, opts.BaseLabel); err != nil {
		return nil, err
	}

	m := &merger{
		base:      base,
		protected: protected,
		opts:      opts,
		entries:   make(map[string]*entry),
	}

	acc := base.Clone()
	for _, src := range sources {
		m.mergeDocument(acc, src.Doc, src.Label, nil)
	}

	return &Result{
		Doc:       acc,
		Decisions: m.decisions(acc),
	}, nil
}

func validateInputs(base *settings.Document, sources []Source, baseLabel string) error {
	if err := base.Validate(); err != nil {
		return labelError(err, baseLabel)
	}
	for i, src := range sources {
		if err := src.Doc.Validate(); err != nil {
			label := src.Label
			if label == "" {
				label = "source #" + strconv.Itoa(i+1)
			}
			return labelError(err, label)
		}
	}
	return nil
}

func labelError(err error, label string) error {
	var mErr *settings.MalformedInputError
	if errors.As(err, &mErr) && mErr.Source == "" {
		mErr.Source = label
	}
	return err
}

// entry accumulates the decision for one key path across sources.
type entry struct {
	path       []string
	source     string
	old        settings.Value
	hadOld     bool
	protected  bool
	lastChange Action
	conflict   bool
	removed    bool
}

type merger struct {
	base      *settings.Document
	protected KeySet
	opts      Options
	order     []*entry
	entries   map[string]*entry
}

// mergeDocument applies src onto acc and reports whether acc changed.
func (m *merger) mergeDocument(acc, src *settings.Document, label string, prefix []string) bool {
	changed := false
	for _, key := range src.Keys() {
		path := appendPath(prefix, key)
		srcVal, _ := src.Get(key)

		if m.isProtected(path) {
			m.recordProtected(path)
			continue
		}

		cur, exists := acc.Get(key)
		e := m.entryFor(path, cur, exists)
		e.source = label

		if !exists {
			acc.Set(key, srcVal.Clone())
			e.lastChange = ActionAdded
			changed = true
			continue
		}

		switch {
		case cur.Kind() == settings.KindObject && srcVal.Kind() == settings.KindObject:
			// cur's document belongs to acc, so the recursion edits it in place.
			if m.mergeDocument(cur.AsObject(), srcVal.AsObject(), label, path) {
				e.lastChange = ActionMerged
				changed = true
			}

		case cur.Kind() == settings.KindArray && srcVal.Kind() == settings.KindArray:
			if srcVal.Equal(cur) {
				continue
			}
			if union, differs := unionArrays(cur, srcVal); differs {
				acc.Set(key, union)
				e.lastChange = ActionMerged
				changed = true
			}

		default:
			if srcVal.Equal(cur) {
				continue
			}
			if m.shieldsProtected(path) {
				// Replacing this value would replace protected keys below it.
				m.recordProtectedBelow(path)
				continue
			}
			acc.Set(key, srcVal.Clone())
			e.lastChange = ActionOverwrite
			if isConflict(cur, srcVal) {
				e.conflict = true
			}
			if cur.Kind() == settings.KindObject {
				m.dropDescendants(path)
			}
			changed = true
		}
	}
	return changed
}

// isProtected reports whether path is a protected key that exists in base.
func (m *merger) isProtected(path []string) bool {
	if m.protected.Len() == 0 || !m.protected.Contains(JoinPath(path)) {
		return false
	}
	_, ok := m.base.Lookup(path)
	return ok
}

// shieldsProtected reports whether base holds protected keys strictly below path.
func (m *merger) shieldsProtected(path []string) bool {
	return len(m.protectedBelow(path)) > 0
}

func (m *merger) protectedBelow(path []string) [][]string {
	if m.protected.Len() == 0 {
		return nil
	}
	v, ok := m.base.Lookup(path)
	if !ok || v.Kind() != settings.KindObject {
		return nil
	}
	var found [][]string
	var walk func(d *settings.Document, prefix []string)
	walk = func(d *settings.Document, prefix []string) {
		for _, k := range d.Keys() {
			p := appendPath(prefix, k)
			if m.protected.Contains(JoinPath(p)) {
				found = append(found, p)
				continue
			}
			if child, _ := d.Get(k); child.Kind() == settings.KindObject {
				walk(child.AsObject(), p)
			}
		}
	}
	walk(v.AsObject(), path)
	return found
}

func (m *merger) recordProtectedBelow(path []string) {
	for _, p := range m.protectedBelow(path) {
		m.recordProtected(p)
	}
}

// recordProtected logs a protected key once, however many sources touch it.
func (m *merger) recordProtected(path []string) {
	id := pathID(path)
	if e, ok := m.entries[id]; ok && e.protected {
		return
	}
	baseVal, _ := m.base.Lookup(path)
	e := &entry{
		path:      path,
		source:    m.opts.BaseLabel,
		old:       baseVal.Clone(),
		hadOld:    true,
		protected: true,
	}
	m.entries[id] = e
	m.order = append(m.order, e)
}

// entryFor returns the entry for path, creating it with the current
// accumulator value as the pre-merge value on first touch.
func (m *merger) entryFor(path []string, cur settings.Value, exists bool) *entry {
	id := pathID(path)
	if e, ok := m.entries[id]; ok {
		return e
	}
	e := &entry{path: path, hadOld: exists}
	if exists {
		e.old = cur.Clone()
	}
	m.entries[id] = e
	m.order = append(m.order, e)
	return e
}

// dropDescendants forgets entries below path once the subtree was replaced.
func (m *merger) dropDescendants(path []string) {
	for id, e := range m.entries {
		if len(e.path) > len(path) && hasPrefix(e.path, path) {
			e.removed = true
			delete(m.entries, id)
		}
	}
}

// decisions resolves the final action of every entry against the merged doc.
func (m *merger) decisions(final *settings.Document) []Decision {
	out := make([]Decision, 0, len(m.order))
	for _, e := range m.order {
		if e.removed {
			continue
		}
		newVal, _ := final.Lookup(e.path)
		d := Decision{
			Key:    JoinPath(e.path),
			Path:   e.path,
			Source: e.source,
			Old:    e.old,
			HadOld: e.hadOld,
			New:    newVal.Clone(),
		}

		switch {
		case e.protected:
			d.Action = ActionProtected
		case !e.hadOld:
			d.Action = ActionAdded
		case newVal.Equal(e.old):
			d.Action = ActionUnchanged
		case e.lastChange != "":
			d.Action = e.lastChange
		default:
			d.Action = ActionOverwrite
		}

		if d.Action == ActionUnchanged && !m.opts.TrackUnchanged {
			continue
		}
		d.Conflict = e.conflict && d.Action == ActionOverwrite
		out = append(out, d)
	}
	return out
}

// unionArrays returns the union of cur and src, and whether it differs from
// cur. Duplicates are removed; an all-string union is sorted, any other union
// keeps first-appearance order.
func unionArrays(cur, src settings.Value) (settings.Value, bool) {
	items := make([]settings.Value, 0, cur.Len()+src.Len())
	add := func(v settings.Value) {
		for _, have := range items {
			if have.Equal(v) {
				return
			}
		}
		items = append(items, v.Clone())
	}
	for _, v := range cur.AsArray() {
		add(v)
	}
	for _, v := range src.AsArray() {
		add(v)
	}

	if allStrings(items) {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].AsString() < items[j].AsString()
		})
	}
	union := settings.Array(items...)
	return union, !union.Equal(cur)
}

func allStrings(items []settings.Value) bool {
	for _, v := range items {
		if v.Kind() != settings.KindString {
			return false
		}
	}
	return len(items) > 0
}

func isConflict(cur, next settings.Value) bool {
	if cur.Kind() == next.Kind() || cur.IsNull() || next.IsNull() {
		return false
	}
	return isContainer(cur) || isContainer(next)
}

func isContainer(v settings.Value) bool {
	return v.Kind() == settings.KindObject || v.Kind() == settings.KindArray
}

func appendPath(prefix []string, key string) []string {
	out := make([]string, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = key
	return out
}

func hasPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

// pathID joins segments with a byte that cannot collide with dotted keys.
func pathID(path []string) string {
	return strings.Join(path, "\x00")
}
