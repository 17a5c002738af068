package merge

import (
	"sort"
	"strings"
)

// SafePresetKeys are the appearance settings pinned to the user's own values
// when the safe preset is enabled.
var SafePresetKeys = []string{
	"workbench.colorTheme",
	"workbench.iconTheme",
	"editor.fontSize",
	"editor.fontFamily",
	"window.zoomLevel",
	"terminal.integrated.fontSize",
	"terminal.integrated.fontFamily",
}

// KeySet is a set of dotted key paths. A nil KeySet is empty.
type KeySet map[string]struct{}

// NewKeySet builds a set from keys. Blank entries are ignored.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		s[k] = struct{}{}
	}
	return s
}

// SafePreset returns a fresh set of SafePresetKeys.
func SafePreset() KeySet {
	return NewKeySet(SafePresetKeys...)
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys.
func (s KeySet) Len() int { return len(s) }

// Keys returns the keys sorted.
func (s KeySet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// JoinPath renders key segments as a dotted key.
func JoinPath(path []string) string {
	return strings.Join(path, ".")
}
