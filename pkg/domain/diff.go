package domain

import "sort"

// StateDiff describes the keys a step added or changed.
type StateDiff struct {
	Added   []string       `json:"added,omitempty"`
	Changed []string       `json:"changed,omitempty"`
	Values  map[string]any `json:"values,omitempty"`
}

// Empty reports whether the diff carries no changes.
func (d StateDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0
}

// Keys returns added and changed keys together, sorted.
func (d StateDiff) Keys() []string {
	keys := append(append([]string(nil), d.Added...), d.Changed...)
	sort.Strings(keys)
	return keys
}

// Diff calculates what newState adds or changes relative to oldState.
// States never lose keys, so there is no deletion case.
func Diff(oldState, newState State) StateDiff {
	diff := StateDiff{Values: make(map[string]any)}
	for _, k := range newState.Keys() {
		nv, _ := newState.Get(k)
		ov, existed := oldState.Get(k)
		switch {
		case !existed:
			diff.Added = append(diff.Added, k)
			diff.Values[k] = nv
		case !ValuesEqual(ov, nv):
			diff.Changed = append(diff.Changed, k)
			diff.Values[k] = nv
		}
	}
	if len(diff.Values) == 0 {
		diff.Values = nil
	}
	return diff
}
