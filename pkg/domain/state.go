package domain

import (
	"encoding/json"
	"sort"
)

// Update is the partial mapping a handler returns. Keys present in an Update
// overwrite the same keys in the State it is merged into; every other key
// survives untouched.
type Update map[string]any

// State is an immutable snapshot of a session's key/value data.
// The zero value is an empty State and is ready to use.
type State struct {
	values map[string]any
}

// NewState creates a State holding a copy of values.
func NewState(values map[string]any) State {
	s := State{values: make(map[string]any, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value stored under key.
func (s State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key when it holds a string.
func (s State) String(key string) (string, bool) {
	v, ok := s.values[key].(string)
	return v, ok
}

// Bool returns the value under key when it holds a bool.
func (s State) Bool(key string) (bool, bool) {
	v, ok := s.values[key].(bool)
	return v, ok
}

// Has reports whether key is set.
func (s State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Len returns the number of keys.
func (s State) Len() int {
	return len(s.values)
}

// Keys returns the keys in lexical order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the underlying mapping.
func (s State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Merge returns a new State with u applied over s.
// s is left unchanged.
func (s State) Merge(u Update) State {
	next := State{values: make(map[string]any, len(s.values)+len(u))}
	for k, v := range s.values {
		next.values[k] = v
	}
	for k, v := range u {
		next.values[k] = v
	}
	return next
}

// Union returns a new State holding every key of s and other.
// On conflict the value from other wins.
func (s State) Union(other State) State {
	return s.Merge(Update(other.values))
}

// With is shorthand for merging a single key.
func (s State) With(key string, value any) State {
	return s.Merge(Update{key: value})
}

func (s State) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.values)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewState(values)
	return nil
}
