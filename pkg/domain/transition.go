package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition requires a State field to equal a value.
type Condition struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// Eq builds a Condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}

// Guard decides whether a transition fires.
// A Guard is either the default guard, which always matches, or a
// conjunction of exact-match Conditions.
type Guard struct {
	conditions []Condition
	always     bool
}

// Default returns the guard that always matches.
func Default() Guard {
	return Guard{always: true}
}

// When returns a guard that matches iff every condition holds.
func When(conditions ...Condition) Guard {
	cs := make([]Condition, len(conditions))
	copy(cs, conditions)
	return Guard{conditions: cs}
}

// WhenMap builds a guard from a field/value mapping. Conditions are ordered
// by field name so the result is deterministic.
func WhenMap(fields map[string]any) Guard {
	keys := NewState(fields).Keys()
	cs := make([]Condition, 0, len(keys))
	for _, k := range keys {
		cs = append(cs, Eq(k, fields[k]))
	}
	return Guard{conditions: cs}
}

// IsDefault reports whether g is the default guard.
func (g Guard) IsDefault() bool {
	return g.always
}

// Conditions returns a copy of the guard's conditions.
func (g Guard) Conditions() []Condition {
	cs := make([]Condition, len(g.conditions))
	copy(cs, g.conditions)
	return cs
}

// Matches evaluates the guard against s. An absent field never matches.
func (g Guard) Matches(s State) bool {
	if g.always {
		return true
	}
	if len(g.conditions) == 0 {
		return false
	}
	for _, c := range g.conditions {
		v, ok := s.Get(c.Field)
		if !ok || !ValuesEqual(v, c.Value) {
			return false
		}
	}
	return true
}

func (g Guard) String() string {
	if g.always {
		return "default"
	}
	parts := make([]string, 0, len(g.conditions))
	for _, c := range g.conditions {
		parts = append(parts, fmt.Sprintf("%s=%v", c.Field, c.Value))
	}
	return "when(" + strings.Join(parts, ", ") + ")"
}

// ValuesEqual compares two State values. Numbers compare by value regardless
// of their Go type so that state decoded from JSON still matches guards
// declared with int literals.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Transition is a directed, guarded edge between two nodes.
type Transition struct {
	From  string
	To    string
	Guard Guard
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s [%s]", t.From, t.To, t.Guard)
}
