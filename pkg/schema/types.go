package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates a single value.
type Type interface {
	// Name is the spelling used in graph documents, e.g. "bool" or "[string]".
	Name() string
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON round trips turn ints into floats.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float %v", v)
	}
	return fmt.Errorf("expected int, got %T", value)
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	}
	return fmt.Errorf("expected float, got %T", value)
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type oneOfType struct {
	values []string
}

func (t oneOfType) Name() string { return "oneof(" + strings.Join(t.values, "|") + ")" }

func (t oneOfType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, t.values)
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.validate(value) }

// String accepts string values.
func String() Type { return stringType{} }

// Bool accepts bool values.
func Bool() Type { return boolType{} }

// Int accepts integers, including whole floats decoded from JSON.
func Int() Type { return intType{} }

// Float accepts any number.
func Float() Type { return floatType{} }

// Slice accepts slices whose elements all satisfy elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// OneOf accepts one of a fixed set of strings.
func OneOf(values ...string) Type {
	return oneOfType{values: append([]string(nil), values...)}
}

// Custom wraps a validation function under the given name.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// ParseType reads a type spelling as produced by Type.Name.
func ParseType(spec string) (Type, error) {
	spec = strings.TrimSpace(spec)
	switch spec {
	case "string":
		return String(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "int", "integer":
		return Int(), nil
	case "float", "number":
		return Float(), nil
	}
	if strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]") {
		elem, err := ParseType(spec[1 : len(spec)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	if strings.HasPrefix(spec, "oneof(") && strings.HasSuffix(spec, ")") {
		inner := spec[len("oneof(") : len(spec)-1]
		if inner == "" {
			return nil, fmt.Errorf("empty oneof")
		}
		return OneOf(strings.Split(inner, "|")...), nil
	}
	return nil, fmt.Errorf("unknown type %q", spec)
}
