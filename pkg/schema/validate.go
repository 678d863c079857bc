package schema

import "sort"

// Schema maps field names to their expected types.
type Schema map[string]Type

// Fields returns the field names in lexical order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// TypeNames returns the schema as field -> type spelling.
func (s Schema) TypeNames() map[string]string {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]string, len(s))
	for f, t := range s {
		out[f] = t.Name()
	}
	return out
}

// Parse builds a Schema from field -> type spelling.
func Parse(types map[string]string) (Schema, error) {
	if len(types) == 0 {
		return nil, nil
	}
	s := make(Schema, len(types))
	var errs []error
	for _, field := range sortedKeys(types) {
		t, err := ParseType(types[field])
		if err != nil {
			errs = append(errs, &ValidationError{Key: field, Reason: err.Error()})
			continue
		}
		s[field] = t
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return s, nil
}

// Validate checks data against the schema. Every field is required.
// Failures are reported together, in field order.
func Validate(s Schema, data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	var errs []error
	for _, field := range s.Fields() {
		value, ok := data[field]
		if !ok {
			errs = append(errs, &ValidationError{Key: field, Reason: "required"})
			continue
		}
		if err := s[field].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: field, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
