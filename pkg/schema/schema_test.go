package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	s := Schema{
		"safe": Bool(),
		"mode": String(),
	}

	assert.NoError(t, Validate(s, map[string]any{"safe": true, "mode": "x", "extra": 1}))

	err := Validate(s, map[string]any{"safe": "yes"})
	require.Error(t, err)
	errs := ValidationErrors(err)
	require.Len(t, errs, 2)
	// Field order is lexical, so "mode" comes first.
	assert.Contains(t, errs[0].Error(), `"mode": required`)
	assert.Contains(t, errs[1].Error(), `"safe": expected bool`)
}

func TestValidate_EmptySchema(t *testing.T) {
	assert.NoError(t, Validate(nil, nil))
}

func TestTypes(t *testing.T) {
	tests := []struct {
		typ   Type
		value any
		ok    bool
	}{
		{String(), "a", true},
		{String(), 1, false},
		{Bool(), false, true},
		{Int(), 3, true},
		{Int(), 3.0, true},
		{Int(), 3.5, false},
		{Float(), 2, true},
		{Slice(String()), []string{"a"}, true},
		{Slice(String()), []any{"a", 1}, false},
		{OneOf("a", "b"), "b", true},
		{OneOf("a", "b"), "c", false},
	}
	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s(%v)", tt.typ.Name(), tt.value)
		} else {
			assert.Error(t, err, "%s(%v)", tt.typ.Name(), tt.value)
		}
	}
}

func TestParse(t *testing.T) {
	s, err := Parse(map[string]string{
		"safe": "bool",
		"tags": "[string]",
		"mode": "oneof(a|b)",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"safe": "bool",
		"tags": "[string]",
		"mode": "oneof(a|b)",
	}, s.TypeNames())

	_, err = Parse(map[string]string{"x": "uuid"})
	assert.ErrorContains(t, err, `unknown type "uuid"`)
}
