// Package schema describes the keys a node handler promises to leave in
// State and checks that promise after each step.
//
//	writes := schema.Schema{
//	    "safe": schema.Bool(),
//	    "mode": schema.String(),
//	}
//	if err := schema.Validate(writes, state.Values()); err != nil {
//	    // the handler broke its contract
//	}
//
// Schemas can also be read from graph documents, where each type is spelled
// as a string ("bool", "string", "int", "float", "[string]").
package schema
