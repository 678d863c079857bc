/*
Package dsl provides a fluent builder for router graphs.

Nodes are declared in order; each node lists its outgoing transitions in the
order they should be evaluated, with Otherwise (the default guard) last.

	b := dsl.New()

	b.Add("prompt").
		Do(promptHandler).
		Go("check_safety")

	b.Add("check_safety").
		Do(safetyHandler).
		Writes(schema.Schema{"safe": schema.Bool()}).
		When("decide_mode", domain.Eq("safe", true)).
		Otherwise("unsafe_response")

	b.Converge([]string{"unsafe_response", "decide_mode"}, "prompt")

	g, err := b.Build(router.WithEntry("prompt"))
*/
package dsl
