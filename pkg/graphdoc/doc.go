/*
Package graphdoc reads and writes graphs as versioned documents.

A Document describes nodes and edges in YAML or JSON:

	version: "1"
	entry: prompt
	metadata:
	  title: Assistant
	nodes:
	  - id: prompt
	    type: entry
	  - id: check_safety
	    writes: {safe: bool}
	edges:
	  - id: prompt_to_check_safety
	    source: prompt
	    target: check_safety
	    default: true
	  - id: check_safety_to_decide_mode
	    source: check_safety
	    target: decide_mode
	    when: {safe: true}

Documents carry no behaviour. Bind attaches handlers from a
registry.Registry by node id and builds a router.Graph; Export goes the other
way for introspection and visualization.
*/
package graphdoc
