package graphdoc

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Version is the document format this package writes.
const Version = "1"

// Node types, derived from a node's outgoing edges on Export.
const (
	TypeEntry    = "entry"
	TypeDecision = "decision"
	TypeAction   = "action"
	TypeTerminal = "terminal"
)

// Document is the serialized form of a graph.
type Document struct {
	Version  string    `yaml:"version" json:"version" mapstructure:"version"`
	Entry    string    `yaml:"entry,omitempty" json:"entry,omitempty" mapstructure:"entry"`
	Metadata Metadata  `yaml:"metadata" json:"metadata" mapstructure:"metadata"`
	Nodes    []NodeDoc `yaml:"nodes" json:"nodes" mapstructure:"nodes"`
	Edges    []EdgeDoc `yaml:"edges" json:"edges" mapstructure:"edges"`
}

// Metadata describes a document.
type Metadata struct {
	Title       string `yaml:"title,omitempty" json:"title,omitempty" mapstructure:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	// Created is an RFC 3339 timestamp.
	Created string `yaml:"created,omitempty" json:"created,omitempty" mapstructure:"created"`
}

// NodeDoc is one node. Writes spells the node's write contract as
// field -> type (see schema.ParseType).
type NodeDoc struct {
	ID          string            `yaml:"id" json:"id" mapstructure:"id"`
	Label       string            `yaml:"label,omitempty" json:"label,omitempty" mapstructure:"label"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Type        string            `yaml:"type,omitempty" json:"type,omitempty" mapstructure:"type"`
	Writes      map[string]string `yaml:"writes,omitempty" json:"writes,omitempty" mapstructure:"writes"`
}

// EdgeDoc is one transition. Exactly one of When and Default must be set.
// Edges leaving the same source are evaluated in document order.
type EdgeDoc struct {
	ID      string         `yaml:"id" json:"id" mapstructure:"id"`
	Source  string         `yaml:"source" json:"source" mapstructure:"source"`
	Target  string         `yaml:"target" json:"target" mapstructure:"target"`
	When    map[string]any `yaml:"when,omitempty" json:"when,omitempty" mapstructure:"when"`
	Default bool           `yaml:"default,omitempty" json:"default,omitempty" mapstructure:"default"`
}

// Node returns the node with id.
func (d *Document) Node(id string) (NodeDoc, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeDoc{}, false
}

// EdgesFrom returns the edges leaving source, in evaluation order.
func (d *Document) EdgesFrom(source string) []EdgeDoc {
	var out []EdgeDoc
	for _, e := range d.Edges {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

// YAML encodes the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSON encodes the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
