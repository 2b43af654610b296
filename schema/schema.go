// Package schema models the workflow definition document: a nested tree of
// fields whose requiredness may depend on sibling discriminator values. The
// tree is built once at startup, validated, and shared read-only across all
// sessions.
package schema

import (
	"sort"
	"strings"
)

// ValueType tags the kind of value a field holds.
type ValueType string

const (
	TypeString255 ValueType = "string255"
	TypeString400 ValueType = "string400"
	TypeString    ValueType = "string"
	TypeInt       ValueType = "int"
	TypeFloat     ValueType = "float"
	TypeBool      ValueType = "bool"
	TypeDate      ValueType = "date"
	TypeJSON      ValueType = "json"
	TypeComposite ValueType = "composite"
	TypeArray     ValueType = "array"
)

// FieldPath is a stable dotted identifier locating a field from the schema
// root, e.g. "wf_definition.details.restCallConfig.url". Array element fields
// share the array's path segment; there are no per-index paths.
type FieldPath string

func (p FieldPath) String() string { return string(p) }

// Child returns the path of a child segment under p.
func (p FieldPath) Child(name string) FieldPath {
	if p == "" {
		return FieldPath(name)
	}
	return FieldPath(string(p) + "." + name)
}

// Status is the requirement status of a single node under a set of known
// values.
type Status int

const (
	// StatusUnresolved means the node's requiredness depends on a value the
	// user has not supplied yet. Unresolved is neither missing nor satisfied.
	StatusUnresolved Status = iota
	// StatusNotApplicable means the node is not demanded under the current
	// values (condition false, or optional and untouched).
	StatusNotApplicable
	// StatusRequiredMissing means the node is required right now and has no
	// bound value.
	StatusRequiredMissing
	// StatusRequiredSatisfied means the node is required (or present) and a
	// value is bound at or below its path.
	StatusRequiredSatisfied
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusNotApplicable:
		return "not_applicable"
	case StatusRequiredMissing:
		return "required_missing"
	case StatusRequiredSatisfied:
		return "required_satisfied"
	default:
		return "unknown"
	}
}

// Values is the bag of field values collected from the conversation so far,
// keyed by FieldPath. Values never contain schema defaults; defaults live on
// the nodes themselves.
type Values map[FieldPath]string

// Bound reports whether a value is bound at path or anywhere beneath it.
func (v Values) Bound(path FieldPath) bool {
	if _, ok := v[path]; ok {
		return true
	}
	prefix := string(path) + "."
	for p := range v {
		if strings.HasPrefix(string(p), prefix) {
			return true
		}
	}
	return false
}

// Paths returns the bound paths in lexicographic order.
func (v Values) Paths() []FieldPath {
	out := make([]FieldPath, 0, len(v))
	for p := range v {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Node is one field or composite in the document schema. Nodes are built once
// by Load and never mutated afterwards.
type Node struct {
	Name        string
	Type        ValueType
	Required    bool
	Cond        Condition // nil means requiredness is unconditional
	Enum        []string  // allowed values, empty means unrestricted
	Default     string    // value assumed when the user supplies none
	Description string
	Children    []*Node
	// VariantKey names the child field whose bound value selects which
	// conditional siblings apply (discriminated union). Informational for
	// callers; resolution itself is driven by the children's conditions.
	VariantKey string
}

// Leaf reports whether the node carries a value directly rather than
// structure.
func (n *Node) Leaf() bool { return len(n.Children) == 0 }

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}
