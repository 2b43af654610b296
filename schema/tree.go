package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSchemaIntegrity marks a structural defect detected while building the
// tree: duplicate sibling names, a condition referencing a field that does
// not exist, or a variant key without a matching child. Integrity failures
// abort startup; they are never surfaced to end users.
var ErrSchemaIntegrity = errors.New("schema integrity")

// Tree is the immutable, validated schema. Build it with New (or Load for
// the built-in workflow definition schema) and share it freely: all methods
// are safe for concurrent use.
type Tree struct {
	root  *Node
	nodes map[FieldPath]*Node
	envs  map[*Node]Env
}

// Load builds and validates the built-in workflow definition schema.
func Load() (*Tree, error) {
	return New(workflowDefinition())
}

// New validates a node tree and wraps it in a Tree. The same root must not
// be mutated afterwards.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrSchemaIntegrity)
	}
	t := &Tree{
		root:  root,
		nodes: make(map[FieldPath]*Node),
		envs:  make(map[*Node]Env),
	}
	if err := t.index(root, FieldPath(root.Name), nil); err != nil {
		return nil, err
	}
	return t, nil
}

// index walks the tree once: registers paths, rejects duplicate sibling
// names, resolves condition references against the ancestor chain, and
// checks variant keys.
func (t *Tree) index(n *Node, path FieldPath, ancestors []*Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: unnamed node under %q", ErrSchemaIntegrity, path)
	}
	if _, dup := t.nodes[path]; dup {
		return fmt.Errorf("%w: duplicate path %q", ErrSchemaIntegrity, path)
	}
	t.nodes[path] = n

	if n.Cond != nil {
		env, err := t.resolveRefs(n, path, ancestors)
		if err != nil {
			return err
		}
		t.envs[n] = env
	}
	if n.VariantKey != "" && n.child(n.VariantKey) == nil {
		return fmt.Errorf("%w: %q: variant key %q has no matching child",
			ErrSchemaIntegrity, path, n.VariantKey)
	}

	seen := make(map[string]struct{}, len(n.Children))
	chain := append(ancestors, n)
	for _, c := range n.Children {
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate child %q under %q",
				ErrSchemaIntegrity, c.Name, path)
		}
		seen[c.Name] = struct{}{}
		if err := t.index(c, path.Child(c.Name), chain); err != nil {
			return err
		}
	}
	return nil
}

// resolveRefs binds each field the condition mentions to an absolute path.
// Lookup starts among the node's siblings and climbs the ancestor chain, so
// a discriminator may live one or more levels above the guarded field.
func (t *Tree) resolveRefs(n *Node, path FieldPath, ancestors []*Node) (Env, error) {
	env := make(Env)
	for _, field := range n.Cond.Refs() {
		ref, ok := findRef(field, n, path, ancestors)
		if !ok {
			return nil, fmt.Errorf("%w: %q: condition (%s) references unknown field %q",
				ErrSchemaIntegrity, path, n.Cond, field)
		}
		env[field] = ref
	}
	return env, nil
}

func findRef(field string, n *Node, path FieldPath, ancestors []*Node) (Ref, bool) {
	scopePath := parentPath(path)
	for i := len(ancestors) - 1; i >= 0; i-- {
		scope := ancestors[i]
		if c := scope.child(field); c != nil && c != n {
			return Ref{Path: scopePath.Child(field), Default: c.Default}, true
		}
		scopePath = parentPath(scopePath)
	}
	return Ref{}, false
}

func parentPath(p FieldPath) FieldPath {
	s := string(p)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return FieldPath(s[:i])
		}
	}
	return ""
}

// Root returns the schema root node.
func (t *Tree) Root() *Node { return t.root }

// Find returns the node at path.
func (t *Tree) Find(path FieldPath) (*Node, bool) {
	n, ok := t.nodes[path]
	return n, ok
}

// Paths lists every field path in the schema in lexicographic order.
func (t *Tree) Paths() []FieldPath {
	out := make([]FieldPath, 0, len(t.nodes))
	for p := range t.nodes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Tree) env(n *Node) Env { return t.envs[n] }
