package schema

import "sort"

// Resolve computes the requirement status of the node at path under the
// given values. It is a pure function of its inputs.
//
// Rules:
//   - a conditional node whose condition is not yet decidable is Unresolved;
//     a false condition makes it (and its subtree) NotApplicable
//   - an optional node is NotApplicable until something is bound at or below
//     its path, after which it counts as satisfied and its own children's
//     required flags apply
//   - a required node with a schema default is never missing
func (t *Tree) Resolve(path FieldPath, values Values) (Status, bool) {
	n, ok := t.nodes[path]
	if !ok {
		return StatusUnresolved, false
	}
	return t.resolve(n, path, values), true
}

func (t *Tree) resolve(n *Node, path FieldPath, values Values) Status {
	return t.resolveGuarded(n, path, values, map[*Node]bool{n: true})
}

func (t *Tree) resolveGuarded(n *Node, path FieldPath, values Values, visiting map[*Node]bool) Status {
	required := n.Required
	bound := values.Bound(path)
	if n.Cond != nil {
		switch n.Cond.Eval(t.env(n), values) {
		case TruthUnknown:
			// A value supplied for the node settles the question in its
			// favor: the user picked this side of the alternative. So does
			// every other side having been retired already.
			if !bound && !t.alternativesRetired(n, values, visiting) {
				return StatusUnresolved
			}
		case TruthFalse:
			return StatusNotApplicable
		case TruthTrue:
			// requiredness asserted by the condition
		}
	}

	if !required {
		if bound {
			return StatusRequiredSatisfied
		}
		return StatusNotApplicable
	}
	if bound || n.Default != "" {
		return StatusRequiredSatisfied
	}
	return StatusRequiredMissing
}

// alternativesRetired reports whether every side an either/or condition
// offers has itself become NotApplicable: the user's choices elsewhere left
// this node as the only side still on the hook, even with nothing bound
// under it yet. The visiting set breaks the mutual references either/or
// pairs carry by construction.
func (t *Tree) alternativesRetired(n *Node, values Values, visiting map[*Node]bool) bool {
	alt, ok := n.Cond.(Alternative)
	if !ok {
		return false
	}
	env := t.env(n)
	for _, field := range alt.Fields {
		ref, ok := env[field]
		if !ok {
			return false
		}
		other, ok := t.nodes[ref.Path]
		if !ok || visiting[other] {
			return false
		}
		visiting[other] = true
		if t.resolveGuarded(other, ref.Path, values, visiting) != StatusNotApplicable {
			return false
		}
	}
	return true
}

// ComputeMissing walks the schema depth-first and returns every field path
// that is required under the current values but has no bound value. Subtrees
// of NotApplicable and Unresolved nodes are skipped: fields of an unselected
// variant are not missing, and fields behind an undecided discriminator are
// not missing yet. The result is sorted lexicographically so clarification
// messages are reproducible.
func (t *Tree) ComputeMissing(values Values) []FieldPath {
	var missing []FieldPath
	t.collectMissing(t.root, FieldPath(t.root.Name), values, &missing)
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func (t *Tree) collectMissing(n *Node, path FieldPath, values Values, acc *[]FieldPath) {
	switch t.resolve(n, path, values) {
	case StatusUnresolved, StatusNotApplicable:
		return
	case StatusRequiredMissing:
		if n.Leaf() {
			*acc = append(*acc, path)
			return
		}
		before := len(*acc)
		undecided := false
		for _, c := range n.Children {
			childPath := path.Child(c.Name)
			if t.resolve(c, childPath, values) == StatusUnresolved {
				undecided = true
			}
			t.collectMissing(c, childPath, values, acc)
		}
		// A composite whose members are all satisfied or inapplicable needs
		// nothing; one with an undecided member and nothing concrete to ask
		// for is surfaced by its own path so the gap stays visible.
		if len(*acc) == before && undecided {
			*acc = append(*acc, path)
		}
	case StatusRequiredSatisfied:
		for _, c := range n.Children {
			t.collectMissing(c, path.Child(c.Name), values, acc)
		}
	}
}
