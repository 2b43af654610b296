package schema

import (
	"fmt"
	"strings"
)

// Truth is the tri-state outcome of a condition. A condition that references
// a value the user has not supplied evaluates to TruthUnknown, never
// TruthFalse: unresolved is not the same as unsatisfied.
type Truth int

const (
	TruthUnknown Truth = iota
	TruthFalse
	TruthTrue
)

// Ref is a condition field reference resolved to an absolute path at load
// time, carrying the referenced node's default so discriminators with schema
// defaults still decide their dependents.
type Ref struct {
	Path    FieldPath
	Default string
}

// Env maps a condition's relative field names to resolved references. Built
// once per conditional node during tree validation.
type Env map[string]Ref

func (e Env) value(values Values, field string) (string, bool) {
	r, ok := e[field]
	if !ok {
		return "", false
	}
	if v, bound := values[r.Path]; bound {
		return v, true
	}
	if r.Default != "" {
		return r.Default, true
	}
	return "", false
}

func (e Env) bound(values Values, field string) bool {
	r, ok := e[field]
	if !ok {
		return false
	}
	return values.Bound(r.Path)
}

// Condition is a closed set of requiredness guards evaluated by an explicit
// interpreter. Field names are relative: they are resolved against the
// conditioned node's siblings, then each ancestor's siblings, at load time.
type Condition interface {
	// Eval decides the condition under the given values.
	Eval(env Env, values Values) Truth
	// Refs lists the relative field names the condition reads.
	Refs() []string
	fmt.Stringer
}

// Equals requires the referenced field to hold exactly Value.
type Equals struct {
	Field string
	Value string
}

func (c Equals) Eval(env Env, values Values) Truth {
	v, ok := env.value(values, c.Field)
	if !ok {
		return TruthUnknown
	}
	if v == c.Value {
		return TruthTrue
	}
	return TruthFalse
}

func (c Equals) Refs() []string { return []string{c.Field} }
func (c Equals) String() string { return fmt.Sprintf("%s == %q", c.Field, c.Value) }

// NotEquals requires the referenced field to hold anything but Value.
type NotEquals struct {
	Field string
	Value string
}

func (c NotEquals) Eval(env Env, values Values) Truth {
	v, ok := env.value(values, c.Field)
	if !ok {
		return TruthUnknown
	}
	if v != c.Value {
		return TruthTrue
	}
	return TruthFalse
}

func (c NotEquals) Refs() []string { return []string{c.Field} }
func (c NotEquals) String() string { return fmt.Sprintf("%s != %q", c.Field, c.Value) }

// OneOf requires the referenced field to hold one of Any.
type OneOf struct {
	Field string
	Any   []string
}

func (c OneOf) Eval(env Env, values Values) Truth {
	v, ok := env.value(values, c.Field)
	if !ok {
		return TruthUnknown
	}
	for _, want := range c.Any {
		if v == want {
			return TruthTrue
		}
	}
	return TruthFalse
}

func (c OneOf) Refs() []string { return []string{c.Field} }
func (c OneOf) String() string {
	return fmt.Sprintf("%s in (%s)", c.Field, strings.Join(c.Any, ", "))
}

// Alternative guards a field that is required unless one of the listed
// sibling alternatives is supplied instead (the ref-or-inline-definition
// pattern). While no alternative is bound the outcome is Unknown: the user
// still has to pick a side, but no particular side is missing yet.
type Alternative struct {
	Fields []string
}

func (c Alternative) Eval(env Env, values Values) Truth {
	for _, f := range c.Fields {
		if env.bound(values, f) {
			return TruthFalse
		}
	}
	return TruthUnknown
}

func (c Alternative) Refs() []string { return c.Fields }
func (c Alternative) String() string {
	return "unless any of " + strings.Join(c.Fields, ", ")
}

// NonePresent is true while none of the listed fields is bound and false as
// soon as one is. It expresses "at least one of these must be supplied":
// every guarded sibling is surfaced as missing until the user provides one.
type NonePresent struct {
	Fields []string
}

func (c NonePresent) Eval(env Env, values Values) Truth {
	for _, f := range c.Fields {
		if env.bound(values, f) {
			return TruthFalse
		}
	}
	return TruthTrue
}

func (c NonePresent) Refs() []string { return c.Fields }
func (c NonePresent) String() string {
	return "none of " + strings.Join(c.Fields, ", ")
}

// Present requires the field only when the referenced sibling has been
// supplied. Absence is decidable, so the outcome is never Unknown.
type Present struct {
	Field string
}

func (c Present) Eval(env Env, values Values) Truth {
	if env.bound(values, c.Field) {
		return TruthTrue
	}
	return TruthFalse
}

func (c Present) Refs() []string { return []string{c.Field} }
func (c Present) String() string { return c.Field + " present" }
