// Package term defines the algebraic term representation the kernel reasons
// over: literals, meta-variables, composite applications and the anonymous
// wildcard. The hierarchy is closed — four variants, exhaustive switches
// everywhere a caller needs to dispatch on shape — rather than open
// subclassing, mirroring how this corpus represents closed sum types such as
// typesystem.Type.
package term

import "strings"

// Name is an identifier: a literal constructor name, a meta-variable name,
// or a rule name in the surrounding context package.
type Name = string

// Term is the interface every term variant satisfies. It is intentionally
// small: construction, structural equality and a canonical textual form are
// the only operations the rest of the kernel needs from a bare Term.
type Term interface {
	// isTerm restricts implementers to this package's four variants.
	isTerm()
	// Equal reports structural equality.
	Equal(other Term) bool
	// String renders the canonical textual form described in spec.md §3.
	String() string
}

// Lit is a literal constant: a logical constructor or quoted atom.
type Lit struct {
	Name Name
}

func (Lit) isTerm()             {}
func (l Lit) String() string    { return l.Name }
func (l Lit) Equal(o Term) bool { other, ok := o.(Lit); return ok && other.Name == l.Name }

// Var is a meta-variable: a schematic placeholder introduced by rules and
// filled in by substitution.
type Var struct {
	Name Name
}

func (Var) isTerm()             {}
func (v Var) String() string    { return v.Name }
func (v Var) Equal(o Term) bool { other, ok := o.(Var); return ok && other.Name == v.Name }

// Symtree is an ordered, nonempty sequence of sub-terms representing
// function application or a composite expression.
type Symtree struct {
	Children []Term
}

func (Symtree) isTerm() {}

func (s Symtree) String() string {
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (s Symtree) Equal(o Term) bool {
	other, ok := o.(Symtree)
	if !ok || len(other.Children) != len(s.Children) {
		return false
	}
	for i, c := range s.Children {
		if !c.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Hole is the anonymous wildcard: it matches anything during pattern
// matching but binds nothing.
type Hole struct{}

func (Hole) isTerm()          {}
func (Hole) String() string   { return "_" }
func (Hole) Equal(o Term) bool {
	_, ok := o.(Hole)
	return ok
}

// Vars collects the distinct free meta-variable names occurring in t, in
// first-occurrence order.
func Vars(t Term) []Name {
	seen := map[Name]bool{}
	var out []Name
	var walk func(Term)
	walk = func(t Term) {
		switch v := t.(type) {
		case Var:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case Symtree:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(t)
	return out
}
