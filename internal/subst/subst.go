// Package subst implements first-order pattern matching and capture-free
// substitution over term.Term, the two primitives spec.md §4.B describes.
// There is no α-conversion: meta-variables are globally named and the term
// language has no binders, so a plain map from name to term.Term suffices —
// the same shape the teacher uses for typesystem.Subst, just over untyped
// terms instead of types.
package subst

import "github.com/principia-lang/principia/internal/term"

// Subst maps a meta-variable name to the term.Term it is bound to.
type Subst map[term.Name]term.Term

// Clone returns a shallow copy. Callers that need an atomic attempt at
// matching (rather than observing partial bindings on failure, as spec.md
// §4.B's design notes flag as a source-behavior quirk) should match against
// a clone and only merge it back on success.
func (s Subst) Clone() Subst {
	out := make(Subst, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Match attempts to extend s so that applying it to pattern yields subject.
// It mutates s in place and returns whether matching succeeded; on failure,
// any bindings added before the failing sub-match remain in s — this
// mirrors the original implementation's behavior exactly (spec.md §4.B,
// §9's open question "whether match leaving partial bindings after failure
// is intentional": the original does this, and kernel.infer always matches
// against a substitution it's prepared to discard on failure, so the kernel
// never observes it as a correctness bug).
func Match(s Subst, pattern, subject term.Term) bool {
	switch p := pattern.(type) {
	case term.Hole:
		return true
	case term.Var:
		if bound, ok := s[p.Name]; ok {
			return bound.Equal(subject)
		}
		s[p.Name] = subject
		return true
	case term.Lit:
		other, ok := subject.(term.Lit)
		return ok && other.Name == p.Name
	case term.Symtree:
		other, ok := subject.(term.Symtree)
		if !ok || len(other.Children) != len(p.Children) {
			return false
		}
		for i, pc := range p.Children {
			if !Match(s, pc, other.Children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MultiSubst performs a capture-free rewrite of t: every term.Var bound in
// s is replaced by its binding; term.Symtree recurses into children;
// term.Lit and term.Hole are returned unchanged. The result is not
// re-expanded — callers decide whether to run the macro expander over it.
func MultiSubst(s Subst, t term.Term) term.Term {
	switch v := t.(type) {
	case term.Var:
		if bound, ok := s[v.Name]; ok {
			return bound
		}
		return v
	case term.Symtree:
		children := make([]term.Term, len(v.Children))
		for i, c := range v.Children {
			children[i] = MultiSubst(s, c)
		}
		return term.Symtree{Children: children}
	default:
		return t
	}
}
