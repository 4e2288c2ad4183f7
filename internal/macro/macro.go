// Package macro implements the first-match, outside-in macro expander from
// spec.md §4.C: a fixpoint-free, single-head-rewrite-per-node pass over a
// user-ordered list of rewrite rules, the same "defs" list spec.md §3
// describes as append-only and order-sensitive.
package macro

import (
	"github.com/principia-lang/principia/internal/subst"
	"github.com/principia-lang/principia/internal/term"
)

// Def is one user-declared rewrite rule: pattern -> body.
type Def struct {
	Pattern term.Term
	Body    term.Term
}

// Defs is the ordered, append-only list of macro rules. Declaration order
// is the match-priority order; it is never sorted or deduplicated, per
// spec.md §9.
type Defs struct {
	rules []Def
}

// Append adds a new rule at the end of the list.
func (d *Defs) Append(pattern, body term.Term) {
	d.rules = append(d.rules, Def{Pattern: pattern, Body: body})
}

// Len reports how many rules have been declared.
func (d *Defs) Len() int { return len(d.rules) }

// Expand performs one outside-in rewrite pass over t: it tries each rule in
// declaration order against t's outermost shape, rewrites and stops at the
// first match, then — regardless of whether a rewrite fired — recurses into
// a term.Symtree's children so nested redexes settle. Termination is the
// caller's responsibility; spec.md §4.C makes no confluence or termination
// guarantee.
func (d *Defs) Expand(t term.Term) term.Term {
	for _, rule := range d.rules {
		s := subst.Subst{}
		if subst.Match(s, rule.Pattern, t) {
			t = subst.MultiSubst(s, rule.Body)
			break
		}
	}

	if tree, ok := t.(term.Symtree); ok {
		children := make([]term.Term, len(tree.Children))
		for i, c := range tree.Children {
			children[i] = d.Expand(c)
		}
		return term.Symtree{Children: children}
	}

	return t
}
