// Package context implements the rule store from spec.md §4.E: a
// Name -> InferenceRule mapping that grows monotonically within a run and
// never removes or mutates an entry once declared. The shape follows the
// teacher's symbols.SymbolTable convention of a guarded map with an
// existence check on declare, simplified to this kernel's single namespace
// (no scoping, no shadowing at the global level — theorem-local shadowing
// is implemented one level up, in package kernel, by copying a Context).
package context

import "github.com/principia-lang/principia/internal/term"

// Rule is spec.md's InferenceRule: an ordered sequence of premise templates
// and a conclusion template, both possibly containing free meta-variables.
type Rule struct {
	Premises   []term.Term
	Conclusion term.Term
}

// Context is the mapping Name -> Rule described in spec.md §3/§4.E.
type Context struct {
	rules map[term.Name]Rule
	// order preserves declaration order for deterministic iteration
	// (diagnostics, dumps) even though rules is a map.
	order []term.Name
}

// New returns an empty Context.
func New() *Context {
	return &Context{rules: make(map[term.Name]Rule)}
}

// Declare adds name -> rule. It reports false without mutating the store if
// name is already declared — spec.md §4.E: "Duplicate declaration is
// reported but does not halt the run; the existing entry is retained."
func (c *Context) Declare(name term.Name, rule Rule) bool {
	if _, exists := c.rules[name]; exists {
		return false
	}
	c.rules[name] = rule
	c.order = append(c.order, name)
	return true
}

// Lookup returns the rule named name and whether it exists.
func (c *Context) Lookup(name term.Name) (Rule, bool) {
	r, ok := c.rules[name]
	return r, ok
}

// Has reports whether name is declared.
func (c *Context) Has(name term.Name) bool {
	_, ok := c.rules[name]
	return ok
}

// Names returns all declared names in declaration order.
func (c *Context) Names() []term.Name {
	out := make([]term.Name, len(c.order))
	copy(out, c.order)
	return out
}

// Len reports how many rules are declared.
func (c *Context) Len() int { return len(c.rules) }

// Copy returns a new Context holding the same entries as c. Used by
// kernel.CheckTheorem to build a theorem-local context that can shadow
// global names with local lemmas without mutating the shared Context —
// spec.md §9's open question "whether local lemmas should shadow global
// Context" is resolved in DESIGN.md: yes, via exactly this copy-then-extend
// pattern, matching the original implementation's τctx = curr.context.copy().
func (c *Context) Copy() *Context {
	out := &Context{
		rules: make(map[term.Name]Rule, len(c.rules)),
		order: append([]term.Name(nil), c.order...),
	}
	for k, v := range c.rules {
		out.rules[k] = v
	}
	return out
}

// Set unconditionally binds name -> rule, overwriting any prior local
// binding. Unlike Declare, this is used only on the theorem-local copy to
// install preamble premises and local lemma results, which are permitted
// to shadow a global name of the same spelling (spec.md §9).
func (c *Context) Set(name term.Name, rule Rule) {
	if _, exists := c.rules[name]; !exists {
		c.order = append(c.order, name)
	}
	c.rules[name] = rule
}
