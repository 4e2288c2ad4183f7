// Package parseradapter lowers the generic sexpr.Node AST produced by the
// external reader into term.Term, resolving infix operators by declared
// precedence and classifying leaf atoms as Lit/Var/Hole — component D of
// spec.md §4. It is a pure function of the driver's current `variables`
// list and `infix` precedence table (spec.md §3's State), never owning
// that state itself, mirroring the teacher's precedence-climbing
// expression parser (internal/parser/expressions_core.go) generalized from
// a fixed operator set to a user-declared one.
package parseradapter

import (
	"fmt"

	"github.com/principia-lang/principia/internal/sexpr"
	"github.com/principia-lang/principia/internal/term"
)

// Adapter carries the two pieces of driver state the lowering pass
// consults: which names are currently declared schematic variables, and
// which names have a registered infix precedence.
type Adapter struct {
	Variables map[term.Name]bool
	Infix     map[term.Name]int
}

// New returns an Adapter over the given variables/infix tables. Both may be
// nil, treated as empty.
func New(variables map[term.Name]bool, infix map[term.Name]int) *Adapter {
	return &Adapter{Variables: variables, Infix: infix}
}

// VarMarker is the schematic-variable sigil spec.md §4.D calls "a schematic
// marker recognized by the surface syntax": an atom beginning with '?' is a
// meta-variable regardless of whether it was separately declared via a
// `variables` form. This lets proof substitutions and one-off lemmas
// introduce a fresh meta-variable without a prior declaration.
const VarMarker = '?'

// Term lowers one sexpr.Node into a term.Term.
func (a *Adapter) Term(n sexpr.Node) (term.Term, error) {
	switch v := n.(type) {
	case sexpr.Atom:
		return a.leaf(v), nil
	case sexpr.List:
		if v.Open == sexpr.Bracket {
			return nil, &SyntaxError{fmt.Sprintf("unexpected substitution list %s where a term was expected", v.String())}
		}
		return a.list(v)
	default:
		return nil, &SyntaxError{fmt.Sprintf("unrecognized node %v", n)}
	}
}

// SyntaxError reports a malformed term shape, spec.md §7.1.
type SyntaxError struct{ Message string }

func (e *SyntaxError) Error() string { return e.Message }

func (a *Adapter) leaf(atom sexpr.Atom) term.Term {
	if atom.Value == "_" {
		return term.Hole{}
	}
	if len(atom.Value) > 0 && rune(atom.Value[0]) == VarMarker {
		return term.Var{Name: atom.Value[1:]}
	}
	if a.Variables != nil && a.Variables[atom.Value] {
		return term.Var{Name: atom.Value}
	}
	return term.Lit{Name: atom.Value}
}

func (a *Adapter) list(l sexpr.List) (term.Term, error) {
	if len(l.Items) == 0 {
		return nil, &SyntaxError{"empty term list"}
	}
	if len(l.Items) == 1 {
		single, err := a.Term(l.Items[0])
		if err != nil {
			return nil, err
		}
		return term.Symtree{Children: []term.Term{single}}, nil
	}
	if a.isInfixSequence(l.Items) {
		return a.resolveInfix(l.Items)
	}
	children := make([]term.Term, len(l.Items))
	for i, it := range l.Items {
		t, err := a.Term(it)
		if err != nil {
			return nil, err
		}
		children[i] = t
	}
	return term.Symtree{Children: children}, nil
}

// isInfixSequence reports whether items has the odd length >= 3, operand/
// operator/operand/... shape spec.md §4.D describes, with every odd-index
// element a registered infix operator. Per spec.md §4.D, "an operator with
// no registered precedence is parsed as an ordinary identifier" — here,
// that means the whole list falls back to ordinary prefix application
// instead, since a non-operator in an operator slot breaks the alternating
// shape.
func (a *Adapter) isInfixSequence(items []sexpr.Node) bool {
	if len(items)%2 == 0 || len(items) < 3 {
		return false
	}
	for i := 1; i < len(items); i += 2 {
		atom, ok := items[i].(sexpr.Atom)
		if !ok {
			return false
		}
		if _, registered := a.Infix[atom.Value]; !registered {
			return false
		}
	}
	return true
}

// resolveInfix runs precedence climbing over an alternating
// operand/operator/... sequence: higher precedence binds tighter, equal
// precedence is left-associative, per spec.md §4.D.
func (a *Adapter) resolveInfix(items []sexpr.Node) (term.Term, error) {
	operands := make([]term.Term, 0, len(items)/2+1)
	operators := make([]string, 0, len(items)/2)
	for i, it := range items {
		if i%2 == 0 {
			t, err := a.Term(it)
			if err != nil {
				return nil, err
			}
			operands = append(operands, t)
		} else {
			operators = append(operators, it.(sexpr.Atom).Value)
		}
	}

	return resolvePrecedence(operands, operators, a.Infix)
}

func resolvePrecedence(operands []term.Term, operators []string, prec map[string]int) (term.Term, error) {
	type opEntry struct {
		name string
		prec int
	}
	var outOperands []term.Term
	var opStack []opEntry

	pop := func() {
		op := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		n := len(outOperands)
		rhs, lhs := outOperands[n-1], outOperands[n-2]
		outOperands = outOperands[:n-2]
		outOperands = append(outOperands, term.Symtree{Children: []term.Term{term.Lit{Name: op.name}, lhs, rhs}})
	}

	outOperands = append(outOperands, operands[0])
	for i, op := range operators {
		p := prec[op]
		for len(opStack) > 0 && opStack[len(opStack)-1].prec >= p {
			pop()
		}
		opStack = append(opStack, opEntry{name: op, prec: p})
		outOperands = append(outOperands, operands[i+1])
	}
	for len(opStack) > 0 {
		pop()
	}
	if len(outOperands) != 1 {
		return nil, &SyntaxError{"malformed infix expression"}
	}
	return outOperands[0], nil
}
