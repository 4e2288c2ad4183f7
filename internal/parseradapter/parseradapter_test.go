package parseradapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/principia-lang/principia/internal/sexpr"
	"github.com/principia-lang/principia/internal/term"
)

func parseOne(t *testing.T, a *Adapter, source string) term.Term {
	t.Helper()
	nodes, err := sexpr.ReadAll(source)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	result, err := a.Term(nodes[0])
	require.NoError(t, err)
	return result
}

func TestLeafClassification(t *testing.T) {
	a := New(map[term.Name]bool{"phi": true}, nil)

	require.Equal(t, term.Var{Name: "phi"}, parseOne(t, a, "phi"))
	require.Equal(t, term.Lit{Name: "A"}, parseOne(t, a, "A"))
	require.Equal(t, term.Hole{}, parseOne(t, a, "_"))
	require.Equal(t, term.Var{Name: "fresh"}, parseOne(t, a, "?fresh"))
}

func TestApplicationWithoutInfix(t *testing.T) {
	a := New(nil, nil)
	got := parseOne(t, a, "(MP A AimpB)")
	want := term.Symtree{Children: []term.Term{
		term.Lit{Name: "MP"}, term.Lit{Name: "A"}, term.Lit{Name: "AimpB"},
	}}
	require.True(t, got.Equal(want))
}

func TestSingleElementListWraps(t *testing.T) {
	a := New(nil, nil)
	got := parseOne(t, a, "(A)")
	require.True(t, got.Equal(term.Symtree{Children: []term.Term{term.Lit{Name: "A"}}}))
}

func TestInfixResolutionRespectsPrecedence(t *testing.T) {
	a := New(map[term.Name]bool{"p": true, "q": true, "r": true}, map[term.Name]int{"and": 2, "or": 1})
	// p or q and r  ==  p or (q and r)
	got := parseOne(t, a, "(p or q and r)")
	want := term.Symtree{Children: []term.Term{
		term.Lit{Name: "or"},
		term.Var{Name: "p"},
		term.Symtree{Children: []term.Term{term.Lit{Name: "and"}, term.Var{Name: "q"}, term.Var{Name: "r"}}},
	}}
	require.True(t, got.Equal(want))
}

func TestInfixResolutionIsLeftAssociativeAtEqualPrecedence(t *testing.T) {
	a := New(map[term.Name]bool{"p": true, "q": true, "r": true}, map[term.Name]int{"and": 2})
	// p and q and r == (p and q) and r
	got := parseOne(t, a, "(p and q and r)")
	want := term.Symtree{Children: []term.Term{
		term.Lit{Name: "and"},
		term.Symtree{Children: []term.Term{term.Lit{Name: "and"}, term.Var{Name: "p"}, term.Var{Name: "q"}}},
		term.Var{Name: "r"},
	}}
	require.True(t, got.Equal(want))
}

func TestUnregisteredOperatorFallsBackToPrefixApplication(t *testing.T) {
	a := New(map[term.Name]bool{"p": true}, map[term.Name]int{"and": 2})
	// "xor" has no registered precedence: the whole list is prefix application.
	got := parseOne(t, a, "(p xor p)")
	want := term.Symtree{Children: []term.Term{term.Var{Name: "p"}, term.Lit{Name: "xor"}, term.Var{Name: "p"}}}
	require.True(t, got.Equal(want))
}

func TestBracketListAsTermIsSyntaxError(t *testing.T) {
	a := New(nil, nil)
	nodes, err := sexpr.ReadAll("[phi := A]")
	require.NoError(t, err)
	_, err = a.Term(nodes[0])
	require.Error(t, err)
}

func TestEmptyListIsSyntaxError(t *testing.T) {
	a := New(nil, nil)
	nodes, err := sexpr.ReadAll("()")
	require.NoError(t, err)
	_, err = a.Term(nodes[0])
	require.Error(t, err)
}
