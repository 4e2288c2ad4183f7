package macro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/principia-lang/principia/internal/term"
)

func TestExpandRewritesOutermostMatch(t *testing.T) {
	var defs Defs
	// define (not P) := (imp P False)
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "not"}, term.Var{Name: "P"}}}
	body := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "P"}, term.Lit{Name: "False"}}}
	defs.Append(pattern, body)

	input := term.Symtree{Children: []term.Term{term.Lit{Name: "not"}, term.Lit{Name: "A"}}}
	want := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Lit{Name: "A"}, term.Lit{Name: "False"}}}

	require.True(t, defs.Expand(input).Equal(want))
}

func TestExpandRecursesIntoChildrenAfterNoMatch(t *testing.T) {
	var defs Defs
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "not"}, term.Var{Name: "P"}}}
	body := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "P"}, term.Lit{Name: "False"}}}
	defs.Append(pattern, body)

	input := term.Symtree{Children: []term.Term{
		term.Lit{Name: "and"},
		term.Symtree{Children: []term.Term{term.Lit{Name: "not"}, term.Lit{Name: "A"}}},
		term.Lit{Name: "B"},
	}}
	want := term.Symtree{Children: []term.Term{
		term.Lit{Name: "and"},
		term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Lit{Name: "A"}, term.Lit{Name: "False"}}},
		term.Lit{Name: "B"},
	}}

	require.True(t, defs.Expand(input).Equal(want))
}

func TestExpandLeavesNonMatchingTermsUnchanged(t *testing.T) {
	var defs Defs
	defs.Append(term.Lit{Name: "never-matches-a-symtree"}, term.Lit{Name: "irrelevant"})

	input := term.Lit{Name: "A"}
	require.True(t, defs.Expand(input).Equal(input))
}

func TestExpandUsesFirstMatchingRuleInDeclarationOrder(t *testing.T) {
	var defs Defs
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "f"}, term.Var{Name: "x"}}}
	defs.Append(pattern, term.Lit{Name: "first"})
	defs.Append(pattern, term.Lit{Name: "second"})

	input := term.Symtree{Children: []term.Term{term.Lit{Name: "f"}, term.Lit{Name: "A"}}}
	require.Equal(t, term.Lit{Name: "first"}, defs.Expand(input))
}

func TestLenTracksAppendedRules(t *testing.T) {
	var defs Defs
	require.Equal(t, 0, defs.Len())
	defs.Append(term.Lit{Name: "a"}, term.Lit{Name: "b"})
	require.Equal(t, 1, defs.Len())
}
