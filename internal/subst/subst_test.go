package subst

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/principia-lang/principia/internal/term"
)

func TestMatchBindsMetaVariables(t *testing.T) {
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "p"}, term.Var{Name: "q"}}}
	subject := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Lit{Name: "A"}, term.Lit{Name: "B"}}}

	s := Subst{}
	require.True(t, Match(s, pattern, subject))
	require.Equal(t, term.Lit{Name: "A"}, s["p"])
	require.Equal(t, term.Lit{Name: "B"}, s["q"])
}

func TestMatchSameVariableTwiceRequiresEqualBinding(t *testing.T) {
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "and"}, term.Var{Name: "p"}, term.Var{Name: "p"}}}

	same := term.Symtree{Children: []term.Term{term.Lit{Name: "and"}, term.Lit{Name: "A"}, term.Lit{Name: "A"}}}
	s := Subst{}
	require.True(t, Match(s, pattern, same))

	different := term.Symtree{Children: []term.Term{term.Lit{Name: "and"}, term.Lit{Name: "A"}, term.Lit{Name: "B"}}}
	s2 := Subst{}
	require.False(t, Match(s2, pattern, different))
}

func TestMatchHoleMatchesAnythingAndBindsNothing(t *testing.T) {
	s := Subst{}
	require.True(t, Match(s, term.Hole{}, term.Lit{Name: "anything"}))
	require.Empty(t, s)
}

func TestMatchLitRequiresSameName(t *testing.T) {
	s := Subst{}
	require.True(t, Match(s, term.Lit{Name: "A"}, term.Lit{Name: "A"}))
	s2 := Subst{}
	require.False(t, Match(s2, term.Lit{Name: "A"}, term.Lit{Name: "B"}))
}

func TestMatchShapeMismatchFails(t *testing.T) {
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "p"}, term.Var{Name: "q"}}}
	s := Subst{}
	require.False(t, Match(s, pattern, term.Lit{Name: "A"}))
}

func TestMatchLeavesPartialBindingsOnFailure(t *testing.T) {
	pattern := term.Symtree{Children: []term.Term{
		term.Lit{Name: "and"}, term.Var{Name: "p"}, term.Lit{Name: "mismatch"},
	}}
	subject := term.Symtree{Children: []term.Term{
		term.Lit{Name: "and"}, term.Lit{Name: "A"}, term.Lit{Name: "other"},
	}}
	s := Subst{}
	require.False(t, Match(s, pattern, subject))
	require.Equal(t, term.Lit{Name: "A"}, s["p"])
}

func TestMultiSubstIsIdentityWithEmptySubst(t *testing.T) {
	tree := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "p"}, term.Lit{Name: "B"}}}
	require.True(t, MultiSubst(Subst{}, tree).Equal(tree))
}

func TestMultiSubstReplacesBoundVariables(t *testing.T) {
	tree := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "p"}, term.Var{Name: "q"}}}
	s := Subst{"p": term.Lit{Name: "A"}, "q": term.Lit{Name: "B"}}

	want := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Lit{Name: "A"}, term.Lit{Name: "B"}}}
	require.True(t, MultiSubst(s, tree).Equal(want))
}

func TestMultiSubstLeavesUnboundVariablesAlone(t *testing.T) {
	v := term.Var{Name: "unbound"}
	require.Equal(t, v, MultiSubst(Subst{}, v))
}

func TestMultiSubstDoesNotSubstituteIntoHole(t *testing.T) {
	require.Equal(t, term.Hole{}, MultiSubst(Subst{"p": term.Lit{Name: "A"}}, term.Hole{}))
}

func TestMatchThenMultiSubstRoundTrips(t *testing.T) {
	pattern := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Var{Name: "p"}, term.Var{Name: "q"}}}
	subject := term.Symtree{Children: []term.Term{term.Lit{Name: "imp"}, term.Lit{Name: "A"}, term.Lit{Name: "B"}}}

	s := Subst{}
	require.True(t, Match(s, pattern, subject))
	require.True(t, MultiSubst(s, pattern).Equal(subject))
}
