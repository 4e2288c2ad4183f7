package context

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/principia-lang/principia/internal/term"
)

func TestDeclareThenLookup(t *testing.T) {
	ctx := New()
	rule := Rule{Premises: []term.Term{term.Var{Name: "p"}}, Conclusion: term.Var{Name: "p"}}
	require.True(t, ctx.Declare("Id", rule))

	got, ok := ctx.Lookup("Id")
	require.True(t, ok)
	require.Equal(t, rule, got)
}

func TestDeclareRejectsDuplicateAndKeepsOriginal(t *testing.T) {
	ctx := New()
	original := Rule{Conclusion: term.Lit{Name: "A"}}
	require.True(t, ctx.Declare("X", original))

	require.False(t, ctx.Declare("X", Rule{Conclusion: term.Lit{Name: "B"}}))

	got, ok := ctx.Lookup("X")
	require.True(t, ok)
	require.Equal(t, original, got)
}

func TestHasAndLenAndNamesOrder(t *testing.T) {
	ctx := New()
	require.False(t, ctx.Has("A"))
	ctx.Declare("A", Rule{Conclusion: term.Lit{Name: "A"}})
	ctx.Declare("B", Rule{Conclusion: term.Lit{Name: "B"}})

	require.True(t, ctx.Has("A"))
	require.Equal(t, 2, ctx.Len())
	require.Equal(t, []term.Name{"A", "B"}, ctx.Names())
}

func TestCopyIsIndependentOfOriginal(t *testing.T) {
	ctx := New()
	ctx.Declare("A", Rule{Conclusion: term.Lit{Name: "A"}})

	clone := ctx.Copy()
	clone.Set("B", Rule{Conclusion: term.Lit{Name: "B"}})

	require.False(t, ctx.Has("B"))
	require.True(t, clone.Has("B"))
	require.Equal(t, 1, ctx.Len())
	require.Equal(t, 2, clone.Len())
}

func TestSetShadowsExistingNameOnCopyOnly(t *testing.T) {
	ctx := New()
	ctx.Declare("A", Rule{Conclusion: term.Lit{Name: "global"}})

	clone := ctx.Copy()
	clone.Set("A", Rule{Conclusion: term.Lit{Name: "local"}})

	globalRule, _ := ctx.Lookup("A")
	localRule, _ := clone.Lookup("A")
	require.Equal(t, term.Lit{Name: "global"}, globalRule.Conclusion)
	require.Equal(t, term.Lit{Name: "local"}, localRule.Conclusion)
}

func TestContextGrowsMonotonically(t *testing.T) {
	ctx := New()
	require.Equal(t, 0, ctx.Len())
	for i, name := range []term.Name{"A", "B", "C"} {
		ctx.Declare(name, Rule{Conclusion: term.Lit{Name: name}})
		require.Equal(t, i+1, ctx.Len())
	}
}
