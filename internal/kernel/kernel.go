// Package kernel implements the bidirectional proof checker from spec.md
// §4.F — infer and check — plus the theorem-boundary policy of §4.F/§7/§9
// (local lemmas shadow the global Context; a failed theorem reports a
// Verification diagnostic and does not enter the Context; Sorry is accepted
// with a notice and does not abort the enclosing theorem unless strict mode
// is on, in which case it is a Verification error). The recursive
// shape follows the original groupoid/principia implementation's infer/
// check functions exactly; the error-as-exception-caught-at-the-theorem-
// boundary control flow is reproduced here as a returned error checked by
// CheckTheorem, per spec.md §9's "pass an explicit State value... do not
// use ambient module-level variables" guidance.
package kernel

import (
	"fmt"

	"github.com/principia-lang/principia/internal/context"
	"github.com/principia-lang/principia/internal/diagnostics"
	"github.com/principia-lang/principia/internal/subst"
	"github.com/principia-lang/principia/internal/term"
)

// maxProofDepth bounds infer's recursion so a cyclic or pathological proof
// (e.g. a Lemma citing itself transitively) fails with a diagnostic instead
// of overflowing the stack, per spec.md §9's design note on proof
// recursion depth.
const maxProofDepth = 4096

// VerificationError is the error kind spec.md §7.3 describes: arity
// mismatch, unknown rule, premise mismatch, or conclusion mismatch. It is
// caught at the theorem boundary (CheckTheorem) and converted into a
// diagnostics.Diagnostic; it never propagates past a single theorem.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string { return e.Message }

func verr(format string, args ...any) *VerificationError {
	return &VerificationError{Message: fmt.Sprintf(format, args...)}
}

// Argument is one slot in a Proof's argument list: either a Lemma citation
// or a Sorry placeholder, per spec.md §3.
type Argument interface {
	isArgument()
}

// Lemma cites an already-established, zero-premise fact by name.
type Lemma struct {
	Name term.Name
}

func (Lemma) isArgument() {}

// Sorry is an unchecked placeholder accepted as any shape, tagged for the
// diagnostic it produces.
type Sorry struct {
	Tag string
}

func (Sorry) isArgument() {}

// Proof is a tree node citing a rule by name (Edge), one Argument per
// premise, and an explicit substitution map supplementing what matching
// infers. Substitution bodies are expected to already be parsed and
// macro-expanded by the driver before reaching the kernel (spec.md §4.F.4).
type Proof struct {
	Edge          term.Name
	Arguments     []Argument
	Substitutions subst.Subst
}

// Infer produces the conclusion Term witnessed by proof against ctx,
// reporting any Sorry encountered to sink. owner labels diagnostics with
// the theorem/postulate name currently being checked. strict implements
// spec.md §9/SPEC_FULL.md §I's configuration policy: under strict, a Sorry
// placeholder is a Verification error instead of a notice, so the theorem
// citing it is not admitted.
func Infer(ctx *context.Context, bound []term.Term, proof Proof, sink diagnostics.Sink, owner string, strict bool) (term.Term, error) {
	return infer(ctx, bound, proof, sink, owner, 0, strict)
}

func infer(ctx *context.Context, bound []term.Term, proof Proof, sink diagnostics.Sink, owner string, depth int, strict bool) (term.Term, error) {
	if depth > maxProofDepth {
		return nil, verr("proof recursion depth exceeded (possible cyclic lemma citation)")
	}

	rule, ok := ctx.Lookup(proof.Edge)
	if !ok {
		return nil, verr("unknown rule %q", proof.Edge)
	}

	if len(proof.Arguments) != len(rule.Premises) {
		return nil, verr("%q expects %d premise(s), got %d", proof.Edge, len(rule.Premises), len(proof.Arguments))
	}

	sigma := proof.Substitutions.Clone()

	for i, premiseTemplate := range rule.Premises {
		arg := proof.Arguments[i]
		switch a := arg.(type) {
		case Sorry:
			if strict {
				return nil, verr("sorry %q for premise %q of %q is not permitted in strict mode", a.Tag, premiseTemplate, proof.Edge)
			}
			if sink != nil {
				d := diagnostics.New(diagnostics.SorryNotice, "", "", owner,
					fmt.Sprintf("unchecked premise %q of %q left as sorry %q", premiseTemplate, proof.Edge, a.Tag))
				sink.Report(d)
			}
		case Lemma:
			actual, err := infer(ctx, bound, Proof{Edge: a.Name}, sink, owner, depth+1, strict)
			if err != nil {
				return nil, verr("citing %q as a premise of %q: %s", a.Name, proof.Edge, err.Error())
			}
			if !subst.Match(sigma, premiseTemplate, actual) {
				return nil, verr("premise %q of %q does not match %q (citing %q)",
					premiseTemplate, proof.Edge, actual, a.Name)
			}
		default:
			return nil, verr("unrecognized argument for premise %q of %q", premiseTemplate, proof.Edge)
		}
	}

	return subst.MultiSubst(sigma, rule.Conclusion), nil
}

// Check calls Infer to obtain proof's derived conclusion and verifies it is
// structurally equal to expected, per spec.md §4.F.check.
func Check(ctx *context.Context, bound []term.Term, expected term.Term, proof Proof, sink diagnostics.Sink, owner string, strict bool) error {
	derived, err := Infer(ctx, bound, proof, sink, owner, strict)
	if err != nil {
		return err
	}
	if !derived.Equal(expected) {
		return verr("conclusion mismatch: expected %q, derived %q", expected, derived)
	}
	return nil
}

// LocalLemma is one `name : proof` line inside a theorem body, introduced
// in order and stored as a zero-premise rule in the theorem-local context
// before later lines (and the final proof) run — spec.md §4.F.
type LocalLemma struct {
	Name  term.Name
	Proof Proof
}

// CheckTheorem implements the theorem/lemma form's admission policy
// (spec.md §4.F, §4.G, §7, §9):
//
//  1. Reject outright if name is already in ctx (Redefinition).
//  2. Build a theorem-local context that is a copy of ctx, so local
//     bindings can shadow global names without mutating ctx.
//  3. Install each preamble premise (premiseNames[i] -> premises[i]) as a
//     zero-premise local fact, standing in for the hypotheses the eventual
//     theorem's own proof may cite.
//  4. Run each local lemma's proof in order, extending the local context.
//  5. Check the final proof against conclusion.
//  6. On success, declare name -> Rule{premises, conclusion} in ctx and
//     return true. On any Verification failure, report a diagnostic and
//     return false without touching ctx — the theorem is not admitted, but
//     subsequent forms still process (spec.md §7 policy).
//
// strict implements SPEC_FULL.md §I's configuration policy: under strict, a
// Sorry placeholder anywhere in locals or final becomes a Verification
// error (via Infer/Check) rather than a notice, so the theorem is rejected
// — not merely counted — and never reaches ctx.Declare.
func CheckTheorem(
	ctx *context.Context,
	bound []term.Term,
	name term.Name,
	premiseNames []term.Name,
	premises []term.Term,
	conclusion term.Term,
	locals []LocalLemma,
	final Proof,
	sink diagnostics.Sink,
	strict bool,
) bool {
	if ctx.Has(name) {
		if sink != nil {
			sink.Report(diagnostics.New(diagnostics.Redefinition, "", "theorem", name,
				fmt.Sprintf("%q is already defined", name)))
		}
		return false
	}

	local := ctx.Copy()
	for i, pname := range premiseNames {
		local.Set(pname, context.Rule{Conclusion: premises[i]})
	}

	for _, ll := range locals {
		derived, err := Infer(local, bound, ll.Proof, sink, name, strict)
		if err != nil {
			report(sink, name, err)
			return false
		}
		local.Set(ll.Name, context.Rule{Conclusion: derived})
	}

	if err := Check(local, bound, conclusion, final, sink, name, strict); err != nil {
		report(sink, name, err)
		return false
	}

	ctx.Declare(name, context.Rule{Premises: premises, Conclusion: conclusion})
	return true
}

func report(sink diagnostics.Sink, owner string, err error) {
	if sink == nil {
		return
	}
	sink.Report(diagnostics.New(diagnostics.Verification, "", "theorem", owner, err.Error()))
}

// Declare implements spec.md §4.G's postulate form: declare name -> Rule
// unconditionally provable (no proof to check). Reports Redefinition and
// keeps the original on a name collision, per spec.md §7.2.
func Declare(ctx *context.Context, name term.Name, rule context.Rule, sink diagnostics.Sink) bool {
	if ctx.Declare(name, rule) {
		return true
	}
	if sink != nil {
		sink.Report(diagnostics.New(diagnostics.Redefinition, "", "postulate", name,
			fmt.Sprintf("%q is already postulated", name)))
	}
	return false
}
