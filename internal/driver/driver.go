// Package driver implements the top-level forms of spec.md §4.G — the
// "thin driver invoking kernel primitives" component that a file's worth of
// postulate/theorem/infix/variables/bound/define/include forms drive. It
// owns the process-long State of spec.md §3 and threads it through the
// Parser Adapter (parseradapter), macro expander (macro), rule store
// (context) and proof checker (kernel) on every form. The shape follows
// the teacher's pipeline.Pipeline/Processor split and pkg/cli/entry.go's
// per-file, per-form dispatch loop, simplified to this kernel's much
// smaller form set.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/principia-lang/principia/internal/context"
	"github.com/principia-lang/principia/internal/diagnostics"
	"github.com/principia-lang/principia/internal/kernel"
	"github.com/principia-lang/principia/internal/ledger"
	"github.com/principia-lang/principia/internal/macro"
	"github.com/principia-lang/principia/internal/parseradapter"
	"github.com/principia-lang/principia/internal/sexpr"
	"github.com/principia-lang/principia/internal/subst"
	"github.com/principia-lang/principia/internal/term"
)

// State is the process-long state spec.md §3 describes: variables reset
// per file, infix/context/bound/defs persisting across every file of one
// run. Strict and Ledger are the ambient policy knobs SPEC_FULL.md §I/§L
// add: Strict promotes a Sorry encountered while checking a theorem to a
// Verification error instead of a notice; Ledger, when non-nil, lets an
// admitted theorem's (name, conclusion) be recorded and consulted across
// runs.
type State struct {
	Variables map[term.Name]bool
	Infix     map[term.Name]int
	Context   *context.Context
	Bound     []term.Term
	Defs      *macro.Defs
	Strict    bool
	Ledger    *ledger.Ledger
}

// NewState returns an empty, ready-to-use State.
func NewState() *State {
	return &State{
		Variables: map[term.Name]bool{},
		Infix:     map[term.Name]int{},
		Context:   context.New(),
		Defs:      &macro.Defs{},
	}
}

// Driver processes source files against a shared State. ReadFile/Stat are
// overridable for tests; both default to the real filesystem.
type Driver struct {
	State    *State
	ReadFile func(path string) ([]byte, error)
	Stat     func(path string) (os.FileInfo, error)
}

// New returns a Driver over a fresh State.
func New() *Driver {
	return &Driver{State: NewState(), ReadFile: os.ReadFile, Stat: os.Stat}
}

type formError struct{ message string }

func (e *formError) Error() string { return e.message }

func syntaxErr(format string, args ...any) error {
	return &formError{message: fmt.Sprintf(format, args...)}
}

// isSeparator recognizes the canonical box-drawing "─" separator and the
// original implementation's "any run of '─' or '-'" leniency (spec.md §6,
// SPEC_FULL.md's supplemented-features note on isseparator/containsonly).
func isSeparator(n sexpr.Node) bool {
	a, ok := n.(sexpr.Atom)
	if !ok || a.Value == "" {
		return false
	}
	for _, r := range a.Value {
		if r != '─' && r != '-' {
			return false
		}
	}
	return true
}

func isAssign(n sexpr.Node) bool {
	a, ok := n.(sexpr.Atom)
	return ok && (a.Value == ":=" || a.Value == "≔")
}

func atomOf(n sexpr.Node) (sexpr.Atom, bool) {
	a, ok := n.(sexpr.Atom)
	return a, ok
}

// parseTerm lowers a node to a term.Term via the parser adapter and
// immediately macro-expands it, matching the original's parseterm
// (= macroexpand . term).
func (d *Driver) parseTerm(n sexpr.Node) (term.Term, error) {
	t, err := parseradapter.New(d.State.Variables, d.State.Infix).Term(n)
	if err != nil {
		return nil, err
	}
	return d.State.Defs.Expand(t), nil
}

// rawTerm lowers a node to a term.Term without macro expansion — used for
// a define form's pattern, which must match pre-expansion shapes.
func (d *Driver) rawTerm(n sexpr.Node) (term.Term, error) {
	return parseradapter.New(d.State.Variables, d.State.Infix).Term(n)
}

// ProcessSource runs every top-level form in source against d.State,
// reporting diagnostics to sink. A Syntax error aborts the rest of this
// file (spec.md §7.1); all other errors are reported per-form and
// processing continues (spec.md §7's overall policy).
func (d *Driver) ProcessSource(file, source string, sink diagnostics.Sink) {
	d.State.Variables = map[term.Name]bool{}

	nodes, err := sexpr.ReadAll(source)
	if err != nil {
		sink.Report(diagnostics.New(diagnostics.Syntax, file, "", "", err.Error()))
		return
	}

	for _, n := range nodes {
		if err := d.evaluate(file, n, sink); err != nil {
			sink.Report(diagnostics.New(diagnostics.Syntax, file, "", "", err.Error()))
			return
		}
	}
}

// ProcessFile reads path (relative to the process's working directory, or
// to the including file's directory via Include) and processes it,
// reporting I/O diagnostics for missing paths and directories per
// spec.md §6/§7.5.
func (d *Driver) ProcessFile(path string, sink diagnostics.Sink) {
	info, err := d.Stat(path)
	if err != nil {
		sink.Report(diagnostics.New(diagnostics.IOError, path, "", "", fmt.Sprintf("path %s does not exist", path)))
		return
	}
	if info.IsDir() {
		sink.Report(diagnostics.New(diagnostics.IOError, path, "", "", fmt.Sprintf("path %s is a directory", path)))
		return
	}
	data, err := d.ReadFile(path)
	if err != nil {
		sink.Report(diagnostics.New(diagnostics.IOError, path, "", "", err.Error()))
		return
	}
	d.ProcessSource(path, string(data), sink)
}

func (d *Driver) evaluate(file string, n sexpr.Node, sink diagnostics.Sink) error {
	l, ok := n.(sexpr.List)
	if !ok || l.Open != sexpr.Paren || len(l.Items) == 0 {
		return syntaxErr("malformed top-level form %s", n.String())
	}
	head, ok := atomOf(l.Items[0])
	if !ok {
		return syntaxErr("form head must be an identifier, got %s", l.Items[0].String())
	}
	tail := l.Items[1:]

	switch head.Value {
	case "postulate":
		return d.postulate(tail, sink)
	case "theorem", "lemma":
		return d.theorem(tail, sink)
	case "infix":
		return d.infix(tail, sink)
	case "variables":
		return d.variables(tail)
	case "bound":
		return d.bound(tail)
	case "define":
		return d.define(tail)
	case "include":
		return d.include(file, tail, sink)
	default:
		return syntaxErr("unknown form %q", head.Value)
	}
}

// postulate implements spec.md §4.G: one or more groups of
// `premises… ─ name conclusion`, each declaring a rule (§7.2: duplicate
// names are reported, original kept).
func (d *Driver) postulate(tail []sexpr.Node, sink diagnostics.Sink) error {
	var premises []term.Term
	i := 0
	for i < len(tail) {
		if isSeparator(tail[i]) {
			i++
			if i >= len(tail) {
				return syntaxErr("incomplete definition")
			}
			name, ok := atomOf(tail[i])
			if !ok {
				return syntaxErr("expected a name after separator, got %s", tail[i].String())
			}
			i++
			if i >= len(tail) {
				return syntaxErr("incomplete definition")
			}
			conclusion, err := d.parseTerm(tail[i])
			if err != nil {
				return err
			}
			i++
			rule := context.Rule{Premises: append([]term.Term(nil), premises...), Conclusion: conclusion}
			kernel.Declare(d.State.Context, name.Value, rule, sink)
			premises = premises[:0]
			continue
		}
		t, err := d.parseTerm(tail[i])
		if err != nil {
			return err
		}
		premises = append(premises, t)
		i++
	}
	if len(premises) > 0 {
		return syntaxErr("incomplete definition")
	}
	return nil
}

// theorem implements spec.md §4.G/§4.F: `premises… ─ name conclusion
// body…`, where body is a sequence of `local_name proof` pairs ending
// with the bare proof of conclusion.
func (d *Driver) theorem(tail []sexpr.Node, sink diagnostics.Sink) error {
	if len(tail) == 0 {
		return nil
	}

	var premises []term.Term
	i := 0
	for i < len(tail) && !isSeparator(tail[i]) {
		t, err := d.parseTerm(tail[i])
		if err != nil {
			return err
		}
		premises = append(premises, t)
		i++
	}
	if i >= len(tail) {
		return syntaxErr("incomplete theorem header")
	}
	i++ // consume separator
	if i >= len(tail) {
		return syntaxErr("incomplete theorem header")
	}
	nameAtom, ok := atomOf(tail[i])
	if !ok {
		return syntaxErr("expected a theorem name, got %s", tail[i].String())
	}
	i++
	if i >= len(tail) {
		return syntaxErr("incomplete theorem header")
	}
	conclusion, err := d.parseTerm(tail[i])
	if err != nil {
		return err
	}
	i++

	locals, final, err := d.parseBody(tail[i:])
	if err != nil {
		return err
	}

	premiseNames := make([]term.Name, len(premises))
	for j, p := range premises {
		premiseNames[j] = p.String()
	}

	// A ledger hit lets an unchanged theorem skip re-verification on a later
	// run (SPEC_FULL.md §L); parseBody above still ran, so a malformed body
	// is still caught even on a cache hit.
	conclusionText := conclusion.String()
	if d.State.Ledger != nil && !d.State.Context.Has(nameAtom.Value) {
		hit, err := d.State.Ledger.Has(nameAtom.Value, conclusionText)
		if err != nil {
			sink.Report(diagnostics.New(diagnostics.IOError, "", "theorem", nameAtom.Value, err.Error()))
		} else if hit {
			d.State.Context.Declare(nameAtom.Value, context.Rule{Premises: premises, Conclusion: conclusion})
			sink.Report(diagnostics.New(diagnostics.LedgerHit, "", "theorem", nameAtom.Value,
				fmt.Sprintf("%q already verified in ledger, skipping re-check", nameAtom.Value)))
			return nil
		}
	}

	admitted := kernel.CheckTheorem(d.State.Context, d.State.Bound, nameAtom.Value, premiseNames, premises, conclusion, locals, final, sink, d.State.Strict)
	if admitted && d.State.Ledger != nil {
		if err := d.State.Ledger.Record(nameAtom.Value, conclusionText, time.Now().Unix()); err != nil {
			sink.Report(diagnostics.New(diagnostics.IOError, "", "theorem", nameAtom.Value, err.Error()))
		}
	}
	return nil
}

func (d *Driver) parseBody(body []sexpr.Node) ([]kernel.LocalLemma, kernel.Proof, error) {
	var locals []kernel.LocalLemma
	for len(body) > 1 {
		nameAtom, ok := atomOf(body[0])
		if !ok {
			return nil, kernel.Proof{}, syntaxErr("expected a local lemma name, got %s", body[0].String())
		}
		p, err := d.parseProof(body[1])
		if err != nil {
			return nil, kernel.Proof{}, err
		}
		locals = append(locals, kernel.LocalLemma{Name: nameAtom.Value, Proof: p})
		body = body[2:]
	}
	if len(body) != 1 {
		return nil, kernel.Proof{}, syntaxErr("theorem is missing the proof of its conclusion")
	}
	final, err := d.parseProof(body[0])
	return locals, final, err
}

// parseProof lowers a node shaped (edge [substitutions] arguments…) into a
// kernel.Proof, per spec.md §3/original's proof().
func (d *Driver) parseProof(n sexpr.Node) (kernel.Proof, error) {
	l, ok := n.(sexpr.List)
	if !ok || l.Open != sexpr.Paren || len(l.Items) == 0 {
		return kernel.Proof{}, syntaxErr("invalid proof term %s", n.String())
	}
	edgeAtom, ok := atomOf(l.Items[0])
	if !ok {
		return kernel.Proof{}, syntaxErr("proof edge must be an identifier, got %s", l.Items[0].String())
	}
	rest := l.Items[1:]

	substs := subst.Subst{}
	if len(rest) > 0 {
		if bracket, ok := rest[0].(sexpr.List); ok && bracket.Open == sexpr.Bracket {
			env, err := d.parseEnv(bracket.Items)
			if err != nil {
				return kernel.Proof{}, err
			}
			substs = env
			rest = rest[1:]
		}
	}

	args := make([]kernel.Argument, len(rest))
	for i, r := range rest {
		arg, err := d.parseArgument(r)
		if err != nil {
			return kernel.Proof{}, err
		}
		args[i] = arg
	}

	return kernel.Proof{Edge: edgeAtom.Value, Arguments: args, Substitutions: substs}, nil
}

// parseArgument lowers one proof argument slot: a bare identifier names a
// Lemma; a two-element (sorry tag) list is a Sorry placeholder. Anything
// else is a Syntax error, per spec.md §4.G's supplemented note on argument().
func (d *Driver) parseArgument(n sexpr.Node) (kernel.Argument, error) {
	switch v := n.(type) {
	case sexpr.Atom:
		return kernel.Lemma{Name: v.Value}, nil
	case sexpr.List:
		if v.Open != sexpr.Paren || len(v.Items) != 2 {
			return nil, syntaxErr("invalid proof argument %s", n.String())
		}
		head, ok := atomOf(v.Items[0])
		if !ok || head.Value != "sorry" {
			return nil, syntaxErr("invalid proof argument %s", n.String())
		}
		tag, ok := atomOf(v.Items[1])
		if !ok {
			return nil, syntaxErr("sorry tag must be an identifier, got %s", v.Items[1].String())
		}
		return kernel.Sorry{Tag: tag.Value}, nil
	default:
		return nil, syntaxErr("invalid proof argument %s", n.String())
	}
}

// parseEnv lowers a substitution-list bracket's contents — alternating
// var, ":=" or "≔", term triples — into a subst.Subst, per spec.md §3 and
// the original's genenv().
func (d *Driver) parseEnv(items []sexpr.Node) (subst.Subst, error) {
	env := subst.Subst{}
	i := 0
	for i < len(items) {
		varAtom, ok := atomOf(items[i])
		if !ok {
			return nil, syntaxErr("invalid substitution list")
		}
		i++
		if i >= len(items) {
			return nil, syntaxErr("%q mapped to nothing", varAtom.Value)
		}
		if !isAssign(items[i]) {
			return nil, syntaxErr("invalid substitution list")
		}
		i++
		if i >= len(items) {
			return nil, syntaxErr("%q mapped to nothing", varAtom.Value)
		}
		body, err := d.parseTerm(items[i])
		if err != nil {
			return nil, err
		}
		i++
		env[varAtom.Value] = body
	}
	return env, nil
}

// infix implements spec.md §4.G: register (operator-name, precedence),
// refusing — with a diagnostic — to overwrite an existing one.
func (d *Driver) infix(tail []sexpr.Node, sink diagnostics.Sink) error {
	if len(tail) != 2 {
		return syntaxErr("infix expects an operator name and a precedence")
	}
	ident, ok := atomOf(tail[0])
	if !ok {
		return syntaxErr("infix operator name must be an identifier")
	}
	precAtom, ok := atomOf(tail[1])
	if !ok {
		return syntaxErr("infix precedence must be an integer")
	}
	prec, err := strconv.Atoi(precAtom.Value)
	if err != nil {
		return syntaxErr("precedence must be an integer, got %q", precAtom.Value)
	}
	if existing, exists := d.State.Infix[ident.Value]; exists {
		sink.Report(diagnostics.New(diagnostics.Redefinition, "", "infix", ident.Value,
			fmt.Sprintf("operator %q (%d) is already defined", ident.Value, existing)))
		return nil
	}
	d.State.Infix[ident.Value] = prec
	return nil
}

// variables implements spec.md §4.G: declare schematic var names for the
// current file scope.
func (d *Driver) variables(tail []sexpr.Node) error {
	for _, n := range tail {
		a, ok := atomOf(n)
		if !ok {
			return syntaxErr("variables expects identifiers, got %s", n.String())
		}
		d.State.Variables[a.Value] = true
	}
	return nil
}

// bound implements spec.md §4.G: append parsed Terms to the bound list.
func (d *Driver) bound(tail []sexpr.Node) error {
	for _, n := range tail {
		t, err := d.parseTerm(n)
		if err != nil {
			return err
		}
		d.State.Bound = append(d.State.Bound, t)
	}
	return nil
}

// define implements spec.md §4.G/§4.C: append (pattern, body) to defs. The
// pattern is lowered without macro expansion (it must match pre-expansion
// shapes); the body is lowered and expanded, per the original's
// term(pattern), parseterm(body) split.
func (d *Driver) define(tail []sexpr.Node) error {
	if len(tail) != 2 {
		return syntaxErr("define expects a pattern and a body")
	}
	pattern, err := d.rawTerm(tail[0])
	if err != nil {
		return err
	}
	body, err := d.parseTerm(tail[1])
	if err != nil {
		return err
	}
	d.State.Defs.Append(pattern, body)
	return nil
}

// ParseTermText parses a single standalone term from raw surface syntax
// (no enclosing form) against the driver's current variables/infix/defs —
// used by the RPC front end, where each request field carries surface
// syntax text directly rather than an already-parsed sexpr.Node.
func (d *Driver) ParseTermText(source string) (term.Term, error) {
	nodes, err := sexpr.ReadAll(source)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, syntaxErr("expected exactly one term, got %d", len(nodes))
	}
	return d.parseTerm(nodes[0])
}

// ParseProofText parses a single standalone proof term, e.g.
// "(MP [phi := A] AimpB A)", used by the RPC front end.
func (d *Driver) ParseProofText(source string) (kernel.Proof, error) {
	nodes, err := sexpr.ReadAll(source)
	if err != nil {
		return kernel.Proof{}, err
	}
	if len(nodes) != 1 {
		return kernel.Proof{}, syntaxErr("expected exactly one proof term, got %d", len(nodes))
	}
	return d.parseProof(nodes[0])
}

// DeclareRule exposes postulate-style rule declaration to non-file callers
// (the RPC front end's Declare RPC).
func (d *Driver) DeclareRule(name term.Name, premises []term.Term, conclusion term.Term, sink diagnostics.Sink) bool {
	return kernel.Declare(d.State.Context, name, context.Rule{Premises: premises, Conclusion: conclusion}, sink)
}

// ProveTheorem exposes theorem-style proof admission to non-file callers
// (the RPC front end's Prove RPC).
func (d *Driver) ProveTheorem(
	name term.Name,
	premiseNames []term.Name,
	premises []term.Term,
	conclusion term.Term,
	locals []kernel.LocalLemma,
	final kernel.Proof,
	sink diagnostics.Sink,
) bool {
	admitted := kernel.CheckTheorem(d.State.Context, d.State.Bound, name, premiseNames, premises, conclusion, locals, final, sink, d.State.Strict)
	if admitted && d.State.Ledger != nil {
		if err := d.State.Ledger.Record(name, conclusion.String(), time.Now().Unix()); err != nil {
			sink.Report(diagnostics.New(diagnostics.IOError, "", "theorem", name, err.Error()))
		}
	}
	return admitted
}

// Infer exposes a one-off, non-registering proof evaluation against the
// current context (the RPC front end's Check RPC, and tests).
func (d *Driver) Infer(proof kernel.Proof, sink diagnostics.Sink) (term.Term, error) {
	return kernel.Infer(d.State.Context, d.State.Bound, proof, sink, "", d.State.Strict)
}

// Check exposes a one-off, non-registering proof-against-expected check
// to non-file callers.
func (d *Driver) Check(expected term.Term, proof kernel.Proof, sink diagnostics.Sink) error {
	return kernel.Check(d.State.Context, d.State.Bound, expected, proof, sink, "", d.State.Strict)
}

// include implements spec.md §4.G: recursively process referenced file
// paths, resolved relative to the including file's directory.
func (d *Driver) include(file string, tail []sexpr.Node, sink diagnostics.Sink) error {
	base := filepath.Dir(file)
	for _, n := range tail {
		a, ok := atomOf(n)
		if !ok {
			return syntaxErr("include expects file paths, got %s", n.String())
		}
		path := a.Value
		if !filepath.IsAbs(path) && base != "." {
			path = filepath.Join(base, path)
		}
		d.ProcessFile(path, sink)
	}
	return nil
}
