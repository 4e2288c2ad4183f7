// Package diagnostics abstracts error/notice reporting behind a Sink
// interface, per spec.md §9's explicit guidance ("abstract behind a sink
// interface so tests can collect and assert on messages without capturing
// standard output"). The shape follows the teacher's LSP diagnostic
// conversion (cmd/lsp/diagnostics.go's DiagnosticError: a Kind/Code, a
// location, and a rendered message) minus the source-position fields this
// kernel's callers don't have (no token stream reaches this layer).
package diagnostics

import "github.com/google/uuid"

// Kind enumerates the five error kinds spec.md §7 defines (Syntax through
// IOError) plus LedgerHit, the informational notice internal/driver emits
// when a theorem is admitted from the ledger without re-checking.
type Kind int

const (
	Syntax Kind = iota
	Redefinition
	Verification
	SorryNotice
	IOError
	LedgerHit
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case Redefinition:
		return "redefinition"
	case Verification:
		return "verification"
	case SorryNotice:
		return "sorry"
	case IOError:
		return "io"
	case LedgerHit:
		return "ledger"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported event. File/Form/Name identify where it came
// from (spec.md §6: "human-readable lines identifying file/form/name");
// Message is the human-readable text. Expected/Derived are fields for the
// two renderings of a conclusion mismatch; the kernel's Verification
// diagnostics do not fill them and carry both renderings inside Message.
type Diagnostic struct {
	ID       uuid.UUID
	Kind     Kind
	File     string
	Form     string
	Name     string
	Message  string
	Expected string
	Derived  string
}

// Sink receives diagnostics as they're produced. Implementations must not
// block the caller for long — the kernel is synchronous (spec.md §5) and a
// slow sink stalls verification.
type Sink interface {
	Report(Diagnostic)
}

// New builds a Diagnostic with a fresh id, the one piece of bookkeeping
// every sink implementation would otherwise have to invent for itself.
func New(kind Kind, file, form, name, message string) Diagnostic {
	return Diagnostic{ID: uuid.New(), Kind: kind, File: file, Form: form, Name: name, Message: message}
}

// Collector is a Sink that appends every diagnostic to an in-memory slice.
// Tests and the RPC front end use it instead of scraping stdout.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// HasErrors reports whether any collected diagnostic is not a bare Sorry
// notice or ledger-hit annotation admitted under the default policy.
func (c *Collector) HasErrors() bool {
	for _, d := range c.Diagnostics {
		if d.Kind != SorryNotice && d.Kind != LedgerHit {
			return true
		}
	}
	return false
}
