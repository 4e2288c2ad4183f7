package driver

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/principia-lang/principia/internal/diagnostics"
)

// fakeFileInfo satisfies fs.FileInfo for TestIncludeProcessesReferencedFile,
// which stubs Driver.Stat/ReadFile instead of touching the filesystem.
type fakeFileInfo struct{}

func (fakeFileInfo) Name() string       { return "lib.principia" }
func (fakeFileInfo) Size() int64        { return 0 }
func (fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fakeFileInfo) IsDir() bool        { return false }
func (fakeFileInfo) Sys() any           { return nil }

var errNotFound = errors.New("not found")

func process(t *testing.T, source string) (*Driver, *diagnostics.Collector) {
	t.Helper()
	d := New()
	collector := &diagnostics.Collector{}
	d.ProcessSource("test.principia", source, collector)
	return d, collector
}

func TestModusPonensEndToEnd(t *testing.T) {
	source := `
(variables phi psi)
(postulate ─ A A)
(postulate ─ AimpB (imp A B))
(postulate phi (imp phi psi) ─ MP psi)
(theorem ─ B B (MP A AimpB))
`
	d, collector := process(t, source)
	require.Empty(t, collector.Diagnostics)
	require.True(t, d.State.Context.Has("B"))
}

func TestArityMismatchIsReportedAsVerification(t *testing.T) {
	source := `
(variables phi psi)
(postulate phi (imp phi psi) ─ MP psi)
(theorem ─ Bad A (MP A))
`
	_, collector := process(t, source)
	require.Len(t, collector.Diagnostics, 1)
	require.Equal(t, diagnostics.Verification, collector.Diagnostics[0].Kind)
}

func TestConclusionMismatchIsReportedAsVerification(t *testing.T) {
	source := `
(postulate ─ A A)
(theorem ─ WrongB B (A))
`
	_, collector := process(t, source)
	require.Len(t, collector.Diagnostics, 1)
	require.Equal(t, diagnostics.Verification, collector.Diagnostics[0].Kind)
}

func TestMacroExpansionAppliesBeforeChecking(t *testing.T) {
	source := `
(variables P)
(define (not P) (imp P False))
(postulate False (imp False False) ─ ExFalso False)
(postulate ─ NotFalseIsTrue (not False))
`
	d, collector := process(t, source)
	require.Empty(t, collector.Diagnostics)
	rule, ok := d.State.Context.Lookup("NotFalseIsTrue")
	require.True(t, ok)
	require.Equal(t, "(imp False False)", rule.Conclusion.String())
}

func TestSorryPassesThroughAsNoticeWithoutFailingTheorem(t *testing.T) {
	source := `
(variables phi psi)
(postulate ─ AimpB (imp A B))
(postulate phi (imp phi psi) ─ MP psi)
(theorem ─ B B (MP [phi := A] (sorry left-for-later) AimpB))
`
	d, collector := process(t, source)

	var kinds []diagnostics.Kind
	for _, diag := range collector.Diagnostics {
		kinds = append(kinds, diag.Kind)
	}
	require.Contains(t, kinds, diagnostics.SorryNotice)
	require.NotContains(t, kinds, diagnostics.Verification)
	require.True(t, d.State.Context.Has("B"))
}

func TestRedefinitionIsRefusedAndOriginalKept(t *testing.T) {
	source := `
(postulate ─ A A)
(postulate ─ A B)
`
	d, collector := process(t, source)
	require.Len(t, collector.Diagnostics, 1)
	require.Equal(t, diagnostics.Redefinition, collector.Diagnostics[0].Kind)

	rule, _ := d.State.Context.Lookup("A")
	require.Equal(t, "A", rule.Conclusion.String())
}

func TestInfixFormRegistersOperatorAndRefusesRedefinition(t *testing.T) {
	source := `
(infix and 2)
(infix and 3)
`
	d, collector := process(t, source)
	require.Equal(t, 2, d.State.Infix["and"])
	require.Len(t, collector.Diagnostics, 1)
	require.Equal(t, diagnostics.Redefinition, collector.Diagnostics[0].Kind)
}

func TestVariablesResetPerFile(t *testing.T) {
	d := New()
	collector := &diagnostics.Collector{}
	d.ProcessSource("a.principia", "(variables phi)", collector)
	require.True(t, d.State.Variables["phi"])

	d.ProcessSource("b.principia", "(postulate ─ A A)", collector)
	require.False(t, d.State.Variables["phi"])
}

func TestBoundAppendsParsedTerms(t *testing.T) {
	d, collector := process(t, "(bound A B)")
	require.Empty(t, collector.Diagnostics)
	require.Len(t, d.State.Bound, 2)
}

func TestIncompletePostulateIsSyntaxError(t *testing.T) {
	_, collector := process(t, "(postulate phi psi ─ MP)")
	require.Len(t, collector.Diagnostics, 1)
	require.Equal(t, diagnostics.Syntax, collector.Diagnostics[0].Kind)
}

func TestIncludeProcessesReferencedFile(t *testing.T) {
	d := New()
	d.ReadFile = func(path string) ([]byte, error) {
		if path == "lib.principia" {
			return []byte("(postulate ─ A A)"), nil
		}
		return nil, errNotFound
	}
	d.Stat = func(path string) (fs.FileInfo, error) {
		return fakeFileInfo{}, nil
	}

	collector := &diagnostics.Collector{}
	d.ProcessSource("main.principia", `(include lib.principia)`, collector)

	require.Empty(t, collector.Diagnostics)
	require.True(t, d.State.Context.Has("A"))
}
