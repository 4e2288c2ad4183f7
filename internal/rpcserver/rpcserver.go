// Package rpcserver is the optional gRPC front end SPEC_FULL.md's RPC
// component adds over internal/driver: Declare/Prove/Check exposed as
// unary RPCs against an embedded, runtime-compiled .proto schema. The
// pattern — protoparse compiles the schema, dynamic.Message stands in for
// generated request/response types, a hand-built grpc.ServiceDesc wires
// method names to a single reflective handler — is lifted directly from
// the teacher's builtinGrpcServer/builtinGrpcRegister/FunxyGrpcHandler
// trio in internal/evaluator/builtins_grpc.go, generalized from
// user-supplied protos and Funxy values to this package's fixed schema
// and term.Term values.
package rpcserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/principia-lang/principia/internal/diagnostics"
	"github.com/principia-lang/principia/internal/driver"
	"github.com/principia-lang/principia/internal/kernel"
	"github.com/principia-lang/principia/internal/subst"
	"github.com/principia-lang/principia/internal/term"
)

// Server serves the Principia RPC schema against a single shared
// *driver.Driver, the way cmd/principia's CLI path shares one State
// across every file it processes (spec.md §6).
type Server struct {
	Driver *driver.Driver
	Addr   string

	grpcServer *grpc.Server
	fileDesc   *desc.FileDescriptor
	serviceDesc *desc.ServiceDescriptor

	// mu serializes RPC calls so each holds the shared State exclusively.
	mu sync.Mutex
}

// New returns a Server over driver, listening at addr once Serve runs.
func New(d *driver.Driver, addr string) *Server {
	return &Server{Driver: d, Addr: addr}
}

// compileSchema parses schemaSource from memory — no filesystem, no
// codegen — the same Accessor-backed protoparse.Parser call the teacher
// uses for on-disk .proto files, pointed at an in-memory map instead.
func compileSchema() (*desc.FileDescriptor, *desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"principia.proto": schemaSource,
		}),
	}
	fds, err := parser.ParseFiles("principia.proto")
	if err != nil {
		return nil, nil, fmt.Errorf("compiling embedded RPC schema: %w", err)
	}
	fd := fds[0]
	sd := fd.FindService("principia.Principia")
	if sd == nil {
		return nil, nil, fmt.Errorf("service principia.Principia not found in compiled schema")
	}
	return fd, sd, nil
}

// Serve compiles the embedded schema, builds the grpc.ServiceDesc, and
// blocks serving on Addr until Stop is called or Serve returns an error.
func (s *Server) Serve() error {
	fd, sd, err := compileSchema()
	if err != nil {
		return err
	}
	s.fileDesc, s.serviceDesc = fd, sd

	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr, err)
	}

	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(s.buildServiceDesc(sd), s)
	return s.grpcServer.Serve(lis)
}

// Stop gracefully shuts down the server. Safe to call before Serve starts.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func (s *Server) buildServiceDesc(sd *desc.ServiceDescriptor) *grpc.ServiceDesc {
	gd := &grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*any)(nil),
		Metadata:    sd.GetFile().GetName(),
	}
	for _, method := range sd.GetMethods() {
		md := method
		gd.Methods = append(gd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				return srv.(*Server).dispatch(md, dec)
			},
		})
	}
	return gd
}

func (s *Server) dispatch(md *desc.MethodDescriptor, dec func(any) error) (any, error) {
	in := dynamic.NewMessage(md.GetInputType())
	if err := dec(in); err != nil {
		return nil, err
	}
	out := dynamic.NewMessage(md.GetOutputType())

	s.mu.Lock()
	defer s.mu.Unlock()

	switch md.GetName() {
	case "Declare":
		s.handleDeclare(in, out)
	case "Prove":
		s.handleProve(in, out)
	case "Check":
		s.handleCheck(in, out)
	default:
		return nil, fmt.Errorf("unknown method %q", md.GetName())
	}
	return out, nil
}

func (s *Server) handleDeclare(in, out *dynamic.Message) {
	name := getString(in, "name")
	premiseTexts := getStringSlice(in, "premises")

	premises, err := s.parseTerms(premiseTexts)
	if err != nil {
		setFailure(out, err)
		return
	}
	conclusion, err := s.Driver.ParseTermText(getString(in, "conclusion"))
	if err != nil {
		setFailure(out, err)
		return
	}

	collector := &diagnostics.Collector{}
	ok := s.Driver.DeclareRule(name, premises, conclusion, collector)
	out.SetFieldByName("ok", ok)
	out.SetFieldByName("message", renderDiagnostics(collector))
}

func (s *Server) handleProve(in, out *dynamic.Message) {
	name := getString(in, "name")
	premiseTexts := getStringSlice(in, "premises")
	localNames := getStringSlice(in, "local_names")

	premises, err := s.parseTerms(premiseTexts)
	if err != nil {
		setFailure(out, err)
		return
	}
	conclusion, err := s.Driver.ParseTermText(getString(in, "conclusion"))
	if err != nil {
		setFailure(out, err)
		return
	}

	var locals []kernel.LocalLemma
	for i, lp := range getMessageSlice(in, "local_proofs") {
		proof, err := s.parseProofMessage(lp)
		if err != nil {
			setFailure(out, err)
			return
		}
		lname := ""
		if i < len(localNames) {
			lname = localNames[i]
		}
		locals = append(locals, kernel.LocalLemma{Name: lname, Proof: proof})
	}

	finalMsg, ok := in.GetFieldByName("proof").(*dynamic.Message)
	if !ok || finalMsg == nil {
		setFailure(out, fmt.Errorf("missing proof"))
		return
	}
	final, err := s.parseProofMessage(finalMsg)
	if err != nil {
		setFailure(out, err)
		return
	}

	premiseNames := make([]term.Name, len(premises))
	for i, p := range premises {
		premiseNames[i] = p.String()
	}

	collector := &diagnostics.Collector{}
	admitted := s.Driver.ProveTheorem(name, premiseNames, premises, conclusion, locals, final, collector)
	out.SetFieldByName("ok", admitted)
	out.SetFieldByName("message", renderDiagnostics(collector))
}

func (s *Server) handleCheck(in, out *dynamic.Message) {
	conclusion, err := s.Driver.ParseTermText(getString(in, "conclusion"))
	if err != nil {
		setCheckFailure(out, err)
		return
	}
	proofMsg, ok := in.GetFieldByName("proof").(*dynamic.Message)
	if !ok || proofMsg == nil {
		setCheckFailure(out, fmt.Errorf("missing proof"))
		return
	}
	proof, err := s.parseProofMessage(proofMsg)
	if err != nil {
		setCheckFailure(out, err)
		return
	}

	collector := &diagnostics.Collector{}
	derived, err := s.Driver.Infer(proof, collector)
	if err != nil {
		out.SetFieldByName("ok", false)
		out.SetFieldByName("message", err.Error())
		return
	}
	out.SetFieldByName("derived", derived.String())
	if !derived.Equal(conclusion) {
		out.SetFieldByName("ok", false)
		out.SetFieldByName("message", fmt.Sprintf("conclusion mismatch: expected %q, derived %q", conclusion, derived))
		return
	}
	out.SetFieldByName("ok", true)
	out.SetFieldByName("message", renderDiagnostics(collector))
}

func (s *Server) parseTerms(texts []string) ([]term.Term, error) {
	out := make([]term.Term, len(texts))
	for i, t := range texts {
		parsed, err := s.Driver.ParseTermText(t)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

func (s *Server) parseProofMessage(msg *dynamic.Message) (kernel.Proof, error) {
	edge := getString(msg, "edge")

	var args []kernel.Argument
	for _, am := range getMessageSlice(msg, "arguments") {
		tag := getString(am, "sorry_tag")
		if tag != "" {
			args = append(args, kernel.Sorry{Tag: tag})
			continue
		}
		args = append(args, kernel.Lemma{Name: getString(am, "lemma")})
	}

	substs := subst.Subst{}
	for k, v := range getStringMap(msg, "substitutions") {
		t, err := s.Driver.ParseTermText(v)
		if err != nil {
			return kernel.Proof{}, err
		}
		substs[k] = t
	}

	return kernel.Proof{Edge: edge, Arguments: args, Substitutions: substs}, nil
}

func setFailure(out *dynamic.Message, err error) {
	out.SetFieldByName("ok", false)
	out.SetFieldByName("message", err.Error())
}

func setCheckFailure(out *dynamic.Message, err error) {
	out.SetFieldByName("ok", false)
	out.SetFieldByName("message", err.Error())
}

func renderDiagnostics(c *diagnostics.Collector) string {
	if len(c.Diagnostics) == 0 {
		return ""
	}
	msg := ""
	for i, d := range c.Diagnostics {
		if i > 0 {
			msg += "; "
		}
		msg += d.Kind.String() + ": " + d.Message
	}
	return msg
}

// getString/getStringSlice/getMessageSlice/getStringMap tolerate the
// handful of Go representations protoreflect/dynamic's reflective getters
// may hand back for a given wire type, the same defensive unwrapping the
// teacher's convertFromProtoValue does field-by-field in builtins_grpc.go.

func getString(msg *dynamic.Message, field string) string {
	v := msg.GetFieldByName(field)
	s, _ := v.(string)
	return s
}

func getStringSlice(msg *dynamic.Message, field string) []string {
	v := msg.GetFieldByName(field)
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func getMessageSlice(msg *dynamic.Message, field string) []*dynamic.Message {
	v := msg.GetFieldByName(field)
	vs, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]*dynamic.Message, 0, len(vs))
	for _, e := range vs {
		if m, ok := e.(*dynamic.Message); ok {
			out = append(out, m)
		}
	}
	return out
}

func getStringMap(msg *dynamic.Message, field string) map[string]string {
	v := msg.GetFieldByName(field)
	out := map[string]string{}
	switch m := v.(type) {
	case map[any]any:
		for k, val := range m {
			ks, _ := k.(string)
			vs, _ := val.(string)
			out[ks] = vs
		}
	case map[string]any:
		for k, val := range m {
			vs, _ := val.(string)
			out[k] = vs
		}
	}
	return out
}
