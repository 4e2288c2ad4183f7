package rpcserver

// schemaSource is the Principia RPC service, compiled at startup via
// protoparse rather than checked-in generated code — the same no-codegen
// pattern the teacher's lib/grpc builtins use for user-supplied .proto
// files (internal/evaluator/builtins_grpc.go's grpcLoadProto), just with
// the schema baked in instead of loaded from disk. Terms and proofs travel
// as surface-syntax text, parsed by internal/driver on arrival, rather
// than as a structured message tree: this kernel's "values" already have
// a canonical textual form (term.Term.String()), so reusing it as the
// wire format avoids a second term encoding to keep in sync.
const schemaSource = `
syntax = "proto3";

package principia;

message ProofArgument {
  string lemma = 1;
  string sorry_tag = 2;
}

message ProofNode {
  string edge = 1;
  repeated ProofArgument arguments = 2;
  map<string, string> substitutions = 3;
}

message DeclareRequest {
  string name = 1;
  repeated string premises = 2;
  string conclusion = 3;
}

message DeclareResponse {
  bool ok = 1;
  string message = 2;
}

message ProveRequest {
  string name = 1;
  repeated string premises = 2;
  string conclusion = 3;
  repeated string local_names = 4;
  repeated ProofNode local_proofs = 5;
  ProofNode proof = 6;
}

message ProveResponse {
  bool ok = 1;
  string message = 2;
}

message CheckRequest {
  string conclusion = 1;
  ProofNode proof = 2;
}

message CheckResponse {
  bool ok = 1;
  string derived = 2;
  string message = 3;
}

service Principia {
  rpc Declare(DeclareRequest) returns (DeclareResponse);
  rpc Prove(ProveRequest) returns (ProveResponse);
  rpc Check(CheckRequest) returns (CheckResponse);
}
`
