// Package jsonrpc implements the protocol dispatcher: a JSON-RPC 2.0 style
// envelope over the retrieval operations, shared by the streaming and the
// direct request/response bindings.
package jsonrpc

import "encoding/json"

// Version is the JSON-RPC protocol version literal.
const Version = "2.0"

// Error codes. The -32xxx range follows JSON-RPC 2.0; CodeCapability is
// the named application error for an unknown capability.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeCapability     = -32000
)

// Request is an incoming JSON-RPC request envelope. The ID is kept raw so
// it can be echoed back exactly, whatever its JSON type.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC response envelope. Exactly one of
// Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the JSON-RPC error member.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// nullID is the ID used when the request ID could not be read.
var nullID = json.RawMessage("null")

func result(id json.RawMessage, v any) Response {
	if id == nil {
		id = nullID
	}
	return Response{JSONRPC: Version, ID: id, Result: v}
}

func failure(id json.RawMessage, code int, message string) Response {
	if id == nil {
		id = nullID
	}
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message},
	}
}
