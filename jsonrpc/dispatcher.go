package jsonrpc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fwojciec/docserve"
)

// Protocol methods.
const (
	MethodInitialize       = "initialize"
	MethodListCapabilities = "list-capabilities"
	MethodInvokeCapability = "invoke-capability"
)

// Capability names exposed over the protocol.
const (
	CapSearchDocumentation = "search_documentation"
	CapGetAPIReference     = "get_api_reference"
	CapFindExamples        = "find_examples"
	CapGetMigrationGuide   = "get_migration_guide"
)

// Dispatcher validates and routes protocol requests to the retrieval
// orchestrator. It holds no per-request state: concurrent requests share
// only the orchestrator and whatever it wraps.
type Dispatcher struct {
	orchestrator docserve.Orchestrator
	logger       *slog.Logger
	name         string
	version      string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(d *Dispatcher) {
		d.name = name
		d.version = version
	}
}

// NewDispatcher creates a Dispatcher over the given orchestrator.
func NewDispatcher(orchestrator docserve.Orchestrator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		orchestrator: orchestrator,
		logger:       slog.New(slog.DiscardHandler),
		name:         "docserve",
		version:      "dev",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles one raw request and always produces a response. Error
// responses carry the original request id (or null) and a safe message:
// internal detail is logged, never surfaced.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return failure(nil, CodeParseError, "Parse error")
	}

	if req.JSONRPC != Version {
		return failure(req.ID, CodeInvalidRequest, "Invalid request")
	}

	switch req.Method {
	case MethodInitialize:
		return result(req.ID, d.initializeResult())
	case MethodListCapabilities:
		return result(req.ID, d.listResult())
	case MethodInvokeCapability:
		return d.invoke(ctx, req)
	default:
		return failure(req.ID, CodeMethodNotFound, "Method not found")
	}
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      serverInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

func (d *Dispatcher) initializeResult() initializeResult {
	return initializeResult{
		ProtocolVersion: Version,
		ServerInfo:      serverInfo{Name: d.name, Version: d.version},
		Capabilities:    map[string]any{"capabilities": map[string]any{}},
	}
}

// Capability describes one invocable operation for list-capabilities.
type Capability struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type listResult struct {
	Capabilities []Capability `json:"capabilities"`
}

func (d *Dispatcher) listResult() listResult {
	return listResult{Capabilities: capabilities()}
}

type invokeParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) invoke(ctx context.Context, req Request) Response {
	if len(req.Params) == 0 {
		return failure(req.ID, CodeInvalidParams, "Invalid params")
	}

	var params invokeParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return failure(req.ID, CodeInvalidParams, "Invalid params")
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	var (
		v   any
		err error
	)
	switch params.Name {
	case CapSearchDocumentation:
		var r docserve.SearchRequest
		if jsonErr := json.Unmarshal(args, &r); jsonErr != nil {
			return failure(req.ID, CodeInvalidParams, "Invalid params")
		}
		v, err = d.orchestrator.Search(ctx, r)
	case CapGetAPIReference:
		var r docserve.ReferenceRequest
		if jsonErr := json.Unmarshal(args, &r); jsonErr != nil {
			return failure(req.ID, CodeInvalidParams, "Invalid params")
		}
		v, err = d.orchestrator.Reference(ctx, r)
	case CapFindExamples:
		var r docserve.ExamplesRequest
		if jsonErr := json.Unmarshal(args, &r); jsonErr != nil {
			return failure(req.ID, CodeInvalidParams, "Invalid params")
		}
		v, err = d.orchestrator.Examples(ctx, r)
	case CapGetMigrationGuide:
		var r docserve.MigrationRequest
		if jsonErr := json.Unmarshal(args, &r); jsonErr != nil {
			return failure(req.ID, CodeInvalidParams, "Invalid params")
		}
		v, err = d.orchestrator.MigrationGuide(ctx, r)
	default:
		return failure(req.ID, CodeCapability, "Capability not found")
	}

	if err != nil {
		return d.operationError(req.ID, err)
	}
	return result(req.ID, v)
}

// operationError maps domain errors to protocol errors. Validation
// messages are surfaced verbatim; everything else crosses the boundary as
// generic text only, with the detail logged internally.
func (d *Dispatcher) operationError(id json.RawMessage, err error) Response {
	switch docserve.ErrorCode(err) {
	case docserve.EINVALID:
		return failure(id, CodeInvalidParams, docserve.ErrorMessage(err))
	case docserve.ESECURITY:
		return failure(id, CodeCapability, "Request not allowed")
	case docserve.ENOTFOUND:
		return failure(id, CodeCapability, docserve.ErrorMessage(err))
	default:
		d.logger.Error("dispatch: internal error", "error", err)
		return failure(id, CodeInternalError, "Internal error")
	}
}

// capabilities lists the protocol surface with JSON-schema-shaped input
// descriptors.
func capabilities() []Capability {
	return []Capability{
		{
			Name:        CapSearchDocumentation,
			Description: "Search documentation across configured sources",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":   map[string]any{"type": "string"},
					"sources": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"type":    map[string]any{"type": "string", "enum": []string{"api", "guide", "example", "migration"}},
					"limit":   map[string]any{"type": "number", "minimum": 1, "maximum": docserve.MaxSearchLimit},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        CapGetAPIReference,
			Description: "Get the reference entry for a named API from one source",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"apiName": map[string]any{"type": "string"},
					"source":  map[string]any{"type": "string"},
					"version": map[string]any{"type": "string"},
				},
				"required": []string{"apiName", "source"},
			},
		},
		{
			Name:        CapFindExamples,
			Description: "Find code examples for a topic",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":    map[string]any{"type": "string"},
					"sources":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"language": map[string]any{"type": "string"},
					"limit":    map[string]any{"type": "number", "minimum": 1, "maximum": docserve.MaxExamplesLimit},
				},
				"required": []string{"topic"},
			},
		},
		{
			Name:        CapGetMigrationGuide,
			Description: "Get migration guidance between two versions of a source",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source":      map[string]any{"type": "string"},
					"fromVersion": map[string]any{"type": "string"},
					"toVersion":   map[string]any{"type": "string"},
				},
				"required": []string{"source", "fromVersion", "toVersion"},
			},
		},
	}
}
