package mock

import (
	"context"

	"github.com/fwojciec/docserve"
)

var _ docserve.Orchestrator = (*Orchestrator)(nil)

// Orchestrator is a mock implementation of docserve.Orchestrator.
type Orchestrator struct {
	SearchFn         func(ctx context.Context, req docserve.SearchRequest) (*docserve.SearchResult, error)
	ReferenceFn      func(ctx context.Context, req docserve.ReferenceRequest) (*docserve.ReferenceResult, error)
	ExamplesFn       func(ctx context.Context, req docserve.ExamplesRequest) (*docserve.ExamplesResult, error)
	MigrationGuideFn func(ctx context.Context, req docserve.MigrationRequest) (*docserve.MigrationResult, error)
}

func (o *Orchestrator) Search(ctx context.Context, req docserve.SearchRequest) (*docserve.SearchResult, error) {
	return o.SearchFn(ctx, req)
}

func (o *Orchestrator) Reference(ctx context.Context, req docserve.ReferenceRequest) (*docserve.ReferenceResult, error) {
	return o.ReferenceFn(ctx, req)
}

func (o *Orchestrator) Examples(ctx context.Context, req docserve.ExamplesRequest) (*docserve.ExamplesResult, error) {
	return o.ExamplesFn(ctx, req)
}

func (o *Orchestrator) MigrationGuide(ctx context.Context, req docserve.MigrationRequest) (*docserve.MigrationResult, error) {
	return o.MigrationGuideFn(ctx, req)
}
