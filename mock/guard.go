package mock

import (
	"context"

	"github.com/fwojciec/docserve"
)

var _ docserve.URLValidator = (*URLValidator)(nil)

// URLValidator is a mock implementation of docserve.URLValidator.
type URLValidator struct {
	ValidateFn func(ctx context.Context, rawURL string) error
}

func (v *URLValidator) Validate(ctx context.Context, rawURL string) error {
	return v.ValidateFn(ctx, rawURL)
}

var _ docserve.SourcePacer = (*SourcePacer)(nil)

// SourcePacer is a mock implementation of docserve.SourcePacer.
type SourcePacer struct {
	PaceFn func(ctx context.Context, sourceID string) error
}

func (p *SourcePacer) Pace(ctx context.Context, sourceID string) error {
	return p.PaceFn(ctx, sourceID)
}
