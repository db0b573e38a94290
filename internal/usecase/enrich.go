package usecase

import (
	"context"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// EnricherChain applies enrichers in order; each one is best-effort.
type EnricherChain []ports.Enricher

var _ ports.Enricher = EnricherChain(nil)

func (c EnricherChain) Enrich(ctx context.Context, record *domain.CommunityRecord) {
	for _, enricher := range c {
		if enricher == nil || ctx.Err() != nil {
			continue
		}
		enricher.Enrich(ctx, record)
	}
}
