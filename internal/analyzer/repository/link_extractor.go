package repository

import (
	"context"

	"tradersmind-analyzer/internal/entity"
)

// LinkExtractor is the external URL/attachment extractor. Its output is
// consumed as opaque fields on the analysis record.
type LinkExtractor interface {
	Extract(ctx context.Context, msg *entity.Message) entity.MessageLinks
}

type noopLinkExtractor struct{}

// NewNoopLinkExtractor returns a LinkExtractor that reports no links, for
// runs where the extractor collaborator is not wired.
func NewNoopLinkExtractor() LinkExtractor {
	return noopLinkExtractor{}
}

func (noopLinkExtractor) Extract(_ context.Context, _ *entity.Message) entity.MessageLinks {
	return entity.MessageLinks{}
}
