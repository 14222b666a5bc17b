package harvest

import (
	"context"

	"github.com/samvad-hq/catalog-harvester/pkg/catalog"
	"github.com/samvad-hq/catalog-harvester/pkg/publishers"
)

// ProductSource is the subset of *catalog.Client the harvester walks.
type ProductSource interface {
	ListProductsPage(ctx context.Context, page int) (catalog.ProductResponse, error)
	SearchProductsPage(ctx context.Context, params catalog.SearchParams) (catalog.ProductResponse, error)
}

// EventPublisher publishes product events downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers product fingerprints that were already published.
type Deduper interface {
	SeenProduct(ctx context.Context, key string) (bool, error)
	MarkProduct(ctx context.Context, key string) error
}
