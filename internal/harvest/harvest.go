package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/catalog-harvester/internal/domain"
	"github.com/samvad-hq/catalog-harvester/internal/logger"
	"github.com/samvad-hq/catalog-harvester/pkg/catalog"
	"github.com/samvad-hq/catalog-harvester/pkg/publishers"
	"github.com/samvad-hq/catalog-harvester/pkg/searches"
	"golang.org/x/time/rate"
)

// Service walks saved searches through the catalog API and publishes fresh products.
type Service struct {
	source    ProductSource
	publisher EventPublisher
	deduper   Deduper
	limiter   *rate.Limiter
	log       logger.Logger
}

// Result summarizes one search walk.
type Result struct {
	SearchID  string
	Pages     int
	Products  int
	Published int
	Skipped   int
}

// NewService wires a harvester. A nil limiter means no pacing; a nil deduper publishes everything.
func NewService(source ProductSource, pub EventPublisher, log logger.Logger, deduper Deduper, limiter *rate.Limiter) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{
		source:    source,
		publisher: pub,
		deduper:   deduper,
		limiter:   limiter,
		log:       log,
	}
}

// Run executes a harvest pass over every search. Errors from individual
// searches are logged and joined; a cancelled context ends the pass quietly.
func (s *Service) Run(ctx context.Context, list []searches.Search) error {
	if s == nil || s.source == nil {
		return fmt.Errorf("harvest service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no searches configured for harvesting")
	}

	errs := s.runAll(ctx, list)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, list []searches.Search) []error {
	errs := make([]error, 0, len(list))

	for _, search := range list {
		if ctx.Err() != nil {
			break
		}
		if !search.IsEnabled() {
			continue
		}

		res, err := s.RunSearch(ctx, search)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			errs = append(errs, err)
			s.log.ErrorObj("search harvest failed", "search_error", map[string]any{
				"search_id": search.ID,
				"error":     err.Error(),
			})
			continue
		}

		s.log.InfoObj("search harvest completed", "search_result", map[string]any{
			"search_id": res.SearchID,
			"pages":     res.Pages,
			"products":  res.Products,
			"published": res.Published,
			"skipped":   res.Skipped,
		})
	}

	return errs
}

// RunSearch walks pages of one search from its start page until the last page
// or the search's page cap, publishing products not seen before.
func (s *Service) RunSearch(ctx context.Context, search searches.Search) (Result, error) {
	res := Result{SearchID: search.ID}
	var publishErrs []error

	page := search.StartPage()
	for res.Pages < search.MaxPages {
		if err := s.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("search %s: wait for rate limiter: %w", search.ID, err)
		}

		resp, err := s.fetchPage(ctx, search, page)
		if err != nil {
			return res, fmt.Errorf("search %s page %d: %w", search.ID, page, err)
		}
		res.Pages++
		res.Products += len(resp.Data)

		s.log.DebugObj("search page fetched", "search_page", map[string]any{
			"search_id":   search.ID,
			"page":        page,
			"total_pages": resp.Pagination.TotalPages,
			"products":    len(resp.Data),
		})

		for _, product := range resp.Data {
			published, err := s.processProduct(ctx, search, product)
			if err != nil {
				publishErrs = append(publishErrs, err)
				continue
			}
			if published {
				res.Published++
			} else {
				res.Skipped++
			}
		}

		// Advance from the requested page; the echoed page may be missing.
		window := resp.Pagination
		window.Page = page
		if len(resp.Data) == 0 || !window.HasNext() {
			break
		}
		page++
	}

	if len(publishErrs) > 0 {
		return res, fmt.Errorf("search %s: %w", search.ID, errors.Join(publishErrs...))
	}
	return res, nil
}

func (s *Service) fetchPage(ctx context.Context, search searches.Search, page int) (catalog.ProductResponse, error) {
	if search.Kind == searches.KindListing {
		return s.source.ListProductsPage(ctx, page)
	}
	params := search.Params
	params.Page = catalog.Int(page)
	return s.source.SearchProductsPage(ctx, params)
}

// processProduct publishes a product unless its fingerprint was already seen.
// Store lookup failures are logged and the product is published anyway.
func (s *Service) processProduct(ctx context.Context, search searches.Search, product domain.Product) (bool, error) {
	key := Fingerprint(product)

	if s.deduper != nil {
		seen, err := s.deduper.SeenProduct(ctx, key)
		if err != nil {
			s.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"search_id":  search.ID,
				"product_id": product.ID,
				"error":      err.Error(),
			})
		} else if seen {
			return false, nil
		}
	}

	if s.publisher != nil {
		evt := publishers.NewEvent(search.ID, search.Name, product)
		if delivered, err := s.publisher.Publish(ctx, evt); err != nil && delivered == 0 {
			return false, fmt.Errorf("publish product %s: %w", product.ID, err)
		} else if err != nil {
			s.log.WarnObj("product partially published", "publish_error", map[string]any{
				"search_id":  search.ID,
				"product_id": product.ID,
				"delivered":  delivered,
				"error":      err.Error(),
			})
		}
	}

	if s.deduper != nil {
		if err := s.deduper.MarkProduct(ctx, key); err != nil {
			s.log.WarnObj("dedupe mark failed", "dedupe_error", map[string]any{
				"search_id":  search.ID,
				"product_id": product.ID,
				"error":      err.Error(),
			})
		}
	}
	return true, nil
}
