package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samvad-hq/catalog-harvester/internal/config"
	"github.com/samvad-hq/catalog-harvester/internal/harvest"
	"github.com/samvad-hq/catalog-harvester/internal/logger"
	"github.com/samvad-hq/catalog-harvester/internal/storage"
	"github.com/samvad-hq/catalog-harvester/pkg/catalog"
	"github.com/samvad-hq/catalog-harvester/pkg/httpclient"
	"github.com/samvad-hq/catalog-harvester/pkg/publishers"
	"github.com/samvad-hq/catalog-harvester/pkg/searches"
	"golang.org/x/time/rate"
)

// Harvester represents the catalog harvester runtime. It owns the schedule,
// the harvest service, the publishers and the seen-product store.
type Harvester struct {
	cfg          *config.Config
	searchReg    *searches.Registry
	fanout       *publishers.Fanout
	service      *harvest.Service
	schedule     cron.Schedule
	scheduleSpec string
	log          logger.Logger
	store        storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	schedule, err := cron.ParseStandard(cfg.HarvestSchedule)
	if err != nil {
		return nil, fmt.Errorf("parse harvest_schedule %q: %w", cfg.HarvestSchedule, err)
	}

	client, err := catalog.New(cfg.APIBase, catalog.WithHTTPClient(httpclient.NewRestyClient(cfg.HTTPTimeout)))
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}

	searchReg, err := searches.LoadRegistry(cfg.SearchesFile)
	if err != nil {
		return nil, fmt.Errorf("load searches registry: %w", err)
	}
	enabled := searchReg.Enabled()
	searchIDs := make([]string, 0, len(enabled))
	for _, s := range enabled {
		searchIDs = append(searchIDs, s.ID)
	}
	log.InfoObj("searches registry loaded", "searches_meta", map[string]any{
		"count": len(searchIDs),
		"ids":   searchIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(storage.Options{
		Type:            cfg.StorageType,
		Path:            cfg.BBoltPath,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.HarvestRateLimit), cfg.HarvestBurst)
	service := harvest.NewService(client, fanout, log, store, limiter)

	return &Harvester{
		cfg:          cfg,
		searchReg:    searchReg,
		fanout:       fanout,
		service:      service,
		schedule:     schedule,
		scheduleSpec: cfg.HarvestSchedule,
		log:          log,
		store:        store,
	}, nil
}

// Run harvests once immediately and then on every schedule tick until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	list := h.searchReg.Enabled()
	if len(list) == 0 {
		h.log.WarnObj("no searches enabled; harvester idle", "searches_file", h.cfg.SearchesFile)
		<-ctx.Done()
		h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
		return nil
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"searches_count":   len(list),
		"publishers_count": h.fanout.Size(),
		"schedule":         h.scheduleSpec,
		"api_base":         h.cfg.APIBase,
	})

	if err := h.runOnce(ctx, list); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}

	for {
		next := h.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-timer.C:
			if err := h.runOnce(ctx, list); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}

// runOnce performs a single harvest pass across all searches.
func (h *Harvester) runOnce(ctx context.Context, list []searches.Search) error {
	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"searches_count": len(list),
		"started_at":     start.UTC(),
	})
	if err := h.service.Run(ctx, list); err != nil {
		return err
	}
	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"searches_count": len(list),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and publishers, logging any errors encountered.
func (h *Harvester) close() {
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publishers close failed", "error", err)
	}
}
