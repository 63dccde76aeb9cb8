package orchestrator

import (
	"context"
	"time"

	"stockbot/config"
	"stockbot/llm"
	"stockbot/market"
	"stockbot/source"
	"stockbot/storage"
	"stockbot/types"
)

// QuoteSource is the price enrichment capability. It never fails: a missing
// quote is nil. *market.Gate implements it.
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) *types.Quote
}

// Dependencies are the collaborators of the pipeline.
type Dependencies struct {
	Source    source.Source
	Extractor llm.Extractor
	Store     storage.Store
	Quotes    QuoteSource // Optional; no price data without it
	Publisher Publisher   // Optional
}

// Config tunes the pipeline.
type Config struct {
	SourceTimeout       time.Duration  // Default: config.DefaultSourceTimeout
	ExtractionTimeout   time.Duration  // Default: config.DefaultExtractionTimeout
	MaxCatalystsPerPost int            // Default: config.MaxCatalystsPerPost
	BackfillPacer       market.Limiter // Default: pause of config.DefaultBackfillPacing
	Now                 func() time.Time
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = config.DefaultSourceTimeout
	}
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = config.DefaultExtractionTimeout
	}
	if cfg.MaxCatalystsPerPost <= 0 {
		cfg.MaxCatalystsPerPost = config.MaxCatalystsPerPost
	}
	if cfg.BackfillPacer == nil {
		cfg.BackfillPacer = market.NewPause(config.DefaultBackfillPacing)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// Orchestrator runs ingestion passes, backfills and digest decisions over a
// shared store. Passes may run concurrently; correctness rests on the
// ledger's per-id insert and the per-ticker upsert.
type Orchestrator struct {
	source    source.Source
	extractor llm.Extractor
	store     storage.Store
	quotes    QuoteSource
	detector  *Detector
	cfg       Config
}

func New(deps Dependencies, cfg Config) *Orchestrator {
	cfg = applyConfigDefaults(cfg)
	return &Orchestrator{
		source:    deps.Source,
		extractor: deps.Extractor,
		store:     deps.Store,
		quotes:    deps.Quotes,
		detector:  NewDetector(deps.Extractor, deps.Store.Catalysts, deps.Publisher, cfg.Now),
		cfg:       cfg,
	}
}

func (o *Orchestrator) now() time.Time {
	return o.cfg.Now().UTC()
}

func (o *Orchestrator) extract(ctx context.Context, posts []types.Post) ([]types.CompanyMention, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ExtractionTimeout)
	defer cancel()
	return o.extractor.ExtractMentions(ctx, posts)
}

// partition drops posts already in the ledger or repeated within posts.
func (o *Orchestrator) partition(ctx context.Context, posts []types.Post) ([]types.Post, error) {
	seen := make(map[string]bool, len(posts))
	fresh := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		has, err := o.store.Ledger.Has(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if !has {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}
