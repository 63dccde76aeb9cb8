package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stockbot/deduplication"
	"stockbot/types"
)

// PostResult is the outcome for one newly processed post.
type PostResult struct {
	PostID         string `json:"tweetId"`
	CompaniesFound int    `json:"companiesFound"`
	Catalysts      int    `json:"catalysts"`
}

// PassResult summarises one ingestion pass.
type PassResult struct {
	Account   string       `json:"account"`
	Fetched   int          `json:"fetched"`
	Processed int          `json:"processed"`
	Catalysts int          `json:"catalysts"`
	Results   []PostResult `json:"results"`
}

// RunIngestionPass fetches up to maxItems recent posts of account and
// processes the ones not in the ledger. Posts ledgered before an error stay
// ledgered; the partial result is returned alongside the error.
func (o *Orchestrator) RunIngestionPass(ctx context.Context, account string, maxItems int) (*PassResult, error) {
	result := &PassResult{Account: account, Results: []PostResult{}}

	posts, err := o.fetchRecent(ctx, account, maxItems)
	if err != nil {
		return result, err
	}
	result.Fetched = len(posts)

	fresh, err := o.partition(ctx, posts)
	if err != nil {
		return result, fmt.Errorf("check ledger: %w", err)
	}
	if len(fresh) == 0 {
		slog.Info("no new posts", "account", account, "fetched", len(posts))
		return result, nil
	}

	mentions, err := o.extract(ctx, fresh)
	if err != nil {
		return result, err
	}
	slog.Info("extracted mentions", "account", account, "posts", len(fresh), "mentions", len(mentions))

	for _, post := range fresh {
		pr, inserted, err := o.processPost(ctx, post, mentions)
		if err != nil {
			return result, err
		}
		if !inserted {
			continue
		}
		result.Processed++
		result.Catalysts += pr.Catalysts
		result.Results = append(result.Results, pr)
	}
	return result, nil
}

func (o *Orchestrator) fetchRecent(ctx context.Context, account string, maxItems int) ([]types.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SourceTimeout)
	defer cancel()

	posts, err := o.source.FetchRecentPosts(ctx, account, maxItems)
	if err != nil {
		var sfe *types.SourceFetchError
		if !errors.As(err, &sfe) {
			err = &types.SourceFetchError{Account: account, Err: err}
		}
		return nil, err
	}
	if maxItems > 0 && len(posts) > maxItems {
		posts = posts[:maxItems]
	}
	return posts, nil
}

// processPost ledgers post and enriches the companies it mentions. inserted is
// false when another pass ledgered the post first.
func (o *Orchestrator) processPost(ctx context.Context, post types.Post, mentions []types.CompanyMention) (PostResult, bool, error) {
	pr := PostResult{PostID: post.ID}

	if err := o.store.Ledger.Insert(ctx, post); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			slog.Info("post already processed", "post_id", post.ID)
			return pr, false, nil
		}
		return pr, false, fmt.Errorf("ledger post %s: %w", post.ID, err)
	}

	associated := deduplication.DedupeMentions(Associate(post.Text, mentions))
	pr.CompaniesFound = len(associated)

	for _, m := range associated {
		company, err := o.enrich(ctx, m)
		if err != nil {
			return pr, true, err
		}
		if !m.IsCatalyst {
			continue
		}
		if pr.Catalysts >= o.cfg.MaxCatalystsPerPost {
			slog.Warn("catalyst cap reached for post, skipping", "post_id", post.ID, "ticker", m.Ticker, "cap", o.cfg.MaxCatalystsPerPost)
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, o.cfg.ExtractionTimeout)
		c, err := o.detector.Record(cctx, company, post, m)
		cancel()
		if err != nil {
			return pr, true, err
		}
		if c != nil {
			pr.Catalysts++
			slog.Info("catalyst recorded", "post_id", post.ID, "ticker", company.Ticker, "type", c.Type)
		}
	}
	return pr, true, nil
}

// enrich upserts the company of m. Staleness is decided once from the row
// read before any external call.
func (o *Orchestrator) enrich(ctx context.Context, m types.CompanyMention) (*types.Company, error) {
	existing, err := o.store.Companies.Get(ctx, m.Ticker)
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", m.Ticker, err)
	}
	stale := types.IsStale(existing, o.now())

	create := types.CompanyCreate{
		Name:          m.Name,
		Sentiment:     m.Sentiment,
		RecentMention: m.MentionContext,
	}
	update := types.CompanyUpdate{
		Sentiment:     m.Sentiment,
		RecentMention: m.MentionContext,
	}

	if stale {
		pctx, cancel := context.WithTimeout(ctx, o.cfg.ExtractionTimeout)
		brief, err := o.extractor.AuthorProfile(pctx, m)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", m.Ticker, err)
		}

		var quote *types.Quote
		if o.quotes != nil {
			quote = o.quotes.GetQuote(ctx, m.Ticker)
		}

		create.ResearchBrief, create.Quote = brief, quote
		update.Refresh = &types.Refresh{ResearchBrief: brief, Quote: quote}
	}

	company, err := o.store.Companies.Upsert(ctx, m.Ticker, create, update, o.now())
	if err != nil {
		return nil, fmt.Errorf("upsert company %s: %w", m.Ticker, err)
	}
	slog.Info("company updated", "ticker", company.Ticker, "stale", stale, "has_price", company.Price != nil)
	return company, nil
}
