package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockbot/storage"
	"stockbot/types"
)

// CatalystAnalyzer writes the long-form analysis of a catalyst.
type CatalystAnalyzer interface {
	AnalyzeCatalyst(ctx context.Context, company types.CompanyMention, postText string) (string, error)
}

// Publisher receives every newly recorded catalyst.
type Publisher interface {
	PublishCatalyst(ctx context.Context, c types.Catalyst) error
}

// Detector turns a mention flagged as a catalyst into a persisted Catalyst.
type Detector struct {
	analyzer  CatalystAnalyzer
	catalysts storage.Catalysts
	publisher Publisher
	now       func() time.Time
}

func NewDetector(analyzer CatalystAnalyzer, catalysts storage.Catalysts, publisher Publisher, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{analyzer: analyzer, catalysts: catalysts, publisher: publisher, now: now}
}

// Record analyses and stores one catalyst. It returns nil, nil when a catalyst
// for (post, company) already exists.
func (d *Detector) Record(ctx context.Context, company *types.Company, post types.Post, mention types.CompanyMention) (*types.Catalyst, error) {
	analysis, err := d.analyzer.AnalyzeCatalyst(ctx, mention, post.Text)
	if err != nil {
		return nil, fmt.Errorf("analyze catalyst %s: %w", company.Ticker, err)
	}

	catalystType := mention.CatalystType
	if !catalystType.Valid() {
		catalystType = types.CatalystOther
	}
	sentiment := mention.Sentiment
	if !sentiment.Valid() {
		sentiment = types.SentimentNeutral
	}

	c := &types.Catalyst{
		Type:        catalystType,
		Description: mention.MentionContext,
		Analysis:    analysis,
		Sentiment:   sentiment,
		DetectedAt:  d.now().UTC(),
		CompanyID:   company.ID,
		PostID:      post.ID,
		Ticker:      company.Ticker,
		CompanyName: company.Name,
	}

	if err := d.catalysts.Create(ctx, c); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			slog.Info("catalyst already recorded", "post_id", post.ID, "ticker", company.Ticker)
			return nil, nil
		}
		return nil, fmt.Errorf("store catalyst %s: %w", company.Ticker, err)
	}

	if d.publisher != nil {
		if err := d.publisher.PublishCatalyst(ctx, *c); err != nil {
			slog.Warn("failed to publish catalyst", "catalyst_id", c.ID, "ticker", c.Ticker, "error", err)
		}
	}
	return c, nil
}
