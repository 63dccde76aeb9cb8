package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockbot/config"
	"stockbot/llm"
	"stockbot/types"
)

// ShouldGenerateDigest reports whether a digest is due: none exists yet, the
// last one is older than config.DigestMaxAge, or enough catalysts arrived since.
func ShouldGenerateDigest(now time.Time, lastDigestAt *time.Time, catalystsSince int) bool {
	if lastDigestAt == nil {
		return true
	}
	if now.Sub(*lastDigestAt) > config.DigestMaxAge {
		return true
	}
	return catalystsSince >= config.DigestCatalystThreshold
}

// DigestDecision is the input and outcome of the digest predicate.
type DigestDecision struct {
	Due            bool       `json:"due"`
	LastDigestAt   *time.Time `json:"lastDigestAt,omitempty"`
	CatalystsSince int        `json:"catalystsSince"`
}

// CheckDigest reads the latest digest and the catalysts detected strictly
// after it, then applies ShouldGenerateDigest.
func (o *Orchestrator) CheckDigest(ctx context.Context) (DigestDecision, error) {
	var d DigestDecision

	latest, err := o.store.Digests.Latest(ctx)
	if err != nil {
		return d, fmt.Errorf("load latest digest: %w", err)
	}

	var since time.Time
	if latest != nil {
		at := latest.GeneratedAt
		d.LastDigestAt = &at
		since = at
	}

	d.CatalystsSince, err = o.store.Catalysts.CountSince(ctx, since)
	if err != nil {
		return d, fmt.Errorf("count catalysts: %w", err)
	}

	d.Due = ShouldGenerateDigest(o.now(), d.LastDigestAt, d.CatalystsSince)
	return d, nil
}

// GenerateDigest authors and stores a digest from the most recently updated
// companies and most recent catalysts. It returns a *types.PreconditionError
// when fewer than config.DigestMinCompanies companies are tracked.
func (o *Orchestrator) GenerateDigest(ctx context.Context, handle string) (*types.Digest, error) {
	companies, err := o.store.Companies.List(ctx, config.DigestTopN)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if len(companies) < config.DigestMinCompanies {
		return nil, &types.PreconditionError{
			Reason: fmt.Sprintf("not enough data yet: %d companies tracked, need %d", len(companies), config.DigestMinCompanies),
		}
	}

	catalysts, err := o.store.Catalysts.List(ctx, config.DigestTopN)
	if err != nil {
		return nil, fmt.Errorf("list catalysts: %w", err)
	}

	actx, cancel := context.WithTimeout(ctx, o.cfg.ExtractionTimeout)
	defer cancel()
	content, err := o.extractor.AuthorDigest(actx, llm.DigestInput{
		Handle:    handle,
		Companies: companies,
		Catalysts: catalysts,
	})
	if err != nil {
		return nil, err
	}

	digest := &types.Digest{
		Content:       content,
		StockCount:    len(companies),
		CatalystCount: len(catalysts),
		GeneratedAt:   o.now(),
	}
	if err := o.store.Digests.Create(ctx, digest); err != nil {
		return nil, fmt.Errorf("store digest: %w", err)
	}
	slog.Info("digest generated", "digest_id", digest.ID, "stocks", digest.StockCount, "catalysts", digest.CatalystCount)
	return digest, nil
}

// GenerateDigestIfDue runs GenerateDigest only when CheckDigest says so. The
// returned digest is nil when none was due.
func (o *Orchestrator) GenerateDigestIfDue(ctx context.Context, handle string) (*types.Digest, DigestDecision, error) {
	decision, err := o.CheckDigest(ctx)
	if err != nil || !decision.Due {
		return nil, decision, err
	}
	digest, err := o.GenerateDigest(ctx, handle)
	return digest, decision, err
}
