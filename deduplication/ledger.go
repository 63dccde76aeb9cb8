package deduplication

import (
	"context"
	"errors"
	"log/slog"

	"stockbot/storage"
	"stockbot/types"
)

// Filter is a probabilistic set: Exists may report false positives, never false negatives
// for items that were added.
type Filter interface {
	Exists(ctx context.Context, item string) (bool, error)
	Add(ctx context.Context, item string) error
}

// BloomLedger puts a Filter in front of a storage.Ledger. A filter miss
// answers Has without a database round trip; a filter hit is confirmed
// against the ledger. Insert always goes to the ledger, so a stale filter
// costs an extra extraction at worst and never a second processing.
type BloomLedger struct {
	ledger storage.Ledger
	filter Filter
}

func NewBloomLedger(ledger storage.Ledger, filter Filter) *BloomLedger {
	return &BloomLedger{ledger: ledger, filter: filter}
}

func (b *BloomLedger) Has(ctx context.Context, id string) (bool, error) {
	maybe, err := b.filter.Exists(ctx, id)
	if err != nil {
		slog.Warn("bloom check failed, falling back to ledger", "post_id", id, "error", err)
		return b.ledger.Has(ctx, id)
	}
	if !maybe {
		return false, nil
	}
	return b.ledger.Has(ctx, id)
}

func (b *BloomLedger) Insert(ctx context.Context, post types.Post) error {
	err := b.ledger.Insert(ctx, post)
	if err != nil && !errors.Is(err, types.ErrDuplicateKey) {
		return err
	}
	if addErr := b.filter.Add(ctx, post.ID); addErr != nil {
		slog.Warn("failed to add post to bloom filter", "post_id", post.ID, "error", addErr)
	}
	return err
}

func (b *BloomLedger) Count(ctx context.Context) (int, error) {
	return b.ledger.Count(ctx)
}
