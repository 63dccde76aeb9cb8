package storage

import (
	"context"
	"time"

	"stockbot/types"
)

// Ledger is the append-only record of processed posts.
type Ledger interface {
	Has(ctx context.Context, id string) (bool, error)
	// Insert returns types.ErrDuplicateKey when the id is already present.
	Insert(ctx context.Context, post types.Post) error
	Count(ctx context.Context) (int, error)
}

// Companies owns one profile per ticker.
type Companies interface {
	// Get returns nil, nil when the ticker is unknown.
	Get(ctx context.Context, ticker string) (*types.Company, error)
	// Upsert creates the company from create, or applies update to the
	// existing row. Either way lastUpdated becomes now, and the write is
	// atomic per ticker.
	Upsert(ctx context.Context, ticker string, create types.CompanyCreate, update types.CompanyUpdate, now time.Time) (*types.Company, error)
	// List orders by lastUpdated descending. limit <= 0 returns every company.
	List(ctx context.Context, limit int) ([]types.Company, error)
	Count(ctx context.Context) (int, error)
}

// Catalysts is the append-only catalyst history.
type Catalysts interface {
	// Create sets c.ID. It returns types.ErrDuplicateKey when a catalyst for
	// the same (post, company) pair exists.
	Create(ctx context.Context, c *types.Catalyst) error
	// List orders by detectedAt descending and fills Ticker and CompanyName.
	List(ctx context.Context, limit int) ([]types.Catalyst, error)
	// CountSince counts catalysts detected strictly after t.
	CountSince(ctx context.Context, t time.Time) (int, error)
}

// Digests is the append-only digest history.
type Digests interface {
	Create(ctx context.Context, d *types.Digest) error
	// Latest returns nil, nil when no digest exists.
	Latest(ctx context.Context) (*types.Digest, error)
	List(ctx context.Context, limit int) ([]types.Digest, error)
}

// Store groups the persistence capabilities used by the orchestrators.
type Store struct {
	Ledger    Ledger
	Companies Companies
	Catalysts Catalysts
	Digests   Digests
}
