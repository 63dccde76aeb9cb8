package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockbot/types"
)

// ObjectStore is the part of S3 the archiver needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Archiver copies digests and backfill reports to object storage. A nil
// *Archiver archives nothing.
type Archiver struct {
	store ObjectStore
}

func NewArchiver(store ObjectStore) *Archiver {
	return &Archiver{store: store}
}

// ArchiveDigest writes the digest as markdown under digests/YYYY/MM/DD/<id>.md.
// Digests are immutable, so an existing object is left alone.
func (a *Archiver) ArchiveDigest(ctx context.Context, d *types.Digest) (string, error) {
	if a == nil || a.store == nil || d == nil {
		return "", nil
	}

	key := fmt.Sprintf("digests/%s/%d.md", d.GeneratedAt.UTC().Format("2006/01/02"), d.ID)
	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		return key, nil
	}

	body := fmt.Sprintf("<!-- generated %s, %d stocks, %d catalysts -->\n\n%s\n",
		d.GeneratedAt.UTC().Format(time.RFC3339), d.StockCount, d.CatalystCount, d.Content)
	if err := a.store.Put(ctx, key, []byte(body), "text/markdown; charset=utf-8"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// ArchiveReport writes report as JSON under reports/<kind>/YYYY/MM/DD/<runID>.json.
func (a *Archiver) ArchiveReport(ctx context.Context, kind, runID string, at time.Time, report any) (string, error) {
	if a == nil || a.store == nil {
		return "", nil
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s report: %w", kind, err)
	}

	key := fmt.Sprintf("reports/%s/%s/%s.json", kind, at.UTC().Format("2006/01/02"), runID)
	if err := a.store.Put(ctx, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
