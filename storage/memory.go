package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stockbot/types"
)

// Memory is a process-local Store backend. It is used when no database is
// configured and by tests.
type Memory struct {
	mu sync.RWMutex

	posts     map[string]types.Post
	companies map[string]*types.Company
	catalysts []types.Catalyst
	digests   []types.Digest

	nextCompanyID  int64
	nextCatalystID int64
	nextDigestID   int64
}

func NewMemory() *Memory {
	return &Memory{
		posts:     make(map[string]types.Post),
		companies: make(map[string]*types.Company),
	}
}

// Store returns the four capability views backed by m.
func (m *Memory) Store() Store {
	return Store{
		Ledger:    memoryLedger{m},
		Companies: memoryCompanies{m},
		Catalysts: memoryCatalysts{m},
		Digests:   memoryDigests{m},
	}
}

type memoryLedger struct{ m *Memory }

func (l memoryLedger) Has(_ context.Context, id string) (bool, error) {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	_, ok := l.m.posts[id]
	return ok, nil
}

func (l memoryLedger) Insert(_ context.Context, post types.Post) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if _, ok := l.m.posts[post.ID]; ok {
		return types.ErrDuplicateKey
	}
	l.m.posts[post.ID] = post
	return nil
}

func (l memoryLedger) Count(_ context.Context) (int, error) {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	return len(l.m.posts), nil
}

type memoryCompanies struct{ m *Memory }

func (c memoryCompanies) Get(_ context.Context, ticker string) (*types.Company, error) {
	c.m.mu.RLock()
	defer c.m.mu.RUnlock()
	existing, ok := c.m.companies[strings.ToUpper(ticker)]
	if !ok {
		return nil, nil
	}
	cp := *existing
	return &cp, nil
}

func (c memoryCompanies) Upsert(_ context.Context, ticker string, create types.CompanyCreate, update types.CompanyUpdate, now time.Time) (*types.Company, error) {
	ticker = strings.ToUpper(ticker)

	c.m.mu.Lock()
	defer c.m.mu.Unlock()

	existing, ok := c.m.companies[ticker]
	if !ok {
		c.m.nextCompanyID++
		sentiment := create.Sentiment
		if sentiment == "" {
			sentiment = types.SentimentNeutral
		}
		existing = &types.Company{
			ID:             c.m.nextCompanyID,
			Ticker:         ticker,
			Name:           create.Name,
			ResearchBrief:  create.ResearchBrief,
			Sentiment:      sentiment,
			RecentMention:  create.RecentMention,
			FirstMentioned: now,
			LastUpdated:    now,
		}
		existing.ApplyQuote(create.Quote)
		c.m.companies[ticker] = existing
		cp := *existing
		return &cp, nil
	}

	if update.Sentiment != "" {
		existing.Sentiment = update.Sentiment
	}
	existing.RecentMention = update.RecentMention
	if update.Refresh != nil {
		existing.ResearchBrief = update.Refresh.ResearchBrief
		existing.ApplyQuote(update.Refresh.Quote)
	}
	existing.LastUpdated = now

	cp := *existing
	return &cp, nil
}

func (c memoryCompanies) List(_ context.Context, limit int) ([]types.Company, error) {
	c.m.mu.RLock()
	defer c.m.mu.RUnlock()

	out := make([]types.Company, 0, len(c.m.companies))
	for _, company := range c.m.companies {
		out = append(out, *company)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].ID > out[j].ID
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c memoryCompanies) Count(_ context.Context) (int, error) {
	c.m.mu.RLock()
	defer c.m.mu.RUnlock()
	return len(c.m.companies), nil
}

type memoryCatalysts struct{ m *Memory }

func (c memoryCatalysts) Create(_ context.Context, cat *types.Catalyst) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	for _, existing := range c.m.catalysts {
		if existing.PostID == cat.PostID && existing.CompanyID == cat.CompanyID {
			return types.ErrDuplicateKey
		}
	}
	c.m.nextCatalystID++
	cat.ID = c.m.nextCatalystID
	c.m.catalysts = append(c.m.catalysts, *cat)
	return nil
}

func (c memoryCatalysts) List(_ context.Context, limit int) ([]types.Catalyst, error) {
	c.m.mu.RLock()
	defer c.m.mu.RUnlock()

	byID := make(map[int64]*types.Company, len(c.m.companies))
	for _, company := range c.m.companies {
		byID[company.ID] = company
	}

	out := make([]types.Catalyst, 0, len(c.m.catalysts))
	for _, cat := range c.m.catalysts {
		if company, ok := byID[cat.CompanyID]; ok {
			cat.Ticker = company.Ticker
			cat.CompanyName = company.Name
		}
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c memoryCatalysts) CountSince(_ context.Context, t time.Time) (int, error) {
	c.m.mu.RLock()
	defer c.m.mu.RUnlock()
	n := 0
	for _, cat := range c.m.catalysts {
		if cat.DetectedAt.After(t) {
			n++
		}
	}
	return n, nil
}

type memoryDigests struct{ m *Memory }

func (d memoryDigests) Create(_ context.Context, digest *types.Digest) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	d.m.nextDigestID++
	digest.ID = d.m.nextDigestID
	d.m.digests = append(d.m.digests, *digest)
	return nil
}

func (d memoryDigests) Latest(ctx context.Context) (*types.Digest, error) {
	list, err := d.List(ctx, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (d memoryDigests) List(_ context.Context, limit int) ([]types.Digest, error) {
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()

	out := make([]types.Digest, len(d.m.digests))
	copy(out, d.m.digests)
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
