package orchestrator

import (
	"context"
	"sync"
	"time"

	"stockbot/llm"
	"stockbot/market"
	"stockbot/storage"
	"stockbot/types"
)

type fakeSource struct {
	recent      []types.Post
	recentErr   error
	windows     map[string][]types.Post
	windowErrs  map[string]error
	windowCalls []Window
}

func (f *fakeSource) FetchRecentPosts(_ context.Context, _ string, maxCount int) ([]types.Post, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if maxCount > 0 && len(f.recent) > maxCount {
		return f.recent[:maxCount], nil
	}
	return f.recent, nil
}

func (f *fakeSource) FetchPostsInWindow(_ context.Context, _ string, since, until time.Time) ([]types.Post, error) {
	f.windowCalls = append(f.windowCalls, Window{Since: since, Until: until})
	key := since.Format("2006-01")
	if err := f.windowErrs[key]; err != nil {
		return nil, err
	}
	return f.windows[key], nil
}

type fakeExtractor struct {
	mu sync.Mutex

	mentions   []types.CompanyMention
	extractErr error
	batches    [][]types.Post

	profileCalls  int
	catalystCalls int
	digestCalls   int
	digestInput   llm.DigestInput
}

func (f *fakeExtractor) ExtractMentions(_ context.Context, posts []types.Post) ([]types.CompanyMention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, posts)
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.mentions, nil
}

func (f *fakeExtractor) AuthorProfile(_ context.Context, m types.CompanyMention) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	return "brief for " + m.Ticker, nil
}

func (f *fakeExtractor) AnalyzeCatalyst(_ context.Context, m types.CompanyMention, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalystCalls++
	return "analysis for " + m.Ticker, nil
}

func (f *fakeExtractor) AuthorDigest(_ context.Context, in llm.DigestInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.digestCalls++
	f.digestInput = in
	return "# Digest", nil
}

func (f *fakeExtractor) extractCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeQuotes struct {
	quote *types.Quote
	calls int
}

func (f *fakeQuotes) GetQuote(_ context.Context, _ string) *types.Quote {
	f.calls++
	return f.quote
}

type fakePublisher struct {
	published []types.Catalyst
}

func (f *fakePublisher) PublishCatalyst(_ context.Context, c types.Catalyst) error {
	f.published = append(f.published, c)
	return nil
}

type countingLimiter struct {
	calls int
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return ctx.Err()
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

type harness struct {
	source    *fakeSource
	extractor *fakeExtractor
	quotes    *fakeQuotes
	publisher *fakePublisher
	pacer     *countingLimiter
	clock     *fakeClock
	store     storage.Store
	orch      *Orchestrator
}

func newHarness(now time.Time) *harness {
	h := &harness{
		source:    &fakeSource{windows: map[string][]types.Post{}, windowErrs: map[string]error{}},
		extractor: &fakeExtractor{},
		quotes:    &fakeQuotes{quote: &types.Quote{Price: 100, Change: 1, ChangePercent: 1}},
		publisher: &fakePublisher{},
		pacer:     &countingLimiter{},
		clock:     &fakeClock{t: now},
		store:     storage.NewMemory().Store(),
	}
	h.orch = New(Dependencies{
		Source:    h.source,
		Extractor: h.extractor,
		Store:     h.store,
		Quotes:    h.quotes,
		Publisher: h.publisher,
	}, Config{
		MaxCatalystsPerPost: 5,
		BackfillPacer:       h.pacer,
		Now:                 h.clock.Now,
	})
	return h
}

var _ market.Limiter = (*countingLimiter)(nil)
var _ llm.Extractor = (*fakeExtractor)(nil)
