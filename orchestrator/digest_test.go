package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldGenerateDigest(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		at := now.Add(-d)
		return &at
	}

	cases := []struct {
		name      string
		last      *time.Time
		catalysts int
		want      bool
	}{
		{"no digest yet", nil, 0, true},
		{"six days old with two catalysts", ago(6 * 24 * time.Hour), 2, false},
		{"eight days old", ago(8 * 24 * time.Hour), 0, true},
		{"one hour old with five catalysts", ago(time.Hour), 5, true},
		{"one hour old with four catalysts", ago(time.Hour), 4, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ShouldGenerateDigest(now, c.last, c.catalysts))
		})
	}
}

func TestGenerateDigest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	seedCompanies := func(t *testing.T, h *harness, tickers ...string) {
		t.Helper()
		for i, tk := range tickers {
			_, err := h.store.Companies.Upsert(ctx, tk, types.CompanyCreate{Name: tk + " Inc", RecentMention: tk},
				types.CompanyUpdate{}, now.Add(-time.Duration(i)*time.Hour))
			require.NoError(t, err)
		}
	}

	t.Run("fewer than three companies is a precondition failure", func(t *testing.T) {
		h := newHarness(now)
		seedCompanies(t, h, "AAPL", "TSLA")

		_, err := h.orch.GenerateDigest(ctx, "@acct")
		var pe *types.PreconditionError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 0, h.extractor.digestCalls)

		list, err := h.store.Digests.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("stores the digest with snapshot counts", func(t *testing.T) {
		h := newHarness(now)
		seedCompanies(t, h, "AAPL", "TSLA", "NVDA")
		aapl, _ := h.store.Companies.Get(ctx, "AAPL")
		require.NoError(t, h.store.Ledger.Insert(ctx, types.Post{ID: "p", Text: "x"}))
		require.NoError(t, h.store.Catalysts.Create(ctx, &types.Catalyst{Type: types.CatalystEarnings, CompanyID: aapl.ID, PostID: "p", DetectedAt: now.Add(-time.Minute)}))

		d, err := h.orch.GenerateDigest(ctx, "@acct")
		require.NoError(t, err)
		assert.Equal(t, "# Digest", d.Content)
		assert.Equal(t, 3, d.StockCount)
		assert.Equal(t, 1, d.CatalystCount)
		assert.True(t, d.GeneratedAt.Equal(now))

		assert.Equal(t, "@acct", h.extractor.digestInput.Handle)
		require.Len(t, h.extractor.digestInput.Companies, 3)
		assert.Equal(t, "AAPL", h.extractor.digestInput.Companies[0].Ticker, "most recently updated first")
	})

	t.Run("decision counts catalysts strictly after the latest digest", func(t *testing.T) {
		h := newHarness(now)
		seedCompanies(t, h, "AAPL", "TSLA", "NVDA")

		decision, err := h.orch.CheckDigest(ctx)
		require.NoError(t, err)
		assert.True(t, decision.Due)
		assert.Nil(t, decision.LastDigestAt)

		d, _, err := h.orch.GenerateDigestIfDue(ctx, "@acct")
		require.NoError(t, err)
		require.NotNil(t, d)

		aapl, _ := h.store.Companies.Get(ctx, "AAPL")
		for i := 0; i < 5; i++ {
			id := string(rune('a' + i))
			require.NoError(t, h.store.Ledger.Insert(ctx, types.Post{ID: id, Text: "x"}))
			detected := now
			if i > 0 {
				detected = now.Add(time.Duration(i) * time.Minute)
			}
			require.NoError(t, h.store.Catalysts.Create(ctx, &types.Catalyst{Type: types.CatalystOther, CompanyID: aapl.ID, PostID: id, DetectedAt: detected}))
		}

		h.clock.t = now.Add(time.Hour)
		decision, err = h.orch.CheckDigest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, decision.CatalystsSince, "a catalyst at the digest instant is not after it")
		assert.False(t, decision.Due)

		d, decision, err = h.orch.GenerateDigestIfDue(ctx, "@acct")
		require.NoError(t, err)
		assert.Nil(t, d)
		assert.False(t, decision.Due)
		assert.Equal(t, 1, h.extractor.digestCalls)
	})
}
