package market

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"stockbot/config"
	"stockbot/types"
)

// Quoter fetches a market quote for a ticker.
type Quoter interface {
	Quote(ctx context.Context, ticker string) (*types.Quote, error)
}

// QuoteCache stores recent quotes. Implementations must be safe for concurrent use.
type QuoteCache interface {
	Get(ctx context.Context, ticker string) (*types.Quote, bool)
	Set(ctx context.Context, ticker string, q *types.Quote)
}

// Gate wraps a Quoter with pacing, a timeout, an optional cache and failure
// tolerance: GetQuote never returns an error.
type Gate struct {
	quoter  Quoter
	limiter Limiter
	cache   QuoteCache
	timeout time.Duration
}

// GateConfig holds the optional parts of a Gate.
type GateConfig struct {
	Limiter Limiter       // Default: NoDelay
	Cache   QuoteCache    // Optional
	Timeout time.Duration // Default: config.QuoteTimeout
}

func NewGate(quoter Quoter, cfg GateConfig) *Gate {
	if cfg.Limiter == nil {
		cfg.Limiter = NoDelay{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.QuoteTimeout
	}
	return &Gate{quoter: quoter, limiter: cfg.Limiter, cache: cfg.Cache, timeout: cfg.Timeout}
}

// GetQuote returns the latest quote for ticker, or nil on any failure.
func (g *Gate) GetQuote(ctx context.Context, ticker string) *types.Quote {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if g == nil || g.quoter == nil || ticker == "" {
		return nil
	}

	if g.cache != nil {
		if q, ok := g.cache.Get(ctx, ticker); ok {
			return q
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		g.warn(&types.QuoteFetchError{Ticker: ticker, Err: err})
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	q, err := g.quoter.Quote(qctx, ticker)
	if err != nil {
		g.warn(&types.QuoteFetchError{Ticker: ticker, Err: err})
		return nil
	}
	if q == nil {
		return nil
	}

	if g.cache != nil {
		g.cache.Set(ctx, ticker, q)
	}
	return q
}

func (g *Gate) warn(err *types.QuoteFetchError) {
	slog.Warn("quote unavailable, continuing without price data", "ticker", err.Ticker, "error", err)
}
