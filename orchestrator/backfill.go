package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"stockbot/config"
	"stockbot/deduplication"
	"stockbot/types"
)

// Window is a half-open date range [Since, Until).
type Window struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

func (w Window) String() string {
	return w.Since.Format(time.DateOnly) + ".." + w.Until.Format(time.DateOnly)
}

// MonthWindows returns monthsBack contiguous calendar-month windows, newest
// first. The first window is the month containing now.
func MonthWindows(now time.Time, monthsBack int) []Window {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	windows := make([]Window, 0, monthsBack)
	for i := 0; i < monthsBack; i++ {
		since := start.AddDate(0, -i, 0)
		windows = append(windows, Window{Since: since, Until: since.AddDate(0, 1, 0)})
	}
	return windows
}

// ClampMonthsBack applies the default and upper bound of a backfill range.
func ClampMonthsBack(n int) int {
	if n <= 0 {
		return config.DefaultMonthsBack
	}
	if n > config.MaxMonthsBack {
		return config.MaxMonthsBack
	}
	return n
}

// TickerSummary is one ranked ticker of a backfill.
type TickerSummary struct {
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	MentionCount int       `json:"mentionCount"`
	Context      string    `json:"context"`
	Timestamp    time.Time `json:"timestamp"`
}

// FailedWindow records a window whose fetch or extraction failed.
type FailedWindow struct {
	Window
	Error string `json:"error"`
}

// BackfillResult summarises a backfill run.
type BackfillResult struct {
	MonthsBack    int             `json:"monthsBack"`
	TotalPosts    int             `json:"totalPosts"`
	NewPosts      int             `json:"newPosts"`
	UniqueTickers int             `json:"uniqueTickers"`
	Tickers       []TickerSummary `json:"tickers"`
	FailedWindows []FailedWindow  `json:"failedWindows"`
}

type mentionTuple struct {
	ticker, name, context string
	timestamp             time.Time
}

// RunBackfill scans monthsBack calendar months of account, one window at a
// time. Backfill only refreshes recentMention: research briefs and quotes
// are left to live passes. A failing window is recorded and skipped; store
// errors and cancellation end the run.
func (o *Orchestrator) RunBackfill(ctx context.Context, account string, monthsBack int) (*BackfillResult, error) {
	monthsBack = ClampMonthsBack(monthsBack)
	result := &BackfillResult{MonthsBack: monthsBack, Tickers: []TickerSummary{}, FailedWindows: []FailedWindow{}}

	var tuples []mentionTuple
	for i, w := range MonthWindows(o.now(), monthsBack) {
		if i > 0 {
			if err := o.cfg.BackfillPacer.Wait(ctx); err != nil {
				result.finish(tuples)
				return result, err
			}
		}

		fetched, added, windowTuples, err := o.backfillWindow(ctx, account, w)
		result.TotalPosts += fetched
		result.NewPosts += added
		tuples = append(tuples, windowTuples...)

		if err != nil {
			var sfe *types.SourceFetchError
			var epe *types.ExtractionParseError
			if errors.As(err, &sfe) || errors.As(err, &epe) || errors.Is(err, context.DeadlineExceeded) {
				slog.Warn("backfill window failed", "account", account, "window", w.String(), "error", err)
				result.FailedWindows = append(result.FailedWindows, FailedWindow{Window: w, Error: err.Error()})
				continue
			}
			result.finish(tuples)
			return result, err
		}
		slog.Info("backfill window done", "account", account, "window", w.String(), "fetched", fetched, "new", added)
	}

	result.finish(tuples)
	return result, nil
}

func (o *Orchestrator) backfillWindow(ctx context.Context, account string, w Window) (fetched, added int, tuples []mentionTuple, err error) {
	posts, err := o.fetchWindow(ctx, account, w)
	if err != nil {
		return 0, 0, nil, err
	}
	fetched = len(posts)

	fresh, err := o.partition(ctx, posts)
	if err != nil {
		return fetched, 0, nil, fmt.Errorf("check ledger: %w", err)
	}
	if len(fresh) == 0 {
		return fetched, 0, nil, nil
	}

	mentions, err := o.extract(ctx, fresh)
	if err != nil {
		return fetched, 0, nil, err
	}

	for _, post := range fresh {
		if err := o.store.Ledger.Insert(ctx, post); err != nil {
			if errors.Is(err, types.ErrDuplicateKey) {
				continue
			}
			return fetched, added, tuples, fmt.Errorf("ledger post %s: %w", post.ID, err)
		}
		added++

		for _, m := range deduplication.DedupeMentions(Associate(post.Text, mentions)) {
			_, err := o.store.Companies.Upsert(ctx, m.Ticker,
				types.CompanyCreate{Name: m.Name, Sentiment: types.SentimentNeutral, RecentMention: m.MentionContext},
				types.CompanyUpdate{RecentMention: m.MentionContext},
				o.now())
			if err != nil {
				return fetched, added, tuples, fmt.Errorf("upsert company %s: %w", m.Ticker, err)
			}

			timestamp := post.PostedAt
			if timestamp.IsZero() {
				timestamp = w.Since
			}
			tuples = append(tuples, mentionTuple{ticker: m.Ticker, name: m.Name, context: m.MentionContext, timestamp: timestamp})
		}
	}
	return fetched, added, tuples, nil
}

func (o *Orchestrator) fetchWindow(ctx context.Context, account string, w Window) ([]types.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SourceTimeout)
	defer cancel()

	posts, err := o.source.FetchPostsInWindow(ctx, account, w.Since, w.Until)
	if err != nil {
		var sfe *types.SourceFetchError
		if !errors.As(err, &sfe) {
			err = &types.SourceFetchError{Account: account, Err: err}
		}
		return nil, err
	}
	return posts, nil
}

func (r *BackfillResult) finish(tuples []mentionTuple) {
	r.Tickers = rankTickers(tuples)
	r.UniqueTickers = len(r.Tickers)
}

// rankTickers groups tuples by ticker in first-seen order, keeps the context
// and timestamp of each group's last tuple, and sorts by mention count with
// ties in first-seen order.
func rankTickers(tuples []mentionTuple) []TickerSummary {
	index := make(map[string]int)
	out := make([]TickerSummary, 0)
	for _, t := range tuples {
		i, ok := index[t.ticker]
		if !ok {
			index[t.ticker] = len(out)
			out = append(out, TickerSummary{Ticker: t.ticker, Name: t.name})
			i = len(out) - 1
		}
		out[i].MentionCount++
		out[i].Context = t.context
		out[i].Timestamp = t.timestamp
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].MentionCount > out[b].MentionCount
	})
	return out
}
