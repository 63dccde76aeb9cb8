package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timelineRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>acct / timeline</title>
<item>
  <title>Bought more $NVDA today</title>
  <description><![CDATA[<p>Bought more <a href="/search?q=%24NVDA">$NVDA</a> today<br>Datacenter demand is wild</p>]]></description>
  <pubDate>Mon, 10 Mar 2025 14:00:00 GMT</pubDate>
  <guid>https://bridge.test/acct/status/1001#m</guid>
  <link>https://bridge.test/acct/status/1001#m</link>
</item>
<item>
  <title>Tesla deliveries beat</title>
  <description></description>
  <pubDate>Sun, 09 Mar 2025 09:30:00 GMT</pubDate>
  <guid>https://bridge.test/acct/status/1000#m</guid>
  <link>https://bridge.test/acct/status/1000#m</link>
</item>
<item>
  <title>duplicate of the first</title>
  <description>dup</description>
  <pubDate>Mon, 10 Mar 2025 14:00:00 GMT</pubDate>
  <guid>https://bridge.test/acct/status/1001#m</guid>
  <link>https://bridge.test/acct/status/1001#m</link>
</item>
<item>
  <title>Old post</title>
  <description>Apple is cheap</description>
  <pubDate>Fri, 28 Feb 2025 23:59:00 GMT</pubDate>
  <guid>https://bridge.test/acct/status/999#m</guid>
  <link>https://bridge.test/acct/status/999#m</link>
</item>
</channel>
</rss>`

func newBridge(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RequestURI())
		if r.URL.Path == "/broken/rss" {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(timelineRSS))
	}))
	t.Cleanup(srv.Close)
	return srv, &requested
}

func TestFetchRecentPosts(t *testing.T) {
	srv, requested := newBridge(t)
	src := NewFeedSource(srv.URL)

	t.Run("parses posts and drops duplicates", func(t *testing.T) {
		posts, err := src.FetchRecentPosts(context.Background(), "acct", 10)
		require.NoError(t, err)
		require.Len(t, posts, 3)

		assert.Equal(t, "1001", posts[0].ID)
		assert.Equal(t, "Bought more $NVDA today Datacenter demand is wild", posts[0].Text)
		assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), posts[0].PostedAt)
		assert.Equal(t, "https://bridge.test/acct/status/1001#m", posts[0].SourceURL)

		assert.Equal(t, "1000", posts[1].ID)
		assert.Equal(t, "Tesla deliveries beat", posts[1].Text, "falls back to the title when the body is empty")
		assert.Contains(t, *requested, "/acct/rss")
	})

	t.Run("limits to maxCount", func(t *testing.T) {
		posts, err := src.FetchRecentPosts(context.Background(), "acct", 1)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	})

	t.Run("wraps failures as SourceFetchError", func(t *testing.T) {
		_, err := src.FetchRecentPosts(context.Background(), "broken", 10)
		var sfe *types.SourceFetchError
		require.True(t, errors.As(err, &sfe))
		assert.Equal(t, "broken", sfe.Account)
	})
}

func TestFetchPostsInWindow(t *testing.T) {
	srv, requested := newBridge(t)
	src := NewFeedSource(srv.URL)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	posts, err := src.FetchPostsInWindow(context.Background(), "acct", since, until)
	require.NoError(t, err)

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1001", "1000"}, ids, "the February post is outside the window")

	require.NotEmpty(t, *requested)
	last := (*requested)[len(*requested)-1]
	assert.True(t, strings.HasPrefix(last, "/search/rss?"))
	assert.Contains(t, last, "since%3A2025-03-01")
	assert.Contains(t, last, "until%3A2025-04-01")
}

const undatedRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<item>
  <title>No date on this one, $AMD</title>
  <guid>https://bridge.test/acct/status/2001#m</guid>
  <link>https://bridge.test/acct/status/2001#m</link>
</item>
<item>
  <title>Too early</title>
  <pubDate>Fri, 28 Feb 2025 23:59:00 GMT</pubDate>
  <guid>https://bridge.test/acct/status/2000#m</guid>
  <link>https://bridge.test/acct/status/2000#m</link>
</item>
</channel>
</rss>`

func TestFetchPostsInWindowKeepsUndated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(undatedRSS))
	}))
	t.Cleanup(srv.Close)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	posts, err := NewFeedSource(srv.URL).FetchPostsInWindow(context.Background(), "acct", since, since.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "2001", posts[0].ID)
	assert.True(t, posts[0].PostedAt.IsZero())
}

func TestStatusID(t *testing.T) {
	assert.Equal(t, "1001", statusID("https://bridge.test/acct/status/1001#m"))
	assert.Equal(t, "", statusID("https://bridge.test/acct"))
	assert.Equal(t, "", statusID("https://bridge.test/acct/status/abc"))
}
