package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"stockbot/config"
	"stockbot/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedSource reads an account's posts from an RSS bridge that exposes
// /{handle}/rss for the timeline and /search/rss for dated searches.
type FeedSource struct {
	baseURL string
	parser  *gofeed.Parser
}

func NewFeedSource(baseURL string) *FeedSource {
	return &FeedSource{baseURL: baseURL, parser: gofeed.NewParser()}
}

func (s *FeedSource) FetchRecentPosts(ctx context.Context, account string, maxCount int) ([]types.Post, error) {
	posts, err := s.fetch(ctx, account, config.TimelineFeedURL(s.baseURL, account))
	if err != nil {
		return nil, err
	}
	if maxCount > 0 && len(posts) > maxCount {
		posts = posts[:maxCount]
	}
	return posts, nil
}

// FetchPostsInWindow returns posts with since <= postedAt < until. Undated
// items are kept since the search query already bounds them to the window.
func (s *FeedSource) FetchPostsInWindow(ctx context.Context, account string, since, until time.Time) ([]types.Post, error) {
	feedURL := config.SearchFeedURL(s.baseURL, account, since.Format(time.DateOnly), until.Format(time.DateOnly))
	posts, err := s.fetch(ctx, account, feedURL)
	if err != nil {
		return nil, err
	}

	inWindow := posts[:0]
	for _, p := range posts {
		if !p.PostedAt.IsZero() && (p.PostedAt.Before(since) || !p.PostedAt.Before(until)) {
			continue
		}
		inWindow = append(inWindow, p)
	}
	return inWindow, nil
}

func (s *FeedSource) fetch(ctx context.Context, account, feedURL string) ([]types.Post, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &types.SourceFetchError{Account: account, Err: fmt.Errorf("failed to fetch feed: %w", err)}
	}

	posts := make([]types.Post, 0, len(feed.Items))
	seen := make(map[string]bool, len(feed.Items))
	for _, item := range feed.Items {
		p, ok := itemToPost(item, account)
		if !ok || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		posts = append(posts, p)
	}
	return posts, nil
}

func itemToPost(item *gofeed.Item, account string) (types.Post, bool) {
	id := statusID(item.Link)
	if id == "" {
		id = statusID(item.GUID)
	}
	if id == "" && item.Link != "" {
		id = types.GenerateID(item.Link)
	}

	text := htmlToText(item.Description)
	if text == "" {
		text = strings.TrimSpace(item.Title)
	}
	if id == "" || text == "" {
		return types.Post{}, false
	}

	var postedAt time.Time
	if item.PublishedParsed != nil {
		postedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		postedAt = *item.UpdatedParsed
	}

	author := "@" + account
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	return types.Post{
		ID:        id,
		Text:      text,
		Author:    author,
		PostedAt:  postedAt.UTC(),
		SourceURL: item.Link,
	}, true
}

// statusID extracts the numeric id from a ".../status/<id>#m" style link.
func statusID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.Contains(u.Path, "/status/") {
		return ""
	}
	id := path.Base(u.Path)
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

func htmlToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return strings.Join(strings.Fields(doc.Text()), " ")
}
