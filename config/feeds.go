package config

import (
	"net/url"
	"strings"
)

// DefaultFeedPreset names the RSS bridge used when FEED_BASE_URL is not set
const DefaultFeedPreset = "nitter"

// FeedPresets maps friendly names to RSS bridge base URLs that expose an
// account timeline and a dated search as RSS.
var FeedPresets = map[string]string{
	"nitter":  "https://nitter.net",
	"privacy": "https://nitter.privacydev.net",
	"poast":   "https://nitter.poast.org",
}

// ResolveFeedURL resolves a preset name to its base URL.
// Any other input is returned as-is (assumed to be a direct URL).
func ResolveFeedURL(feedInput string) string {
	if u, exists := FeedPresets[feedInput]; exists {
		return u
	}
	return strings.TrimRight(feedInput, "/")
}

// TimelineFeedURL returns the RSS URL of an account's recent posts.
func TimelineFeedURL(base, handle string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(handle) + "/rss"
}

// SearchFeedURL returns the RSS URL of an account's posts between since and
// until, both formatted as YYYY-MM-DD.
func SearchFeedURL(base, handle, since, until string) string {
	q := url.Values{}
	q.Set("f", "tweets")
	q.Set("q", "from:"+handle+" since:"+since+" until:"+until)
	return strings.TrimRight(base, "/") + "/search/rss?" + q.Encode()
}
