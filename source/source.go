package source

import (
	"context"
	"time"

	"stockbot/types"
)

// Source is the content-source capability. Both calls are best effort: they
// may return fewer posts than asked for and posts that were already seen.
type Source interface {
	FetchRecentPosts(ctx context.Context, account string, maxCount int) ([]types.Post, error)
	FetchPostsInWindow(ctx context.Context, account string, since, until time.Time) ([]types.Post, error)
}
