package config

import "time"

// Ingestion Constants
const (
	// DefaultMaxPostsPerPass is how many recent posts a polling pass reads
	DefaultMaxPostsPerPass = 10

	// DefaultSourceTimeout bounds a single content source call
	DefaultSourceTimeout = 45 * time.Second

	// DefaultExtractionTimeout bounds a single call to the extraction model
	DefaultExtractionTimeout = 90 * time.Second

	// MaxCatalystsPerPost caps how many catalysts one post can produce
	MaxCatalystsPerPost = 5
)

// Market Data Constants
const (
	// DefaultQuoteSpacing is the minimum gap between two quote calls on the shared API key
	DefaultQuoteSpacing = 12500 * time.Millisecond

	// QuoteTimeout bounds a single quote call
	QuoteTimeout = 8 * time.Second

	// DefaultQuoteCacheTTL is how long a fetched quote is reused across passes
	DefaultQuoteCacheTTL = 5 * time.Minute
)

// Backfill Constants
const (
	// DefaultMonthsBack is used when a backfill request does not name a range
	DefaultMonthsBack = 3

	// MaxMonthsBack caps a single backfill request
	MaxMonthsBack = 24

	// DefaultBackfillPacing is the pause between two monthly windows
	DefaultBackfillPacing = 3 * time.Second
)

// Digest Constants
const (
	// DigestMaxAge forces a digest once the last one is older than this
	DigestMaxAge = 7 * 24 * time.Hour

	// DigestCatalystThreshold forces a digest once this many catalysts accumulated
	DigestCatalystThreshold = 5

	// DigestMinCompanies is the minimum number of tracked companies to author a digest
	DigestMinCompanies = 3

	// DigestTopN is how many companies and catalysts feed one digest
	DigestTopN = 20
)

// View Constants
const (
	DataCatalystLimit = 50
	DataDigestLimit   = 5
)
