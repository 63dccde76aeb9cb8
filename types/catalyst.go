package types

import "time"

// Catalyst is an analysed market-moving event tied to one company and one post.
type Catalyst struct {
	ID          int64        `json:"id"`
	Type        CatalystType `json:"type"`
	Description string       `json:"description"`
	Analysis    string       `json:"analysis"`
	Sentiment   Sentiment    `json:"sentiment"`
	DetectedAt  time.Time    `json:"detectedAt"`
	CompanyID   int64        `json:"companyId"`
	PostID      string       `json:"postId"`

	// Filled on reads.
	Ticker      string `json:"ticker,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// Digest is a synthesized summary. Digests are append-only.
type Digest struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	StockCount    int       `json:"stockCount"`
	CatalystCount int       `json:"catalystCount"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
