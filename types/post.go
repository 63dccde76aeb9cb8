package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Post is a single item from the monitored account. ID is the idempotency key
// for the whole pipeline.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	PostedAt  time.Time `json:"posted_at"`
	SourceURL string    `json:"source_url"`
}

// Sentiment of a mention as judged by the extraction model.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}

// CatalystType classifies a market-moving event.
type CatalystType string

const (
	CatalystEarnings    CatalystType = "earnings"
	CatalystProduct     CatalystType = "product"
	CatalystPartnership CatalystType = "partnership"
	CatalystRegulatory  CatalystType = "regulatory"
	CatalystOther       CatalystType = "other"
)

func (c CatalystType) Valid() bool {
	switch c {
	case CatalystEarnings, CatalystProduct, CatalystPartnership, CatalystRegulatory, CatalystOther:
		return true
	}
	return false
}

// CompanyMention is one company reference returned by the extraction model.
// It is never persisted on its own.
type CompanyMention struct {
	Ticker         string       `json:"ticker"`
	Name           string       `json:"name"`
	MentionContext string       `json:"mentionContext"`
	Sentiment      Sentiment    `json:"sentiment"`
	IsCatalyst     bool         `json:"isCatalyst"`
	CatalystType   CatalystType `json:"catalystType,omitempty"`
	// PostID is the model's own echo of which post it read this from. Best effort only.
	PostID string `json:"tweetId,omitempty"`
}

// GenerateID derives a stable short id from a URL, for feed items without one.
func GenerateID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
