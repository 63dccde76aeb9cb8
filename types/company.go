package types

import "time"

// StalenessWindow bounds how often the research brief and price snapshot of a
// company are refreshed.
const StalenessWindow = 24 * time.Hour

// Company is the profile kept per ticker.
type Company struct {
	ID             int64     `json:"id"`
	Ticker         string    `json:"ticker"`
	Name           string    `json:"name"`
	ResearchBrief  string    `json:"researchBrief"`
	Sentiment      Sentiment `json:"sentiment"`
	RecentMention  string    `json:"recentMention"`
	Price          *float64  `json:"price,omitempty"`
	PriceChange    *float64  `json:"priceChange,omitempty"`
	PriceChangePct *float64  `json:"priceChangePct,omitempty"`
	FirstMentioned time.Time `json:"firstMentioned"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// IsStale reports whether the expensive fields of c must be refreshed at now.
// A company that does not exist yet is always stale.
func IsStale(c *Company, now time.Time) bool {
	if c == nil {
		return true
	}
	return now.Sub(c.LastUpdated) > StalenessWindow
}

// CompanyCreate holds every field written when a ticker is seen for the first time.
type CompanyCreate struct {
	Name          string
	Sentiment     Sentiment
	RecentMention string
	ResearchBrief string
	Quote         *Quote
}

// CompanyUpdate holds the fields overwritten on an existing company.
// An empty Sentiment leaves the stored value, and a nil Refresh leaves the
// research brief and price snapshot untouched.
type CompanyUpdate struct {
	Sentiment     Sentiment
	RecentMention string
	Refresh       *Refresh
}

// Refresh carries a new research brief and price snapshot. A nil Quote clears
// the stored price fields.
type Refresh struct {
	ResearchBrief string
	Quote         *Quote
}

// ApplyQuote copies the price snapshot of q into c, clearing it when q is nil.
func (c *Company) ApplyQuote(q *Quote) {
	if q == nil {
		c.Price, c.PriceChange, c.PriceChangePct = nil, nil, nil
		return
	}
	price, change, pct := q.Price, q.Change, q.ChangePercent
	c.Price, c.PriceChange, c.PriceChangePct = &price, &change, &pct
}
