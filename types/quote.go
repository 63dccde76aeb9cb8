package types

// Quote is a market data snapshot for one ticker. Volume is zero when the
// provider does not report it; Finnhub's quote endpoint never does.
type Quote struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previousClose"`
}
