package market

import (
	"context"
	"fmt"

	"stockbot/types"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

type FinnhubQuoter struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubQuoter(apiKey string) *FinnhubQuoter {
	return newFinnhubQuoter(apiKey, "")
}

func newFinnhubQuoter(apiKey, serverURL string) *FinnhubQuoter {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if serverURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: serverURL}}
	}
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnhubQuoter{client: client}
}

func (f *FinnhubQuoter) Quote(ctx context.Context, ticker string) (*types.Quote, error) {
	res, _, err := f.client.Quote(ctx).Symbol(ticker).Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub quote: %w", err)
	}

	// Unknown symbols come back as an all-zero quote.
	if res.GetC() == 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	// /quote carries no volume, so Volume stays zero.
	return &types.Quote{
		Price:         float64(res.GetC()),
		Change:        float64(res.GetD()),
		ChangePercent: float64(res.GetDp()),
		High:          float64(res.GetH()),
		Low:           float64(res.GetL()),
		PreviousClose: float64(res.GetPc()),
	}, nil
}
