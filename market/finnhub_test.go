package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhubQuoter(t *testing.T) {
	var gotToken, gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Finnhub-Token")
		gotSymbol = r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		if gotSymbol == "NOPE" {
			_, _ = w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0}`))
			return
		}
		_, _ = w.Write([]byte(`{"c":150.5,"d":2.25,"dp":1.5,"h":151,"l":148,"o":149,"pc":148.25}`))
	}))
	t.Cleanup(srv.Close)

	q := newFinnhubQuoter("key", srv.URL)

	quote, err := q.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "key", gotToken)
	assert.Equal(t, "AAPL", gotSymbol)
	assert.Equal(t, 150.5, quote.Price)
	assert.Equal(t, 2.25, quote.Change)
	assert.Equal(t, 1.5, quote.ChangePercent)
	assert.Equal(t, 148.25, quote.PreviousClose)
	assert.Zero(t, quote.Volume, "quote endpoint has no volume")

	_, err = q.Quote(context.Background(), "NOPE")
	assert.Error(t, err)
}
