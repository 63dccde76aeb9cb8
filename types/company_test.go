package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		company *Company
		want    bool
	}{
		{"missing company", nil, true},
		{"updated 23 hours ago", &Company{LastUpdated: now.Add(-23 * time.Hour)}, false},
		{"updated exactly 24 hours ago", &Company{LastUpdated: now.Add(-24 * time.Hour)}, false},
		{"updated 25 hours ago", &Company{LastUpdated: now.Add(-25 * time.Hour)}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsStale(c.company, now))
		})
	}
}

func TestApplyQuote(t *testing.T) {
	c := &Company{}
	c.ApplyQuote(&Quote{Price: 101.5, Change: -1.25, ChangePercent: -1.22})
	if assert.NotNil(t, c.Price) {
		assert.Equal(t, 101.5, *c.Price)
		assert.Equal(t, -1.25, *c.PriceChange)
		assert.Equal(t, -1.22, *c.PriceChangePct)
	}

	c.ApplyQuote(nil)
	assert.Nil(t, c.Price)
	assert.Nil(t, c.PriceChange)
	assert.Nil(t, c.PriceChangePct)
}

func TestErrorTaxonomyUnwraps(t *testing.T) {
	cause := errors.New("timeout")

	var sfe *SourceFetchError
	err := fmt.Errorf("pass: %w", &SourceFetchError{Account: "acct", Err: cause})
	assert.True(t, errors.As(err, &sfe))
	assert.ErrorIs(t, err, cause)

	var epe *ExtractionParseError
	err = fmt.Errorf("pass: %w", &ExtractionParseError{Op: "extract mentions", Err: cause})
	assert.True(t, errors.As(err, &epe))
	assert.Contains(t, err.Error(), "invalid model response")

	assert.True(t, Sentiment("bullish").Valid())
	assert.False(t, Sentiment("euphoric").Valid())
	assert.True(t, CatalystType("regulatory").Valid())
	assert.False(t, CatalystType("rumor").Valid())
}
