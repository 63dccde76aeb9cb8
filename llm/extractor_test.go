package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeCompleter) ModelName() string { return "fake" }

func TestExtractMentions(t *testing.T) {
	ctx := context.Background()
	posts := []types.Post{
		{ID: "111", Text: "Loading up on $AMD"},
		{ID: "222", Text: "Microsoft earnings tonight"},
	}

	t.Run("empty batch never calls the model", func(t *testing.T) {
		fc := &fakeCompleter{}
		mentions, err := NewAdapter(fc).ExtractMentions(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, mentions)
		assert.Empty(t, fc.prompts)
	})

	t.Run("one call for the whole batch", func(t *testing.T) {
		fc := &fakeCompleter{replies: []string{`{"companies":[{"ticker":"AMD","name":"Advanced Micro Devices","mentionContext":"$AMD","sentiment":"bullish","isCatalyst":false}]}`}}
		mentions, err := NewAdapter(fc).ExtractMentions(ctx, posts)
		require.NoError(t, err)
		require.Len(t, fc.prompts, 1)
		assert.Contains(t, fc.prompts[0], "[id:111]")
		assert.Contains(t, fc.prompts[0], "[id:222]")
		assert.Len(t, mentions, 1)
	})

	t.Run("malformed reply is a parse error", func(t *testing.T) {
		fc := &fakeCompleter{replies: []string{"no JSON for you"}}
		_, err := NewAdapter(fc).ExtractMentions(ctx, posts)
		var parseErr *types.ExtractionParseError
		assert.True(t, errors.As(err, &parseErr))
	})

	t.Run("transport errors are wrapped", func(t *testing.T) {
		cause := errors.New("503")
		_, err := NewAdapter(&fakeCompleter{err: cause}).ExtractMentions(ctx, posts)
		assert.ErrorIs(t, err, cause)
		var parseErr *types.ExtractionParseError
		assert.False(t, errors.As(err, &parseErr))
	})
}

func TestTextCapabilities(t *testing.T) {
	ctx := context.Background()
	mention := types.CompanyMention{Ticker: "TSLA", Name: "Tesla", IsCatalyst: true, CatalystType: types.CatalystProduct}

	fc := &fakeCompleter{replies: []string{"  brief  ", "analysis", "digest body", "   "}}
	a := NewAdapter(fc)

	brief, err := a.AuthorProfile(ctx, mention)
	require.NoError(t, err)
	assert.Equal(t, "brief", brief)
	assert.Contains(t, fc.prompts[0], "Tesla (TSLA)")

	analysis, err := a.AnalyzeCatalyst(ctx, mention, "Robotaxi launch date set")
	require.NoError(t, err)
	assert.Equal(t, "analysis", analysis)
	assert.Contains(t, fc.prompts[1], "Catalyst Type: product")
	assert.Contains(t, fc.prompts[1], "Robotaxi launch date set")

	digest, err := a.AuthorDigest(ctx, DigestInput{
		Handle:    "@acct",
		Companies: []types.Company{{Ticker: "TSLA", Name: "Tesla", RecentMention: "robotaxi", LastUpdated: time.Now()}},
		Catalysts: []types.Catalyst{{Ticker: "TSLA", CompanyName: "Tesla", Type: types.CatalystProduct, Description: "robotaxi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "digest body", digest)
	assert.Contains(t, fc.prompts[2], "TRACKED COMPANIES (1)")
	assert.Contains(t, fc.prompts[2], "## Risk Radar")

	_, err = a.AuthorProfile(ctx, mention)
	var parseErr *types.ExtractionParseError
	assert.True(t, errors.As(err, &parseErr), "blank reply should be rejected")
}

func TestNewCompleter(t *testing.T) {
	_, err := NewCompleter("anthropic", "", "")
	assert.Error(t, err)

	_, err = NewCompleter("mystery", "key", "")
	assert.Error(t, err)

	for _, p := range []string{"anthropic", "openai", "cohere"} {
		c, err := NewCompleter(p, "key", "")
		require.NoError(t, err, p)
		assert.NotEmpty(t, c.ModelName())
	}
}
