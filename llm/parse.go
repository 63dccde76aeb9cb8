package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"stockbot/types"
)

var tickerRe = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// rawMention mirrors the response schema with pointers so missing keys can be told
// apart from zero values.
type rawMention struct {
	Ticker         *string         `json:"ticker"`
	Name           *string         `json:"name"`
	MentionContext *string         `json:"mentionContext"`
	Sentiment      *string         `json:"sentiment"`
	IsCatalyst     *bool           `json:"isCatalyst"`
	CatalystType   *string         `json:"catalystType"`
	TweetID        json.RawMessage `json:"tweetId"`
}

// cleanJSONResponse strips markdown fences and any prose around the JSON value.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closer := "}"
	if content[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(content, closer)
	if end > start {
		content = content[start : end+1]
	}
	return content
}

// parseMentions validates a mention-extraction reply. Any schema violation is
// returned as *types.ExtractionParseError.
func parseMentions(content string) ([]types.CompanyMention, error) {
	cleaned := cleanJSONResponse(content)
	fail := func(err error) error {
		return &types.ExtractionParseError{Op: "extract mentions", Content: content, Err: err}
	}

	var raws []rawMention
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
			return nil, fail(err)
		}
	} else {
		var envelope struct {
			Companies *[]rawMention `json:"companies"`
		}
		if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
			return nil, fail(err)
		}
		if envelope.Companies == nil {
			return nil, fail(errors.New(`missing "companies" array`))
		}
		raws = *envelope.Companies
	}

	mentions := make([]types.CompanyMention, 0, len(raws))
	for i, r := range raws {
		m, err := r.validate()
		if err != nil {
			return nil, fail(fmt.Errorf("company %d: %w", i, err))
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

func (r rawMention) validate() (types.CompanyMention, error) {
	var m types.CompanyMention

	if r.Ticker == nil {
		return m, errors.New("missing ticker")
	}
	ticker := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(*r.Ticker), "$"))
	if !tickerRe.MatchString(ticker) {
		return m, fmt.Errorf("invalid ticker %q", *r.Ticker)
	}

	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return m, errors.New("missing name")
	}
	if r.MentionContext == nil {
		return m, errors.New("missing mentionContext")
	}

	if r.Sentiment == nil {
		return m, errors.New("missing sentiment")
	}
	sentiment := types.Sentiment(strings.ToLower(strings.TrimSpace(*r.Sentiment)))
	if !sentiment.Valid() {
		return m, fmt.Errorf("invalid sentiment %q", *r.Sentiment)
	}

	if r.IsCatalyst == nil {
		return m, errors.New("missing isCatalyst")
	}

	m = types.CompanyMention{
		Ticker:         ticker,
		Name:           strings.TrimSpace(*r.Name),
		MentionContext: strings.TrimSpace(*r.MentionContext),
		Sentiment:      sentiment,
		IsCatalyst:     *r.IsCatalyst,
		PostID:         rawID(r.TweetID),
	}

	if m.IsCatalyst {
		m.CatalystType = types.CatalystOther
		if r.CatalystType != nil && strings.TrimSpace(*r.CatalystType) != "" {
			kind := types.CatalystType(strings.ToLower(strings.TrimSpace(*r.CatalystType)))
			if !kind.Valid() {
				return m, fmt.Errorf("invalid catalystType %q", *r.CatalystType)
			}
			m.CatalystType = kind
		}
	}
	return m, nil
}

// rawID accepts the post id echo as either a JSON string or number.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
