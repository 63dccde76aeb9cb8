package llm

import (
	"fmt"
	"strings"

	"stockbot/types"
)

const systemPrompt = `You are an equity research assistant. You read social media posts and market data and write precise, factual output. When asked for JSON, reply with JSON only.`

const extractPromptHeader = `Analyze these posts and extract every publicly traded company they mention.

%s

Return ONLY a JSON object (no markdown) structured as:
{
  "companies": [
    {
      "ticker": "SYMBOL",
      "name": "Full Company Name",
      "mentionContext": "exact phrase from the post mentioning the company",
      "sentiment": "bullish|bearish|neutral",
      "isCatalyst": true|false,
      "catalystType": "earnings|product|partnership|regulatory|other",
      "tweetId": "id of the post it came from"
    }
  ]
}

Only include companies with valid US ticker symbols. Set isCatalyst true only for significant market-moving news. Include a company once per post that mentions it.`

const profilePrompt = `Research %s (%s) and write a concise investor research brief.

Cover:
1. Business model and main revenue streams
2. Recent financial performance (revenue growth, margins, key metrics)
3. Competitive position and moat
4. Recent developments in the last 30 days
5. Bull case and bear case (2-3 points each)

Write in the style of a sell-side equity research note. Be specific with numbers and dates. 3-4 paragraphs max.`

const catalystPrompt = `Deep dive analysis on this market catalyst:

Company: %s (%s)
Catalyst Type: %s
Context: "%s"

Provide a structured analysis:
1. Verify and expand on the news with current data
2. Quantify the potential market impact (revenue, margins, TAM)
3. Comparable historical catalysts and their outcomes
4. Timeline and probability of full impact materializing
5. Key risks and counterpoints
6. Net assessment: significance level (high/medium/low) and why`

const digestPrompt = `Generate a market intelligence digest from monitoring %s.

TRACKED COMPANIES (%d):
%s

DETECTED CATALYSTS (%d):
%s

Write a structured digest with these sections:

## Executive Summary
## Top Opportunities
## Catalyst Deep Dives
## Sector Themes
## Risk Radar
## Actionable Summary

Write like a professional research report. Use data, be specific, avoid filler.`

func buildExtractPrompt(posts []types.Post) string {
	var sb strings.Builder
	for i, p := range posts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Post %d [id:%s]: %q", i+1, p.ID, p.Text)
	}
	return fmt.Sprintf(extractPromptHeader, sb.String())
}

func buildProfilePrompt(m types.CompanyMention) string {
	return fmt.Sprintf(profilePrompt, m.Name, m.Ticker)
}

func buildCatalystPrompt(m types.CompanyMention, postText string) string {
	kind := m.CatalystType
	if kind == "" {
		kind = types.CatalystOther
	}
	return fmt.Sprintf(catalystPrompt, m.Name, m.Ticker, kind, postText)
}

func buildDigestPrompt(in DigestInput) string {
	companies := make([]string, 0, len(in.Companies))
	for _, c := range in.Companies {
		companies = append(companies, fmt.Sprintf("%s (%s): %s", c.Name, c.Ticker, c.RecentMention))
	}
	catalysts := make([]string, 0, len(in.Catalysts))
	for _, c := range in.Catalysts {
		catalysts = append(catalysts, fmt.Sprintf("%s (%s), %s: %s", c.CompanyName, c.Ticker, c.Type, c.Description))
	}
	return fmt.Sprintf(digestPrompt, in.Handle,
		len(in.Companies), strings.Join(companies, "\n"),
		len(in.Catalysts), strings.Join(catalysts, "\n"))
}
