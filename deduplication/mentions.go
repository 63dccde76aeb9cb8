package deduplication

import (
	"strings"

	"stockbot/types"
)

// DedupeMentions collapses mentions of the same ticker (or, without a ticker,
// the same name) into the first occurrence. If any duplicate was flagged as a
// catalyst the survivor is promoted, keeping the first catalyst type seen.
func DedupeMentions(mentions []types.CompanyMention) []types.CompanyMention {
	if len(mentions) < 2 {
		return mentions
	}

	out := make([]types.CompanyMention, 0, len(mentions))
	index := make(map[string]int, len(mentions))
	for _, m := range mentions {
		key := mentionKey(m)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, m)
			continue
		}
		if m.IsCatalyst && !out[i].IsCatalyst {
			out[i].IsCatalyst = true
			out[i].CatalystType = m.CatalystType
		}
	}
	return out
}

func mentionKey(m types.CompanyMention) string {
	if t := strings.ToUpper(strings.TrimSpace(m.Ticker)); t != "" {
		return "t:" + t
	}
	return "n:" + strings.ToLower(strings.Join(strings.Fields(m.Name), " "))
}
