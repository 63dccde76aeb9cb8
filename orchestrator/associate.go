package orchestrator

import (
	"strings"

	"stockbot/types"
)

// Associate returns the mentions whose ticker or name occurs in text,
// case-insensitively. The model's own post id echo is ignored.
func Associate(text string, mentions []types.CompanyMention) []types.CompanyMention {
	lower := strings.ToLower(text)

	var out []types.CompanyMention
	for _, m := range mentions {
		ticker := strings.ToLower(strings.TrimSpace(m.Ticker))
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if (ticker != "" && strings.Contains(lower, ticker)) || (name != "" && strings.Contains(lower, name)) {
			out = append(out, m)
		}
	}
	return out
}
