package tui

import (
	"fmt"
	"strings"

	"stockbot/types"
)

const maxCompanyRows = 10

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📈 Stockbot Dashboard"))
	b.WriteString("\n")

	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if m.Data != nil {
		stats := fmt.Sprintf("📊 Posts: %d | Companies: %d | Catalysts: %d | Digests: %d",
			m.Data.TweetCount, len(m.Data.Companies), len(m.Data.Catalysts), len(m.Data.Digests))
		b.WriteString(InfoStyle.Render(stats))
		b.WriteString("\n\n")

		if len(m.Data.Companies) > 0 {
			b.WriteString(BoxStyle.Render(companyTable(m.Data.Companies)))
			b.WriteString("\n\n")
		}
	}

	if m.Status != nil && len(m.Status.RecentRuns) > 0 {
		b.WriteString(InfoStyle.Render("🕘 Recent Runs:"))
		b.WriteString("\n")
		for _, r := range m.Status.RecentRuns {
			line := fmt.Sprintf("   %s %-9s %s", r.StartedAt.Local().Format("15:04:05"), r.Kind, r.Summary)
			if r.Success {
				b.WriteString(StatusStyle.Render(line))
			} else {
				b.WriteString(ErrorStyle.Render(line + " " + r.Error))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.Status != nil && len(m.Status.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		logs := m.Status.Logs
		if len(logs) > 10 {
			logs = logs[len(logs)-10:]
		}
		for _, entry := range logs {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("   [%s] %s", entry.Timestamp.Local().Format("15:04:05"), entry.Message)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, line := range m.Local {
		b.WriteString(InfoStyle.Render("   " + line))
		b.WriteString("\n")
	}
	if len(m.Local) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render(fmt.Sprintf(TextFooter, m.MonthsBack)))
	return b.String()
}

func (m Model) stateText() string {
	if !m.Connected {
		text := "❌ Not connected"
		if m.Err != nil {
			text += ": " + m.Err.Error()
		}
		return ErrorStyle.Render(text)
	}
	if m.Status == nil || !m.Status.Busy {
		return HighlightStyle.Render("👋 Idle")
	}

	kinds := make([]string, 0, len(m.Status.ActiveRuns))
	for _, r := range m.Status.ActiveRuns {
		kinds = append(kinds, string(r.Kind))
	}
	return StatusStyle.Render("⏳ Running: " + strings.Join(kinds, ", "))
}

func companyTable(companies []types.Company) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-7s %-24s %10s %8s\n", "TICKER", "NAME", "PRICE", "CHG%"))
	for i, c := range companies {
		if i == maxCompanyRows {
			b.WriteString(fmt.Sprintf("... %d more", len(companies)-maxCompanyRows))
			break
		}
		price, pct := "-", "-"
		if c.Price != nil {
			price = fmt.Sprintf("%.2f", *c.Price)
		}
		if c.PriceChangePct != nil {
			pct = fmt.Sprintf("%+.2f", *c.PriceChangePct)
		}
		row := fmt.Sprintf("%-7s %-24s %10s %8s", c.Ticker, truncate(c.Name, 24), price, pct)
		switch c.Sentiment {
		case types.SentimentBullish:
			row = BullishStyle.Render(row)
		case types.SentimentBearish:
			row = BearishStyle.Render(row)
		}
		b.WriteString(row)
		if i < len(companies)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
