package briefing

import (
	"fmt"
	"strings"

	"cryptobrief/advisor"
	"cryptobrief/portfolio"
	"cryptobrief/signal"
)

// Payload is one account's fully assembled morning briefing.
type Payload struct {
	DisplayName      string
	Metrics          portfolio.Metrics
	Advice           []advisor.PositionAdvice
	Winner           advisor.CandidateAnalysis
	WinnerIsFallback bool
	News             string
}

const divider = "━━━━━━━━━━━━━━━━━━"

// Render formats the briefing as a Telegram Markdown message.
func Render(p Payload) string {
	var sb strings.Builder
	sb.Grow(1024)

	name := p.DisplayName
	if name == "" {
		name = "there"
	}
	sb.WriteString(fmt.Sprintf("🌅 **Good morning %s!**\n\n", name))

	sb.WriteString("📊 **PORTFOLIO UPDATE (24h)**\n")
	sb.WriteString(divider + "\n\n")
	if p.Metrics.Degraded {
		sb.WriteString("⚠️ Portfolio metrics are unavailable this morning.\n")
	} else {
		trend := "➡️"
		if p.Metrics.Change24h > 0 {
			trend = "📈"
		} else if p.Metrics.Change24h < 0 {
			trend = "📉"
		}
		sb.WriteString(fmt.Sprintf("💰 Total Value: `$%.2f`\n", p.Metrics.TotalValue))
		sb.WriteString(fmt.Sprintf("%s 24h Change: `$%+.2f` (`%+.2f%%`)\n\n", trend, p.Metrics.Change24h, p.Metrics.Change24hPct))
		sb.WriteString(fmt.Sprintf("🏆 Top Performer:\n• **%s**: `%+.2f%%`\n", p.Metrics.BestPerformer, p.Metrics.BestPerformerPct))
	}

	if len(p.Advice) > 0 {
		sb.WriteString("\n💡 **POSITION ADVICE**\n")
		for _, adv := range p.Advice {
			sb.WriteString(fmt.Sprintf("• **%s** (`%+.1f%%`): %s\n", adv.Symbol, adv.PnlPct, adv.Text))
		}
	}

	sb.WriteString("\n🎁 **BONUS TRADE OF THE DAY**\n")
	sb.WriteString(fmt.Sprintf("%s **%s** — %s\n", actionEmoji(p.Winner.Action), p.Winner.Symbol, p.Winner.Action))
	sb.WriteString(fmt.Sprintf("🎯 Confidence: `%d%%` | Risk: %s\n", p.Winner.Confidence, p.Winner.Risk))
	if p.WinnerIsFallback {
		sb.WriteString("_No high-conviction setup today._\n")
	}

	if p.News != "" {
		sb.WriteString("\n📰 **Market News:**\n")
		sb.WriteString(p.News)
		sb.WriteString("\n")
	}

	sb.WriteString("\n" + divider + "\n")
	sb.WriteString("Have a great day! 🚀")

	return sb.String()
}

func actionEmoji(action signal.Action) string {
	switch action {
	case signal.ActionBuy:
		return "🟢"
	case signal.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}
