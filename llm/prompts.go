package llm

import (
	"fmt"
	"strings"
)

// System prompts per call type
const (
	SystemOpportunityAnalyst = "You are a professional crypto trading analyst specializing in identifying high-conviction trade setups."
	SystemPositionAdvisor    = "You are a concise crypto trading advisor."
	SystemNewsAnalyst        = "You are a professional crypto market analyst. Be concise and objective."
)

// FormatOpportunityPrompt creates the "Trade of the Day" analysis prompt
// for a single candidate symbol.
func FormatOpportunityPrompt(symbol string, currentPrice float64) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString(fmt.Sprintf("Analyze %s as a potential \"Trade of the Day\" opportunity:\n\n", symbol))
	sb.WriteString(fmt.Sprintf("Current Price: $%.2f\n\n", currentPrice))

	sb.WriteString("Provide analysis covering:\n\n")
	sb.WriteString("1. **Trading Recommendation**: BUY/SELL/HOLD\n")
	sb.WriteString("2. **Confidence Score**: 0-100 (how confident in this trade)\n")
	sb.WriteString("3. **Entry Strategy**: Optimal entry price range\n")
	sb.WriteString("4. **Price Targets**: Take-profit levels (TP1, TP2, TP3)\n")
	sb.WriteString("5. **Stop Loss**: Risk management level\n")
	sb.WriteString("6. **Key Catalysts**: Top 3 reasons for this opportunity\n")
	sb.WriteString("7. **Risk Level**: LOW/MEDIUM/HIGH\n\n")

	sb.WriteString("Focus on:\n")
	sb.WriteString("- Recent news and developments (last 24-48 hours)\n")
	sb.WriteString("- Technical momentum and key levels\n")
	sb.WriteString("- Market sentiment shifts\n")
	sb.WriteString("- Volume and liquidity analysis\n\n")
	sb.WriteString("Be specific and actionable for retail traders.")

	return sb.String()
}

// FormatPositionAdvicePrompt creates the one-sentence advice prompt for a
// held position.
func FormatPositionAdvicePrompt(symbol string, currentPrice, buyPrice, pnlPct float64) string {
	var sb strings.Builder
	sb.Grow(512)

	sb.WriteString(fmt.Sprintf("Provide a brief 1-sentence trading advice for this %s position:\n", symbol))
	sb.WriteString(fmt.Sprintf("- Buy Price: $%.2f\n", buyPrice))
	sb.WriteString(fmt.Sprintf("- Current Price: $%.2f\n", currentPrice))
	sb.WriteString(fmt.Sprintf("- P&L: %+.1f%%\n\n", pnlPct))

	sb.WriteString("Give ONE short actionable recommendation (HOLD/BUY MORE/TAKE PROFIT) based on current market conditions.\n")
	sb.WriteString("Format: \"[ACTION]: [brief reason].\"\n")
	sb.WriteString("Example: \"HOLD: Strong support at $40k, target $50k.\"")

	return sb.String()
}

// FormatNewsSummaryPrompt creates the market news digest prompt for the
// symbols an account holds.
func FormatNewsSummaryPrompt(symbols []string) string {
	var sb strings.Builder
	sb.Grow(512 + len(symbols)*8)

	sb.WriteString("Summarize the most important crypto market news of the last 24 hours for a retail investor holding: ")
	sb.WriteString(strings.Join(symbols, ", "))
	sb.WriteString(".\n\n")
	sb.WriteString("Cover at most 3 items. One line per item, plain language, no hype.\n")
	sb.WriteString("Maximum 80 words total.")

	return sb.String()
}
