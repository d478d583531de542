package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for
// pasting into a trading journal. Structured facts live in a PROPERTIES
// drawer; narrative placeholders follow for review notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Symbol, t.Side, shortID(t.ID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":POSITION_ID: %d\n", t.PositionID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":AMOUNT: %.2f\n", t.Amount))
	b.WriteString(fmt.Sprintf(":LEVERAGE: %d\n", t.Leverage))
	b.WriteString(fmt.Sprintf(":OPEN_PRICE: %.5f\n", t.OpenPrice))
	b.WriteString(fmt.Sprintf(":CLOSE_PRICE: %.5f\n", t.ClosePrice))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":PROFIT: %.2f\n", t.ProfitAmount))
	b.WriteString(fmt.Sprintf(":PROFIT_PCT: %.2f\n", t.ProfitPercent))
	b.WriteString(fmt.Sprintf(":FEES: %.2f\n", t.Fees))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
