package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatDealOrg renders a DealRecord as an Org-mode block: structured
// facts in a PROPERTIES drawer, plus an empty Review section for notes.
func FormatDealOrg(d DealRecord) string {
	heading := fmt.Sprintf("** Deal: %s %s (%s)", d.Symbol, d.Side, shortID(d.DealID))
	open := d.OpenTime.UTC().Format(time.RFC3339)
	close := d.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", d.DealID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", d.RunID))
	b.WriteString(fmt.Sprintf(":TICKET: %s\n", d.Ticket))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", d.Symbol))
	b.WriteString(fmt.Sprintf(":MAGIC: %d\n", d.Magic))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", d.Side))
	b.WriteString(fmt.Sprintf(":VOLUME: %g\n", d.Volume))
	b.WriteString(fmt.Sprintf(":OPEN_PRICE: %g\n", d.OpenPrice))
	b.WriteString(fmt.Sprintf(":CLOSE_PRICE: %g\n", d.ClosePrice))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":PROFIT: %.2f\n", d.Profit))
	b.WriteString(fmt.Sprintf(":FEE: %.2f\n", d.Fee))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", d.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatDealsOrg renders deals separated by blank lines, followed by a
// summary heading.
func FormatDealsOrg(deals []DealRecord) string {
	var b strings.Builder
	for i, d := range deals {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatDealOrg(d))
	}
	if len(deals) > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(FormatSummaryOrg(Summarize(deals)))
	return b.String()
}

func FormatSummaryOrg(s Summary) string {
	var b strings.Builder
	b.WriteString("** Summary\n")
	b.WriteString(fmt.Sprintf("- Deals: %d (%d won, %d lost)\n", s.Deals, s.Wins, s.Losses))
	b.WriteString(fmt.Sprintf("- Gross: +%.2f / -%.2f\n", s.GrossProfit, s.GrossLoss))
	b.WriteString(fmt.Sprintf("- Fees: %.2f\n", s.Fees))
	b.WriteString(fmt.Sprintf("- Net: %.2f\n", s.Net()))
	b.WriteString(fmt.Sprintf("- Accuracy: %.2f%%\n", s.Accuracy()))
	b.WriteString(fmt.Sprintf("- Profit factor: %.2f\n", s.ProfitFactor()))
	return b.String()
}

// shortID keeps the random tail of a ULID; its head is the timestamp and
// repeats across deals closed in the same millisecond range.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
