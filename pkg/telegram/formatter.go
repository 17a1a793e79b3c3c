package telegram

import (
	"fmt"
	"strings"

	"tradersmind-analyzer/internal/entity"
)

// FormatAnalysisAlert formats a newly indexed analysis record into a Markdown
// string for Telegram, truncating the quoted text so the message stays well
// under the Telegram length limit.
func FormatAnalysisAlert(rec *entity.AnalysisRecord) string {
	const maxQuoteLen = 400

	var b strings.Builder
	b.WriteString("📊 *New analysis indexed*\n\n")
	b.WriteString(fmt.Sprintf("*Tickers:* %s\n", strings.Join(rec.Tickers, ", ")))
	b.WriteString(fmt.Sprintf("*Relevance:* %.2f\n", rec.RelevanceScore))
	if rec.HasCharts {
		b.WriteString(fmt.Sprintf("📈 *Charts:* %d attached\n", len(rec.ChartURLs)))
	}
	b.WriteString(fmt.Sprintf("🕒 %s\n", rec.Timestamp.Format("2006-01-02 15:04")))

	quote := rec.RawText
	if runes := []rune(quote); len(runes) > maxQuoteLen {
		quote = string(runes[:maxQuoteLen]) + "..."
	}
	b.WriteString(fmt.Sprintf("\n💬 %s\n", quote))
	b.WriteString(fmt.Sprintf("\n[Open message](%s)", rec.CanonicalURL))

	return b.String()
}
