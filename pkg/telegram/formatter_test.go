package telegram

import (
	"strings"
	"testing"
	"time"

	"tradersmind-analyzer/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestFormatAnalysisAlert(t *testing.T) {
	rec := &entity.AnalysisRecord{
		Tickers:        []string{"AAPL", "TSLA"},
		RelevanceScore: 0.85,
		RawText:        "solid setup on both names",
		Timestamp:      time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC),
		CanonicalURL:   "https://discord.com/channels/g1/c1/m1",
		ChartURLs:      []string{"https://www.tradingview.com/x/abc/"},
		HasCharts:      true,
	}

	out := FormatAnalysisAlert(rec)

	assert.Contains(t, out, "AAPL, TSLA")
	assert.Contains(t, out, "0.85")
	assert.Contains(t, out, "Charts:* 1")
	assert.Contains(t, out, "solid setup on both names")
	assert.Contains(t, out, "(https://discord.com/channels/g1/c1/m1)")
}

func TestFormatAnalysisAlertTruncatesQuote(t *testing.T) {
	rec := &entity.AnalysisRecord{
		Tickers:   []string{"NVDA"},
		RawText:   strings.Repeat("א", 450),
		Timestamp: time.Now(),
	}

	out := FormatAnalysisAlert(rec)

	assert.Contains(t, out, strings.Repeat("א", 400)+"...")
	assert.NotContains(t, out, strings.Repeat("א", 401))
}
