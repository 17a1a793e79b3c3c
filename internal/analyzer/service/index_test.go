package service

import (
	"fmt"
	"testing"
	"time"

	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex() AnalysisIndex {
	return NewAnalysisIndex(testConfig(), logger.NewNop())
}

func recAt(id string, ts time.Time, score float64) *entity.AnalysisRecord {
	return &entity.AnalysisRecord{
		SourceMessageID: id,
		SourceChannelID: "c1",
		AuthorID:        "author-1",
		RawText:         "text " + id,
		Tickers:         []string{"AAPL"},
		Timestamp:       ts,
		RelevanceScore:  score,
	}
}

func TestIndexLatestStrictlyNewer(t *testing.T) {
	now := time.Now()
	newer := recAt("m2", now, 0.8)
	older := recAt("m1", now.Add(-time.Hour), 0.9)

	idx := newTestIndex()
	idx.Record("AAPL", newer)
	idx.Record("AAPL", older)

	got, ok := idx.Latest("AAPL")
	require.True(t, ok)
	assert.Equal(t, "m2", got.SourceMessageID)

	// same records, reversed arrival order
	idx = newTestIndex()
	idx.Record("AAPL", older)
	idx.Record("AAPL", newer)

	got, ok = idx.Latest("AAPL")
	require.True(t, ok)
	assert.Equal(t, "m2", got.SourceMessageID)
}

func TestIndexLatestEqualTimestampKeepsFirst(t *testing.T) {
	now := time.Now()
	first := recAt("m1", now, 0.8)
	second := recAt("m2", now, 0.9)

	idx := newTestIndex()
	idx.Record("AAPL", first)
	idx.Record("AAPL", second)

	got, ok := idx.Latest("AAPL")
	require.True(t, ok)
	assert.Equal(t, "m1", got.SourceMessageID)
}

func TestIndexLatestUnknownTicker(t *testing.T) {
	idx := newTestIndex()

	_, ok := idx.Latest("AAPL")
	assert.False(t, ok)
}

func TestIndexHistoryCap(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	for i := 0; i < 25; i++ {
		ts := now.Add(-time.Duration(i) * time.Minute)
		idx.Record("AAPL", recAt(fmt.Sprintf("m%d", i), ts, 0.8))
	}

	recent := idx.Recent("AAPL", 100)
	require.Len(t, recent, 20)
	// the five oldest inserts fell off
	for _, rec := range recent {
		assert.True(t, rec.Timestamp.After(now.Add(-21*time.Minute)))
	}
}

func TestIndexRecentRankedByDecayAndScore(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	// half-hour old, low score: 1.0 + 0.2
	idx.Record("AAPL", recAt("new-weak", now.Add(-30*time.Minute), 0.2))
	// two hours old, high score: 0.8 + 0.5
	idx.Record("AAPL", recAt("old-strong", now.Add(-2*time.Hour), 0.5))

	recent := idx.Recent("AAPL", 10)
	require.Len(t, recent, 2)
	assert.Equal(t, "old-strong", recent[0].SourceMessageID)
	assert.Equal(t, "new-weak", recent[1].SourceMessageID)
}

func TestIndexRecentSkipsStale(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	idx.Record("AAPL", recAt("fresh", now.Add(-time.Hour), 0.8))
	idx.Record("AAPL", recAt("stale", now.Add(-8*24*time.Hour), 0.9))

	recent := idx.Recent("AAPL", 10)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].SourceMessageID)
}

func TestIndexFreshness(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	idx.Record("AAPL", recAt("m1", now.Add(-time.Hour), 0.8))
	idx.Record("TSLA", recAt("m2", now.Add(-8*24*time.Hour), 0.8))

	assert.True(t, idx.IsFresh("AAPL"))
	assert.False(t, idx.IsFresh("TSLA"))
	assert.False(t, idx.IsFresh("NVDA"))
	assert.Equal(t, []string{"AAPL"}, idx.AllFreshTickers())
}

func TestIndexPrune(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	idx.Record("AAPL", recAt("m1", now.Add(-time.Hour), 0.8))
	idx.Record("TSLA", recAt("m2", now.Add(-8*24*time.Hour), 0.8))
	idx.Record("TSLA", recAt("m3", now.Add(-9*24*time.Hour), 0.8))

	removed := idx.Prune()

	assert.Equal(t, 2, removed)
	assert.True(t, idx.IsFresh("AAPL"))
	_, ok := idx.Latest("TSLA")
	assert.False(t, ok)
	assert.Empty(t, idx.Recent("TSLA", 10))
}

func TestIndexLoadFromBulkReplaces(t *testing.T) {
	idx := newTestIndex()
	now := time.Now()

	idx.Record("AAPL", recAt("live", now, 0.8))

	idx.LoadFromBulk(map[string]*entity.AnalysisRecord{
		"TSLA": recAt("bulk-1", now.Add(-time.Hour), 0.7),
		"NVDA": recAt("bulk-2", now.Add(-2*time.Hour), 0.6),
	})

	_, ok := idx.Latest("AAPL")
	assert.False(t, ok)
	assert.Equal(t, []string{"NVDA", "TSLA"}, idx.AllFreshTickers())
}
