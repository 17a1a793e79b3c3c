package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(cfg *config.Config, repo *stubHistoryRepo, links *stubLinks) Reconciler {
	if cfg == nil {
		cfg = testConfig()
	}
	if links == nil {
		links = &stubLinks{}
	}
	lex := testLexicon()
	return NewReconciler(
		cfg,
		lex,
		newTestExtractor(cfg, nil),
		NewTopPicksParser(lex),
		NewRelevanceScorer(lex),
		repo,
		links,
		logger.NewNop(),
	)
}

func analysisText() string {
	return "NVDA analysis: the setup keeps improving and the price target moves to 250. " +
		strings.Repeat("The longer view stays constructive through the next few quarters. ", 6)
}

func TestReconcileQualityBeatsArrivalOrder(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)

	analysis := msgAt("deep", "c-analysis", analysisText(), now.Add(-2*time.Hour))
	list := msgAt("list", "c-list", "NVDA / AAPL / TSLA / MSFT", now.Add(-time.Hour))

	for _, channels := range [][]string{
		{"c-analysis", "c-list"},
		{"c-list", "c-analysis"},
	} {
		repo := newStubHistoryRepo()
		repo.history["c-analysis"] = []entity.Message{analysis}
		repo.history["c-list"] = []entity.Message{list}

		merged, err := newTestReconciler(nil, repo, nil).Reconcile(context.Background(), channels, cutoff)

		require.NoError(t, err)
		require.Contains(t, merged, "NVDA")
		assert.Equal(t, "deep", merged["NVDA"].SourceMessageID)
		assert.InDelta(t, 0.9, merged["NVDA"].RelevanceScore, 1e-9)
		assert.Equal(t, 0.1, merged["AAPL"].RelevanceScore)
	}
}

func TestReconcileStopsAtCutoff(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)

	repo := newStubHistoryRepo()
	repo.history["c1"] = []entity.Message{
		msgAt("m1", "c1", "$AAPL breakout above resistance", now.Add(-time.Hour)),
		msgAt("m2", "c1", "$TSLA chart update", now.Add(-40*24*time.Hour)),
		msgAt("m3", "c1", "$NVDA old note", now.Add(-50*24*time.Hour)),
	}

	merged, err := newTestReconciler(nil, repo, nil).Reconcile(context.Background(), []string{"c1"}, cutoff)

	require.NoError(t, err)
	assert.Contains(t, merged, "AAPL")
	assert.NotContains(t, merged, "TSLA")
	assert.NotContains(t, merged, "NVDA")
}

func TestReconcilePagesBackward(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)

	cfg := testConfig()
	cfg.Analyzer.BacklogPageSize = 1

	repo := newStubHistoryRepo()
	repo.history["c1"] = []entity.Message{
		msgAt("m1", "c1", "$AAPL breakout above resistance", now.Add(-time.Hour)),
		msgAt("m2", "c1", "$TSLA chart update", now.Add(-2*time.Hour)),
	}

	merged, err := newTestReconciler(cfg, repo, nil).Reconcile(context.Background(), []string{"c1"}, cutoff)

	require.NoError(t, err)
	assert.Contains(t, merged, "AAPL")
	assert.Contains(t, merged, "TSLA")
	assert.Equal(t, 3, repo.fetches) // two pages plus the empty tail
}

func TestReconcileSkipsFailingChannel(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)

	repo := newStubHistoryRepo()
	repo.failing["c-bad"] = true
	repo.history["c-good"] = []entity.Message{
		msgAt("m1", "c-good", "$AAPL breakout above resistance", now.Add(-time.Hour)),
	}

	merged, err := newTestReconciler(nil, repo, nil).Reconcile(context.Background(), []string{"c-bad", "c-good"}, cutoff)

	require.NoError(t, err)
	assert.Contains(t, merged, "AAPL")
}

func TestReconcileAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := newStubHistoryRepo()
	repo.history["c1"] = []entity.Message{
		msgAt("m1", "c1", "$AAPL breakout above resistance", time.Now()),
	}

	merged, err := newTestReconciler(nil, repo, nil).Reconcile(ctx, []string{"c1"}, time.Time{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, merged)
}

func TestReconcileChartBonus(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)

	repo := newStubHistoryRepo()
	repo.history["c1"] = []entity.Message{
		msgAt("m1", "c1", "NVDA looks interesting here", now.Add(-time.Hour)),
	}
	links := &stubLinks{links: entity.MessageLinks{
		ChartURLs: []string{"https://www.tradingview.com/x/abc/"},
		HasCharts: true,
	}}

	merged, err := newTestReconciler(nil, repo, links).Reconcile(context.Background(), []string{"c1"}, cutoff)

	require.NoError(t, err)
	require.Contains(t, merged, "NVDA")
	assert.InDelta(t, 0.5, merged["NVDA"].RelevanceScore, 1e-9)
	assert.True(t, merged["NVDA"].HasCharts)
}

func TestPickQualityFirst(t *testing.T) {
	now := time.Now()
	early := &entity.AnalysisRecord{SourceMessageID: "early", Timestamp: now.Add(-time.Hour), RelevanceScore: 0.5}
	late := &entity.AnalysisRecord{SourceMessageID: "late", Timestamp: now, RelevanceScore: 0.55}
	weak := &entity.AnalysisRecord{SourceMessageID: "weak", Timestamp: now, RelevanceScore: 0.1}

	assert.Equal(t, "late", pickQualityFirst(nil, late).SourceMessageID)
	// inside the quality band the later timestamp wins
	assert.Equal(t, "late", pickQualityFirst(early, late).SourceMessageID)
	assert.Equal(t, "late", pickQualityFirst(late, early).SourceMessageID)
	// outside the band quality wins regardless of recency
	assert.Equal(t, "early", pickQualityFirst(early, weak).SourceMessageID)
}
