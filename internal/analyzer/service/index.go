package service

import (
	"sort"
	"sync"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"
)

// AnalysisIndex maintains the per-ticker latest analysis pointer and a bounded
// recent-history list. All mutations share one lock so the periodic prune
// sweep can interleave with live Record calls without observing a half-written
// record.
type AnalysisIndex interface {
	// Record appends rec to the ticker's history and moves the latest pointer
	// only when rec's timestamp is strictly newer. Ties keep the first-seen
	// record. This rule is purely chronological; relevance gating has already
	// happened before the call.
	Record(ticker string, rec *entity.AnalysisRecord)
	Latest(ticker string) (*entity.AnalysisRecord, bool)
	// Recent returns up to n records inside the freshness window, ranked by
	// time decay plus relevance score.
	Recent(ticker string, n int) []*entity.AnalysisRecord
	IsFresh(ticker string) bool
	AllFreshTickers() []string
	// LoadFromBulk clears both tables and inserts every record in map
	// iteration order using the latest-pointer rule. Callers must pre-sort
	// chronologically or accept last-seen-wins. Not safe to interleave with
	// live Record calls; bulk load runs once before live traffic.
	LoadFromBulk(records map[string]*entity.AnalysisRecord)
	// Prune removes entries strictly older than the freshness window and
	// returns how many records were dropped.
	Prune() int
}

type analysisIndex struct {
	mu      sync.Mutex
	latest  map[string]*entity.AnalysisRecord
	history map[string][]*entity.AnalysisRecord

	freshnessWindow time.Duration
	historyCap      int
	log             *logger.Logger
}

// NewAnalysisIndex creates an empty AnalysisIndex.
func NewAnalysisIndex(cfg *config.Config, log *logger.Logger) AnalysisIndex {
	return &analysisIndex{
		latest:          make(map[string]*entity.AnalysisRecord),
		history:         make(map[string][]*entity.AnalysisRecord),
		freshnessWindow: cfg.Analyzer.FreshnessWindow,
		historyCap:      cfg.Analyzer.HistoryCap,
		log:             log,
	}
}

func (idx *analysisIndex) Record(ticker string, rec *entity.AnalysisRecord) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(ticker, rec)
}

func (idx *analysisIndex) insertLocked(ticker string, rec *entity.AnalysisRecord) {
	hist := append(idx.history[ticker], rec)
	sort.SliceStable(hist, func(i, j int) bool {
		return hist[i].Timestamp.After(hist[j].Timestamp)
	})
	if len(hist) > idx.historyCap {
		hist = hist[:idx.historyCap]
	}
	idx.history[ticker] = hist

	cur, ok := idx.latest[ticker]
	if !ok || rec.Timestamp.After(cur.Timestamp) {
		idx.latest[ticker] = rec
	}
}

func (idx *analysisIndex) Latest(ticker string) (*entity.AnalysisRecord, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rec, ok := idx.latest[ticker]
	return rec, ok
}

func (idx *analysisIndex) Recent(ticker string, n int) []*entity.AnalysisRecord {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	var fresh []*entity.AnalysisRecord
	for _, rec := range idx.history[ticker] {
		if rec.Age(now) <= idx.freshnessWindow {
			fresh = append(fresh, rec)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		ri := timeDecay(fresh[i].Age(now)) + fresh[i].RelevanceScore
		rj := timeDecay(fresh[j].Age(now)) + fresh[j].RelevanceScore
		return ri > rj
	})

	if len(fresh) > n {
		fresh = fresh[:n]
	}
	return fresh
}

func (idx *analysisIndex) IsFresh(ticker string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	rec, ok := idx.latest[ticker]
	return ok && rec.Age(time.Now()) <= idx.freshnessWindow
}

func (idx *analysisIndex) AllFreshTickers() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	tickers := make([]string, 0, len(idx.latest))
	for ticker, rec := range idx.latest {
		if rec.Age(now) <= idx.freshnessWindow {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

func (idx *analysisIndex) LoadFromBulk(records map[string]*entity.AnalysisRecord) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.latest = make(map[string]*entity.AnalysisRecord, len(records))
	idx.history = make(map[string][]*entity.AnalysisRecord, len(records))
	for ticker, rec := range records {
		idx.insertLocked(ticker, rec)
	}
	idx.log.Info("Index loaded from bulk", logger.IntField("tickers", len(records)))
}

func (idx *analysisIndex) Prune() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	removed := 0
	for ticker, hist := range idx.history {
		kept := hist[:0]
		for _, rec := range hist {
			if rec.Age(now) <= idx.freshnessWindow {
				kept = append(kept, rec)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(idx.history, ticker)
		} else {
			idx.history[ticker] = kept
		}
	}
	for ticker, rec := range idx.latest {
		if rec.Age(now) > idx.freshnessWindow {
			delete(idx.latest, ticker)
		}
	}
	return removed
}

// timeDecay weights a record's age for Recent ranking.
func timeDecay(age time.Duration) float64 {
	switch {
	case age <= time.Hour:
		return 1.0
	case age <= 6*time.Hour:
		return 0.8
	case age <= 24*time.Hour:
		return 0.6
	case age <= 72*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}
