package service

import (
	"context"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/internal/analyzer/repository"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/common"
	"tradersmind-analyzer/pkg/logger"
)

// Reconciler performs the bulk backlog pass: it pages backward through channel
// history to a cutoff date and merges per ticker with a quality-first rule.
// Unlike the live index, a merely newer record does not win here; backlog
// delivery order is unreliable and a late low-quality list must not clobber
// earlier substantive analysis.
type Reconciler interface {
	Reconcile(ctx context.Context, channels []string, cutoff time.Time) (map[string]*entity.AnalysisRecord, error)
}

type reconciler struct {
	cfg         *config.Config
	lex         *lexicon.Lexicon
	extractor   SymbolExtractor
	parser      TopPicksParser
	scorer      RelevanceScorer
	historyRepo repository.MessageHistoryRepository
	links       repository.LinkExtractor
	log         *logger.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	cfg *config.Config,
	lex *lexicon.Lexicon,
	extractor SymbolExtractor,
	parser TopPicksParser,
	scorer RelevanceScorer,
	historyRepo repository.MessageHistoryRepository,
	links repository.LinkExtractor,
	log *logger.Logger,
) Reconciler {
	return &reconciler{
		cfg:         cfg,
		lex:         lex,
		extractor:   extractor,
		parser:      parser,
		scorer:      scorer,
		historyRepo: historyRepo,
		links:       links,
		log:         log,
	}
}

// Reconcile scans every channel down to the cutoff. A failing channel is
// logged and skipped. The pass is abortable between channels: a channel's
// results are merged only after its scan completed, so cancellation returns
// whatever whole channels finished so far.
func (r *reconciler) Reconcile(ctx context.Context, channels []string, cutoff time.Time) (map[string]*entity.AnalysisRecord, error) {
	merged := make(map[string]*entity.AnalysisRecord)

	for _, channelID := range channels {
		if err := ctx.Err(); err != nil {
			r.log.Info("Reconciliation aborted", logger.StringField("channel_id", channelID), logger.ErrorField(err))
			return merged, err
		}

		channelRecords, err := r.scanChannel(ctx, channelID, cutoff)
		if err != nil {
			r.log.Error("Channel scan failed, skipping", logger.StringField("channel_id", channelID), logger.ErrorField(err))
			continue
		}
		for ticker, rec := range channelRecords {
			merged[ticker] = pickQualityFirst(merged[ticker], rec)
		}
		r.log.Info("Channel reconciled", logger.StringField("channel_id", channelID), logger.IntField("tickers", len(channelRecords)))
	}
	return merged, nil
}

// scanChannel pages backward (transport delivers most-recent-first) until the
// cutoff or the history is exhausted.
func (r *reconciler) scanChannel(ctx context.Context, channelID string, cutoff time.Time) (map[string]*entity.AnalysisRecord, error) {
	records := make(map[string]*entity.AnalysisRecord)
	pageSize := r.cfg.Analyzer.BacklogPageSize

	beforeID := ""
	for {
		messages, err := r.historyRepo.FetchBefore(ctx, channelID, beforeID, pageSize)
		if err != nil {
			return nil, err
		}
		if len(messages) == 0 {
			return records, nil
		}

		for i := range messages {
			msg := &messages[i]
			if msg.CreatedAt.Before(cutoff) {
				return records, nil
			}
			r.mergeMessage(ctx, records, msg)
		}

		beforeID = messages[len(messages)-1].ID
		if len(messages) < pageSize {
			return records, nil
		}
	}
}

func (r *reconciler) mergeMessage(ctx context.Context, records map[string]*entity.AnalysisRecord, msg *entity.Message) {
	if msg.IsBot || msg.Text == "" {
		return
	}

	picks := r.parser.Parse(msg.Text)
	candidates := append(picks, r.extractor.Extract(ctx, msg.Text, ExtractOptions{ListContext: len(picks) > 0})...)
	if len(candidates) == 0 {
		return
	}

	links := r.links.Extract(ctx, msg)
	rec := &entity.AnalysisRecord{
		SourceMessageID: msg.ID,
		SourceChannelID: msg.ChannelID,
		AuthorID:        msg.AuthorID,
		RawText:         msg.Text,
		Tickers:         tickerSet(candidates),
		Timestamp:       msg.CreatedAt,
		RelevanceScore:  r.qualityScore(msg.Text, links),
		CanonicalURL:    common.CanonicalMessageURL(msg.GuildID, msg.ChannelID, msg.ID),
		ChartURLs:       links.ChartURLs,
		AttachmentURLs:  links.AttachmentURLs,
		HasCharts:       links.HasCharts,
	}

	for _, ticker := range rec.Tickers {
		records[ticker] = pickQualityFirst(records[ticker], rec)
	}
}

// qualityScore rates a backlog message from length, chart and attachment
// presence and strong-keyword hits. List-shaped messages bottom out at 0.1.
func (r *reconciler) qualityScore(text string, links entity.MessageLinks) float64 {
	if r.scorer.IsListPattern(text) {
		return 0.1
	}

	score := 0.2
	switch chars := len([]rune(text)); {
	case chars > 400:
		score += 0.3
	case chars > 200:
		score += 0.2
	case chars > 100:
		score += 0.1
	}
	if links.HasCharts || len(links.AttachmentURLs) > 0 {
		score += 0.3
	}
	if hits := float64(r.lex.StrongKeywordHits(text)); hits > 0 {
		bonus := 0.2 * hits
		if bonus > 0.4 {
			bonus = 0.4
		}
		score += bonus
	}
	return clamp01(score)
}

// pickQualityFirst resolves a conflict between the retained record and a
// candidate: a score gap over 0.1 decides on quality; within the band the
// later timestamp wins.
func pickQualityFirst(existing, candidate *entity.AnalysisRecord) *entity.AnalysisRecord {
	if existing == nil {
		return candidate
	}
	diff := candidate.RelevanceScore - existing.RelevanceScore
	switch {
	case diff > 0.1:
		return candidate
	case diff < -0.1:
		return existing
	case candidate.Timestamp.After(existing.Timestamp):
		return candidate
	default:
		return existing
	}
}

func tickerSet(candidates []entity.Candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	tickers := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Ticker]; ok {
			continue
		}
		seen[c.Ticker] = struct{}{}
		tickers = append(tickers, c.Ticker)
	}
	return tickers
}
