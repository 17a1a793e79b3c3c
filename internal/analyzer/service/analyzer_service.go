package service

import (
	"context"
	"strings"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/repository"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/common"
	"tradersmind-analyzer/pkg/logger"
	"tradersmind-analyzer/pkg/telegram"
)

// AnalyzerService runs the live extract→score→index pipeline. Each message is
// processed to completion before the next one; the pipeline itself holds no
// locks beyond the index's own mutation path.
type AnalyzerService interface {
	// ProcessMessage classifies one message. It returns the indexed record,
	// or nil when the message was skipped or rejected by the relevance gate.
	// Rejected messages contribute zero tickers.
	ProcessMessage(ctx context.Context, msg *entity.Message) (*entity.AnalysisRecord, error)
}

type analyzerService struct {
	cfg       *config.Config
	extractor SymbolExtractor
	parser    TopPicksParser
	scorer    RelevanceScorer
	index     AnalysisIndex
	links     repository.LinkExtractor
	notifier  telegram.Notifier
	log       *logger.Logger
}

// NewAnalyzerService creates a new AnalyzerService. notifier may be nil.
func NewAnalyzerService(
	cfg *config.Config,
	extractor SymbolExtractor,
	parser TopPicksParser,
	scorer RelevanceScorer,
	index AnalysisIndex,
	links repository.LinkExtractor,
	notifier telegram.Notifier,
	log *logger.Logger,
) AnalyzerService {
	return &analyzerService{
		cfg:       cfg,
		extractor: extractor,
		parser:    parser,
		scorer:    scorer,
		index:     index,
		links:     links,
		notifier:  notifier,
		log:       log,
	}
}

func (s *analyzerService) ProcessMessage(ctx context.Context, msg *entity.Message) (*entity.AnalysisRecord, error) {
	if msg == nil || msg.IsBot || strings.TrimSpace(msg.Text) == "" {
		return nil, nil
	}

	picks := s.parser.Parse(msg.Text)
	freeform := s.extractor.Extract(ctx, msg.Text, ExtractOptions{
		ListContext: len(picks) > 0,
		Corroborate: true,
	})
	candidates := mergeCandidates(picks, freeform)
	if len(candidates) == 0 {
		return nil, nil
	}

	score := s.scorer.Score(msg.Text, len(candidates), msg.IsReply)
	if score < s.cfg.Analyzer.GateThreshold {
		s.log.Debug("Message rejected by relevance gate",
			logger.StringField("message_id", msg.ID),
			logger.Float64Field("score", score),
			logger.IntField("candidates", len(candidates)))
		return nil, nil
	}

	links := s.links.Extract(ctx, msg)
	rec := &entity.AnalysisRecord{
		SourceMessageID: msg.ID,
		SourceChannelID: msg.ChannelID,
		AuthorID:        msg.AuthorID,
		RawText:         msg.Text,
		Tickers:         tickerSet(candidates),
		Timestamp:       msg.CreatedAt,
		RelevanceScore:  score,
		CanonicalURL:    common.CanonicalMessageURL(msg.GuildID, msg.ChannelID, msg.ID),
		ChartURLs:       links.ChartURLs,
		AttachmentURLs:  links.AttachmentURLs,
		HasCharts:       links.HasCharts,
	}

	for _, ticker := range rec.Tickers {
		s.index.Record(ticker, rec)
	}
	s.log.Info("Message indexed",
		logger.StringField("message_id", msg.ID),
		logger.Float64Field("score", score),
		logger.Field("tickers", rec.Tickers))

	s.notify(rec)
	return rec, nil
}

// notify is best-effort; a delivery failure never affects indexing.
func (s *analyzerService) notify(rec *entity.AnalysisRecord) {
	if s.notifier == nil || !s.cfg.Analyzer.NotifyOnIndex {
		return
	}
	if err := s.notifier.SendMessage(telegram.FormatAnalysisAlert(rec)); err != nil {
		s.log.Warn("Failed to send analysis alert", logger.ErrorField(err))
	}
}

// mergeCandidates deduplicates across the structured and freeform paths,
// keeping max confidence with ties broken by priority order.
func mergeCandidates(groups ...[]entity.Candidate) []entity.Candidate {
	var out []entity.Candidate
	pos := make(map[string]int)
	for _, group := range groups {
		for _, c := range group {
			i, ok := pos[c.Ticker]
			if !ok {
				pos[c.Ticker] = len(out)
				out = append(out, c)
				continue
			}
			cur := out[i]
			if c.Confidence > cur.Confidence || (c.Confidence == cur.Confidence && c.Priority < cur.Priority) {
				out[i] = c
			}
		}
	}
	return out
}
