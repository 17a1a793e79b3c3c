package poller

import (
	"context"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/repository"
	"tradersmind-analyzer/internal/analyzer/service"
	"tradersmind-analyzer/pkg/logger"
)

// Poller drives the live path: it polls the configured channels and feeds new
// messages through the analyzer one at a time, oldest first. Processing is
// single-threaded by design; each message runs extract→score→index to
// completion before the next is considered.
type Poller struct {
	cfg         *config.Config
	historyRepo repository.MessageHistoryRepository
	analyzer    service.AnalyzerService
	log         *logger.Logger

	lastSeenAt map[string]time.Time
}

// NewPoller creates a new Poller.
func NewPoller(cfg *config.Config, historyRepo repository.MessageHistoryRepository, analyzer service.AnalyzerService, log *logger.Logger) *Poller {
	return &Poller{
		cfg:         cfg,
		historyRepo: historyRepo,
		analyzer:    analyzer,
		log:         log,
		lastSeenAt:  make(map[string]time.Time),
	}
}

// Start runs the poll loop until ctx is cancelled. Messages posted before
// Start are left to the backlog reconciliation.
func (p *Poller) Start(ctx context.Context) {
	start := time.Now()
	for _, channelID := range p.cfg.Analyzer.Channels {
		p.lastSeenAt[channelID] = start
	}

	ticker := time.NewTicker(p.cfg.Analyzer.PollInterval)
	defer ticker.Stop()

	p.log.Info("Poller started", logger.IntField("channels", len(p.cfg.Analyzer.Channels)))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("Poller stopping")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	for _, channelID := range p.cfg.Analyzer.Channels {
		if ctx.Err() != nil {
			return
		}
		p.pollChannel(ctx, channelID)
	}
}

// pollChannel fetches the channel's recent messages and processes the unseen
// ones oldest-first. A fetch failure is logged and skipped; the next tick
// retries naturally.
func (p *Poller) pollChannel(ctx context.Context, channelID string) {
	messages, err := p.historyRepo.FetchRecent(ctx, channelID, p.cfg.Analyzer.PollBatchSize)
	if err != nil {
		p.log.Warn("Poll fetch failed", logger.StringField("channel_id", channelID), logger.ErrorField(err))
		return
	}

	watermark := p.lastSeenAt[channelID]
	// transport delivers most-recent-first; walk backwards for oldest-first
	for i := len(messages) - 1; i >= 0; i-- {
		msg := &messages[i]
		if !msg.CreatedAt.After(watermark) {
			continue
		}
		if _, err := p.analyzer.ProcessMessage(ctx, msg); err != nil {
			p.log.Error("Failed to process message", logger.StringField("message_id", msg.ID), logger.ErrorField(err))
		}
		if msg.CreatedAt.After(p.lastSeenAt[channelID]) {
			p.lastSeenAt[channelID] = msg.CreatedAt
		}
	}
}
