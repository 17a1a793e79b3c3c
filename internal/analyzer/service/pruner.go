package service

import (
	"fmt"

	"tradersmind-analyzer/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Pruner runs the periodic freshness sweep over the analysis index.
type Pruner struct {
	index    AnalysisIndex
	schedule string
	log      *logger.Logger
	cron     *cron.Cron
}

// NewPruner creates a Pruner with a cron schedule spec (e.g. "@hourly").
func NewPruner(index AnalysisIndex, schedule string, log *logger.Logger) *Pruner {
	return &Pruner{
		index:    index,
		schedule: schedule,
		log:      log,
		cron:     cron.New(),
	}
}

// Start registers and starts the sweep.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc(p.schedule, func() {
		removed := p.index.Prune()
		p.log.Info("Freshness sweep completed", logger.IntField("removed", removed))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule freshness sweep: %w", err)
	}
	p.cron.Start()
	return nil
}

// Stop stops the sweep; a sweep already running completes first.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}
