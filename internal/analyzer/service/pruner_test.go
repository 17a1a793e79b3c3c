package service

import (
	"sync/atomic"
	"testing"
	"time"

	"tradersmind-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIndex struct {
	AnalysisIndex
	prunes atomic.Int64
}

func (c *countingIndex) Prune() int {
	c.prunes.Add(1)
	return 0
}

func TestPrunerRunsOnSchedule(t *testing.T) {
	idx := &countingIndex{}
	p := NewPruner(idx, "@every 10ms", logger.NewNop())

	require.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return idx.prunes.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestPrunerRejectsBadSchedule(t *testing.T) {
	p := NewPruner(NewAnalysisIndex(testConfig(), logger.NewNop()), "not a schedule", logger.NewNop())

	assert.Error(t, p.Start())
}
