package service

import (
	"context"
	"errors"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"
)

var errStubFetch = errors.New("stub fetch failure")

// stubHistoryRepo serves canned channel histories, most-recent-first.
type stubHistoryRepo struct {
	recent  map[string][]entity.Message
	history map[string][]entity.Message
	failing map[string]bool
	fetches int
}

func newStubHistoryRepo() *stubHistoryRepo {
	return &stubHistoryRepo{
		recent:  make(map[string][]entity.Message),
		history: make(map[string][]entity.Message),
		failing: make(map[string]bool),
	}
}

func (s *stubHistoryRepo) FetchRecent(_ context.Context, channelID string, limit int) ([]entity.Message, error) {
	s.fetches++
	if s.failing[channelID] {
		return nil, errStubFetch
	}
	msgs := s.recent[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (s *stubHistoryRepo) FetchBefore(_ context.Context, channelID, beforeID string, limit int) ([]entity.Message, error) {
	s.fetches++
	if s.failing[channelID] {
		return nil, errStubFetch
	}
	msgs := s.history[channelID]
	start := 0
	if beforeID != "" {
		for i, m := range msgs {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(msgs) {
		return nil, nil
	}
	end := start + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[start:end], nil
}

// stubLinks returns fixed links for every message.
type stubLinks struct {
	links entity.MessageLinks
}

func (s *stubLinks) Extract(_ context.Context, _ *entity.Message) entity.MessageLinks {
	return s.links
}

func testConfig() *config.Config {
	return config.Default()
}

func testLexicon() *lexicon.Lexicon {
	return lexicon.Default()
}

func newTestExtractor(cfg *config.Config, repo *stubHistoryRepo) SymbolExtractor {
	if cfg == nil {
		cfg = testConfig()
	}
	if repo == nil {
		return NewSymbolExtractor(cfg, testLexicon(), nil, logger.NewNop())
	}
	return NewSymbolExtractor(cfg, testLexicon(), repo, logger.NewNop())
}

func msgAt(id, channelID, text string, at time.Time) entity.Message {
	return entity.Message{
		ID:        id,
		ChannelID: channelID,
		AuthorID:  "author-1",
		Text:      text,
		CreatedAt: at,
		GuildID:   "guild-1",
	}
}
