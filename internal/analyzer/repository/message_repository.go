package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/dto"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// MessageHistoryRepository defines the paged history-fetch capability consumed
// by the corroboration pass, the backlog reconciliation and the live poller.
// Implementations deliver messages most-recent-first.
type MessageHistoryRepository interface {
	FetchRecent(ctx context.Context, channelID string, limit int) ([]entity.Message, error)
	FetchBefore(ctx context.Context, channelID, beforeID string, limit int) ([]entity.Message, error)
}

type chatGatewayRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	recentCache    *cache.Cache
}

// NewChatGatewayRepository creates a MessageHistoryRepository backed by the
// chat-gateway REST API. Requests are rate paced; recent-message fetches are
// cached briefly so a burst of corroboration lookups does not hammer the
// gateway.
func NewChatGatewayRepository(cfg *config.Config, log *logger.Logger) MessageHistoryRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gateway.MaxRequestPerMinute)
	return &chatGatewayRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		recentCache:    cache.New(time.Minute, 5*time.Minute),
	}
}

// FetchRecent returns up to limit most-recent messages in the channel.
func (r *chatGatewayRepository) FetchRecent(ctx context.Context, channelID string, limit int) ([]entity.Message, error) {
	cacheKey := fmt.Sprintf("recent:%s:%d", channelID, limit)
	if cached, found := r.recentCache.Get(cacheKey); found {
		return cached.([]entity.Message), nil
	}

	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", r.cfg.Gateway.BaseURL, channelID, limit)
	messages, err := r.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	r.recentCache.Set(cacheKey, messages, cache.DefaultExpiration)
	return messages, nil
}

// FetchBefore returns up to limit messages posted before the given message id.
// An empty beforeID fetches from the most recent message.
func (r *chatGatewayRepository) FetchBefore(ctx context.Context, channelID, beforeID string, limit int) ([]entity.Message, error) {
	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", r.cfg.Gateway.BaseURL, channelID, limit)
	if beforeID != "" {
		url += "&before=" + beforeID
	}
	return r.fetch(ctx, url)
}

func (r *chatGatewayRepository) fetch(ctx context.Context, url string) ([]entity.Message, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", r.cfg.Gateway.AuthToken)
	req.Header.Set("Accept", "application/json")

	r.log.Debug("Fetching channel messages", logger.StringField("url", url))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Error("Received non-OK response from chat gateway", logger.IntField("status_code", resp.StatusCode), logger.StringField("url", url))
		return nil, fmt.Errorf("chat gateway returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload []dto.GatewayMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	messages := make([]entity.Message, 0, len(payload))
	for i := range payload {
		messages = append(messages, payload[i].ToEntity())
	}
	return messages, nil
}
