package entity

import "time"

// Message represents a single chat message delivered by the message source.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsBot     bool      `json:"is_bot"`
	IsReply   bool      `json:"is_reply"`
	GuildID   string    `json:"guild_id"`
}

// MessageLinks holds the output of the external URL/attachment extractor.
// The fields are consumed as opaque values and never parsed here.
type MessageLinks struct {
	ChartURLs      []string `json:"chart_urls"`
	AttachmentURLs []string `json:"attachment_urls"`
	HasCharts      bool     `json:"has_charts"`
}
