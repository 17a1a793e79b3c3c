package dto

import (
	"time"

	"tradersmind-analyzer/internal/entity"
)

// GatewayAuthor is the author block of a gateway message.
type GatewayAuthor struct {
	ID  string `json:"id"`
	Bot bool   `json:"bot"`
}

// GatewayMessageRef points at the message a reply refers to.
type GatewayMessageRef struct {
	MessageID string `json:"message_id"`
}

// GatewayMessage is a single message as returned by the chat-gateway REST API.
type GatewayMessage struct {
	ID                string             `json:"id"`
	ChannelID         string             `json:"channel_id"`
	GuildID           string             `json:"guild_id"`
	Content           string             `json:"content"`
	Timestamp         time.Time          `json:"timestamp"`
	Author            GatewayAuthor      `json:"author"`
	ReferencedMessage *GatewayMessageRef `json:"referenced_message,omitempty"`
}

// ToEntity converts the gateway payload into the domain message.
func (m *GatewayMessage) ToEntity() entity.Message {
	return entity.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Text:      m.Content,
		CreatedAt: m.Timestamp,
		IsBot:     m.Author.Bot,
		IsReply:   m.ReferencedMessage != nil,
		GuildID:   m.GuildID,
	}
}
