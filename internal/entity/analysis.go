package entity

import "time"

// CandidatePriority orders extracted candidates. Lower values sort first.
type CandidatePriority int

const (
	PriorityTopLong CandidatePriority = iota
	PriorityTopShort
	PriorityRegular
)

// String returns the priority name.
func (p CandidatePriority) String() string {
	switch p {
	case PriorityTopLong:
		return "top_long"
	case PriorityTopShort:
		return "top_short"
	default:
		return "regular"
	}
}

// Candidate is a ticker extracted from a message with its confidence score.
type Candidate struct {
	Ticker       string            `json:"ticker"`
	Confidence   float64           `json:"confidence"`
	SourceOffset int               `json:"source_offset"`
	Priority     CandidatePriority `json:"priority"`
}

// AnalysisRecord is an indexed analysis message. Records are immutable once
// created; they are removed only by pruning or bulk reinitialization.
type AnalysisRecord struct {
	SourceMessageID string    `json:"source_message_id"`
	SourceChannelID string    `json:"source_channel_id"`
	AuthorID        string    `json:"author_id"`
	RawText         string    `json:"raw_text"`
	Tickers         []string  `json:"tickers"`
	Timestamp       time.Time `json:"timestamp"`
	RelevanceScore  float64   `json:"relevance_score"`
	CanonicalURL    string    `json:"canonical_url"`
	ChartURLs       []string  `json:"chart_urls"`
	AttachmentURLs  []string  `json:"attachment_urls"`
	HasCharts       bool      `json:"has_charts"`
}

// Age returns how old the record is relative to now.
func (r *AnalysisRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}
