package service

import (
	"regexp"

	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/pkg/utils"
)

var (
	// listChainRx matches runs of ticker-like tokens joined by list separators.
	listChainRx = regexp.MustCompile(`\b[A-Z]{1,5}(?:[ \t]*[/,|][ \t]*\$?[A-Z]{1,5})+\b`)
	// listSepRx counts the separators inside a matched chain.
	listSepRx = regexp.MustCompile(`[/,|]`)
	// tickerLikeRx matches standalone ticker-like tokens.
	tickerLikeRx = regexp.MustCompile(`\b\$?[A-Z]{1,5}\b`)
)

// RelevanceScorer rates how likely a message is substantive analysis rather
// than a casual mention or a bare ticker list. Scores are in [0,1]; only
// messages clearing the gate threshold get indexed.
type RelevanceScorer interface {
	Score(text string, tickerCount int, isReply bool) float64
	IsListPattern(text string) bool
}

type relevanceScorer struct {
	lex *lexicon.Lexicon
}

// NewRelevanceScorer creates a new RelevanceScorer.
func NewRelevanceScorer(lex *lexicon.Lexicon) RelevanceScorer {
	return &relevanceScorer{lex: lex}
}

// IsListPattern reports whether text is shaped like a ticker list: either
// three or more separator-joined ticker pairs covering >30% of the text, or
// six or more ticker-like tokens with fewer than 1.5 non-ticker words each.
func (s *relevanceScorer) IsListPattern(text string) bool {
	if text == "" {
		return false
	}

	pairs := 0
	matchedLen := 0
	for _, chain := range listChainRx.FindAllString(text, -1) {
		pairs += len(listSepRx.FindAllString(chain, -1))
		matchedLen += len(chain)
	}
	if pairs >= 3 && float64(matchedLen) > 0.3*float64(len(text)) {
		return true
	}

	tickerLike := len(tickerLikeRx.FindAllString(text, -1))
	if tickerLike >= 6 {
		nonTicker := utils.WordCount(text) - tickerLike
		if nonTicker < 0 {
			nonTicker = 0
		}
		if float64(nonTicker)/float64(tickerLike) < 1.5 {
			return true
		}
	}
	return false
}

// Score computes the relevance score for text carrying tickerCount extracted
// tickers. isReply is the caller-supplied reply signal.
func (s *relevanceScorer) Score(text string, tickerCount int, isReply bool) float64 {
	if s.IsListPattern(text) {
		return 0.1
	}

	score := 0.3
	score -= densityPenalty(text, tickerCount)

	strong, medium, weak := s.lex.RelevanceHits(text)
	score += 0.3*float64(strong) + 0.2*float64(medium) + 0.1*float64(weak)
	score += s.lex.RelevanceHebrewBonus(text)

	chars := len([]rune(text))
	if chars > 200 {
		score += 0.1
	}
	if chars > 400 {
		score += 0.1
	}

	score += shapeBonus(tickerCount)

	if isReply {
		score += 0.2
	}

	return clamp01(score)
}

// densityPenalty punishes ticker-dense text, scaling from zero at five or
// more words per ticker up to 0.4 below two.
func densityPenalty(text string, tickerCount int) float64 {
	if tickerCount <= 3 {
		return 0
	}
	wordsPerTicker := float64(utils.WordCount(text)) / float64(tickerCount)
	switch {
	case wordsPerTicker >= 5:
		return 0
	case wordsPerTicker <= 2:
		return 0.4
	default:
		return 0.4 * (5 - wordsPerTicker) / 3
	}
}

func shapeBonus(tickerCount int) float64 {
	switch {
	case tickerCount == 1:
		return 0.2
	case tickerCount >= 2 && tickerCount <= 3:
		return 0.1
	case tickerCount > 5:
		return -0.05 * float64(tickerCount-5)
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
