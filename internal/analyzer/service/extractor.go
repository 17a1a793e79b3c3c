package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/internal/analyzer/repository"
	"tradersmind-analyzer/internal/entity"
	"tradersmind-analyzer/pkg/logger"
	"tradersmind-analyzer/pkg/utils"
)

// tickerRx matches maximal runs of uppercase letters, optionally prefixed.
var tickerRx = regexp.MustCompile(`[$#]?[A-Z]+`)

// ExtractOptions tunes a single extraction call.
type ExtractOptions struct {
	// ListContext marks text known to sit in a top-picks or list context,
	// which loosens single-letter recovery.
	ListContext bool
	// Corroborate enables the network-dependent single-letter corroboration
	// pass against the configured channels.
	Corroborate bool
}

// SymbolExtractor extracts a deduplicated, ordered candidate list from text.
type SymbolExtractor interface {
	Extract(ctx context.Context, text string, opts ExtractOptions) []entity.Candidate
}

type symbolExtractor struct {
	cfg         *config.Config
	lex         *lexicon.Lexicon
	historyRepo repository.MessageHistoryRepository
	log         *logger.Logger
}

// NewSymbolExtractor creates a new SymbolExtractor. historyRepo may be nil,
// which disables the corroboration pass.
func NewSymbolExtractor(cfg *config.Config, lex *lexicon.Lexicon, historyRepo repository.MessageHistoryRepository, log *logger.Logger) SymbolExtractor {
	return &symbolExtractor{
		cfg:         cfg,
		lex:         lex,
		historyRepo: historyRepo,
		log:         log,
	}
}

// draft is a candidate in progress. Scoring passes never mutate a draft in
// place; each returns a new value so every pass stays independently testable.
type draft struct {
	token      string
	offset     int
	end        int
	prefix     rune
	confidence float64
}

type scoreFunc func(d draft) draft

// Extract runs the three-pass extraction over text.
func (e *symbolExtractor) Extract(ctx context.Context, text string, opts ExtractOptions) []entity.Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	accepted, deferred := e.scanPass(text)
	accepted, deferred = e.recoveryPass(text, accepted, deferred, opts.ListContext)
	if opts.Corroborate && e.historyRepo != nil && len(e.cfg.Analyzer.CorroborationChannels) > 0 {
		accepted = append(accepted, e.corroborationPass(ctx, deferred)...)
	}

	return e.finalize(accepted)
}

// scanPass matches ticker-shaped tokens, applies the gazetteer and allowlist,
// and scores the survivors. Single letters outside the hardcoded set are
// returned separately for later recovery.
func (e *symbolExtractor) scanPass(text string) (accepted, deferred []draft) {
	englishHit := e.lex.HasEnglishVocab(text)
	hebrewBonus := e.lex.HebrewTierBonus(text)

	steps := []scoreFunc{
		scoreBase,
		scorePrefix,
		scoreVocab(englishHit),
		scoreHebrew(hebrewBonus),
		scoreLength,
		scoreSurrounding(text),
		scoreAllowlist(e.lex),
	}

	for _, loc := range tickerRx.FindAllStringIndex(text, -1) {
		d, ok := e.newDraft(text, loc[0], loc[1])
		if !ok {
			continue
		}

		allowlisted := e.lex.Allowlisted(d.token)
		if e.lex.Disallowed(d.token) && !allowlisted {
			continue
		}

		for _, step := range steps {
			d = step(d)
		}
		d = clampDraft(d)

		if len(d.token) == 1 && !allowlisted && !e.lex.SingleLetterTicker(d.token) {
			deferred = append(deferred, d)
			continue
		}

		if d.confidence >= 0.3 || (allowlisted && d.confidence >= 0.2) {
			accepted = append(accepted, d)
		}
	}
	return accepted, deferred
}

// recoveryPass admits rejected single letters when the surrounding message
// supplies enough trust. Letters that stay rejected are returned for the
// corroboration pass.
func (e *symbolExtractor) recoveryPass(text string, accepted, deferred []draft, listContext bool) ([]draft, []draft) {
	if len(deferred) == 0 {
		return accepted, nil
	}

	contextTrust := len(accepted) >= 2 || listContext

	var remaining []draft
	for _, d := range deferred {
		switch {
		case contextTrust:
			accepted = append(accepted, clampDraft(bonus(d, 0.2)))
		case d.prefix != 0:
			accepted = append(accepted, clampDraft(bonus(d, 0.1)))
		case adjacentToMultiLetter(text, d, accepted):
			accepted = append(accepted, clampDraft(bonus(d, 0.15)))
		default:
			remaining = append(remaining, d)
		}
	}
	return accepted, remaining
}

// corroborationPass consults recent messages in the configured channels for a
// prefixed occurrence of each still-rejected single letter. Best-effort: a
// failing channel is logged and skipped.
func (e *symbolExtractor) corroborationPass(ctx context.Context, deferred []draft) []draft {
	var admitted []draft
	for _, d := range deferred {
		if d.prefix == 0 {
			continue
		}
		if e.tokenSeenRecently(ctx, d.token) {
			admitted = append(admitted, clampDraft(bonus(d, 0.3)))
		}
	}
	return admitted
}

func (e *symbolExtractor) tokenSeenRecently(ctx context.Context, token string) bool {
	for _, channelID := range e.cfg.Analyzer.CorroborationChannels {
		messages, err := e.historyRepo.FetchRecent(ctx, channelID, e.cfg.Analyzer.CorroborationLimit)
		if err != nil {
			e.log.Warn("Corroboration fetch failed, skipping channel", logger.StringField("channel_id", channelID), logger.ErrorField(err))
			continue
		}
		for i := range messages {
			if strings.Contains(messages[i].Text, "$"+token) || strings.Contains(messages[i].Text, "#"+token) {
				return true
			}
		}
	}
	return false
}

// finalize deduplicates keeping max confidence, orders by priority then
// descending confidence, and applies the freeform cap.
func (e *symbolExtractor) finalize(accepted []draft) []entity.Candidate {
	best := make(map[string]entity.Candidate, len(accepted))
	for _, d := range accepted {
		c := entity.Candidate{
			Ticker:       d.token,
			Confidence:   d.confidence,
			SourceOffset: d.offset,
			Priority:     entity.PriorityRegular,
		}
		cur, ok := best[c.Ticker]
		if !ok || c.Confidence > cur.Confidence || (c.Confidence == cur.Confidence && c.Priority < cur.Priority) {
			best[c.Ticker] = c
		}
	}

	out := make([]entity.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].SourceOffset < out[j].SourceOffset
	})

	if max := e.cfg.Analyzer.MaxCandidates; max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// newDraft builds a draft from a raw regexp match. Returns false when the
// letter run is longer than a ticker can be.
func (e *symbolExtractor) newDraft(text string, start, end int) (draft, bool) {
	d := draft{offset: start, end: end}
	token := text[start:end]
	if token[0] == '$' || token[0] == '#' {
		d.prefix = rune(token[0])
		d.offset = start + 1
		token = token[1:]
	}
	if len(token) == 0 || len(token) > 5 {
		return draft{}, false
	}
	d.token = token
	return d, true
}

func scoreBase(d draft) draft {
	d.confidence = 0.5
	return d
}

func scorePrefix(d draft) draft {
	switch d.prefix {
	case '$':
		d.confidence += 0.4
	case '#':
		d.confidence += 0.3
	}
	return d
}

func scoreVocab(hit bool) scoreFunc {
	return func(d draft) draft {
		if hit {
			d.confidence += 0.2
		}
		return d
	}
}

func scoreHebrew(tierBonus float64) scoreFunc {
	return func(d draft) draft {
		d.confidence += tierBonus
		return d
	}
}

func scoreLength(d draft) draft {
	if n := len(d.token); n >= 2 && n <= 4 {
		d.confidence += 0.1
	}
	return d
}

// scoreSurrounding rewards tokens with actual whitespace on both sides; text
// boundaries do not count.
func scoreSurrounding(text string) scoreFunc {
	return func(d draft) draft {
		start := d.offset
		if d.prefix != 0 {
			start--
		}
		if start > 0 && d.end < len(text) {
			before, _ := utf8.DecodeLastRuneInString(text[:start])
			after, _ := utf8.DecodeRuneInString(text[d.end:])
			if unicode.IsSpace(before) && unicode.IsSpace(after) {
				d.confidence += 0.1
			}
		}
		return d
	}
}

func scoreAllowlist(lex *lexicon.Lexicon) scoreFunc {
	return func(d draft) draft {
		if lex.Allowlisted(d.token) {
			d.confidence += 0.4
		}
		return d
	}
}

func bonus(d draft, v float64) draft {
	d.confidence += v
	return d
}

func clampDraft(d draft) draft {
	if d.confidence > 1.0 {
		d.confidence = 1.0
	}
	return d
}

// adjacentToMultiLetter reports whether the single-letter draft touches an
// accepted multi-letter candidate across only whitespace, '/', ',' or emoji.
func adjacentToMultiLetter(text string, d draft, accepted []draft) bool {
	dStart := d.offset
	if d.prefix != 0 {
		dStart--
	}
	for _, a := range accepted {
		if len(a.token) < 2 {
			continue
		}
		aStart := a.offset
		if a.prefix != 0 {
			aStart--
		}
		var gap string
		switch {
		case a.end <= dStart:
			gap = text[a.end:dStart]
		case d.end <= aStart:
			gap = text[d.end:aStart]
		default:
			continue
		}
		if separatorGap(gap) {
			return true
		}
	}
	return false
}

func separatorGap(gap string) bool {
	if gap == "" {
		return false
	}
	for _, r := range gap {
		if unicode.IsSpace(r) || r == '/' || r == ',' || utils.IsEmoji(r) {
			continue
		}
		return false
	}
	return true
}
