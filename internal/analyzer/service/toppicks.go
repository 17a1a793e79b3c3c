package service

import (
	"strings"
	"unicode"

	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/internal/entity"
)

// TopPicksParser extracts structured long/short ticker lists from a delimited
// top-picks section. The parser never truncates: any display limit belongs to
// the presentation layer.
type TopPicksParser interface {
	Parse(text string) []entity.Candidate
}

type topPicksParser struct {
	lex *lexicon.Lexicon
}

// NewTopPicksParser creates a new TopPicksParser.
func NewTopPicksParser(lex *lexicon.Lexicon) TopPicksParser {
	return &topPicksParser{lex: lex}
}

// Parse locates the top-picks marker line and reads the long and short lists
// that follow it. Returns nil when no section is present.
func (p *topPicksParser) Parse(text string) []entity.Candidate {
	lines := strings.Split(text, "\n")

	marker := -1
	for i, line := range lines {
		if p.lex.IsTopPicksMarker(line) {
			marker = i
			break
		}
	}
	if marker == -1 {
		return nil
	}

	var candidates []entity.Candidate
	longSeen, shortSeen := false, false
	for _, line := range lines[marker+1:] {
		switch {
		case !shortSeen && (strings.Contains(line, "📉") || p.lex.IsShortLabel(line)):
			shortSeen = true
			candidates = append(candidates, p.parseList(line, entity.PriorityTopShort)...)
		case !longSeen && (strings.Contains(line, "📈") || p.lex.IsLongLabel(line)):
			longSeen = true
			candidates = append(candidates, p.parseList(line, entity.PriorityTopLong)...)
		}
		if longSeen && shortSeen {
			break
		}
	}
	return candidates
}

// parseList validates the separator-delimited tokens after the line's label.
// Single letters are recovered when at least one other valid token shares the
// list.
func (p *topPicksParser) parseList(line string, priority entity.CandidatePriority) []entity.Candidate {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return nil
	}

	tokens := strings.FieldsFunc(parts[1], listSeparator)

	var valid []string
	var pending []string
	seen := make(map[string]struct{})
	for _, raw := range tokens {
		token, ok := normalizeListToken(raw)
		if !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		allowlisted := p.lex.Allowlisted(token)
		if p.lex.Disallowed(token) && !allowlisted {
			continue
		}
		seen[token] = struct{}{}
		if len(token) == 1 && !allowlisted && !p.lex.SingleLetterTicker(token) {
			pending = append(pending, token)
			continue
		}
		valid = append(valid, token)
	}

	// looser single-letter rule: one other valid token in the list is enough
	if len(valid) >= 1 {
		valid = append(valid, pending...)
	}

	candidates := make([]entity.Candidate, 0, len(valid))
	for _, token := range valid {
		candidates = append(candidates, entity.Candidate{
			Ticker:       token,
			Confidence:   1.0,
			SourceOffset: 0,
			Priority:     priority,
		})
	}
	return candidates
}

func listSeparator(r rune) bool {
	switch r {
	case ',', '/', '、', '，', '／', '|', '｜':
		return true
	}
	return unicode.IsSpace(r)
}

// normalizeListToken strips an optional $/# prefix and upper-cases the token.
// Only pure letter runs of 1-5 chars survive.
func normalizeListToken(raw string) (string, bool) {
	token := strings.TrimPrefix(strings.TrimPrefix(raw, "$"), "#")
	if n := len(token); n == 0 || n > 5 {
		return "", false
	}
	for _, r := range token {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return "", false
		}
	}
	return strings.ToUpper(token), true
}
