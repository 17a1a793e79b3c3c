package lexicon

import "strings"

// Config holds the token and keyword tables the analyzer is built with.
// The tables are copied at construction; a Lexicon never changes afterwards,
// so tests can inject their own tables without touching shared state.
type Config struct {
	// Disallowed lists ticker-shaped tokens that are common words, chart
	// jargon or service names and must not be treated as tickers.
	Disallowed []string `mapstructure:"disallowed"`
	// Allowlist lists known-valid tickers; it overrides Disallowed.
	Allowlist []string `mapstructure:"allowlist"`
	// SingleLetterTickers are the single letters accepted without context.
	SingleLetterTickers []string `mapstructure:"single_letter_tickers"`

	// EnglishVocabulary are stock-vocabulary keywords that raise extraction
	// confidence when present anywhere in the message.
	EnglishVocabulary []string `mapstructure:"english_vocabulary"`

	// Hebrew extraction keyword tiers.
	HebrewStrong []string `mapstructure:"hebrew_strong"`
	HebrewMedium []string `mapstructure:"hebrew_medium"`
	HebrewWeak   []string `mapstructure:"hebrew_weak"`

	// English relevance keyword tiers.
	RelevanceStrong []string `mapstructure:"relevance_strong"`
	RelevanceMedium []string `mapstructure:"relevance_medium"`
	RelevanceWeak   []string `mapstructure:"relevance_weak"`

	// Hebrew relevance keyword tiers.
	RelevanceHebrewStrong []string `mapstructure:"relevance_hebrew_strong"`
	RelevanceHebrewMedium []string `mapstructure:"relevance_hebrew_medium"`
	RelevanceHebrewWeak   []string `mapstructure:"relevance_hebrew_weak"`

	// Top-picks section markers and line labels (English + Hebrew).
	TopPicksMarkers []string `mapstructure:"top_picks_markers"`
	LongLabels      []string `mapstructure:"long_labels"`
	ShortLabels     []string `mapstructure:"short_labels"`
}

// DefaultConfig returns the curated built-in tables.
func DefaultConfig() Config {
	return Config{
		Disallowed: []string{
			// common words
			"THE", "AND", "FOR", "ARE", "BUT", "NOT", "YOU", "ALL", "CAN",
			"HAS", "HAD", "HIS", "HER", "WAS", "ONE", "OUR", "OUT", "DAY",
			"GET", "HOW", "NEW", "NOW", "SEE", "WAY", "WHO", "ITS", "LET",
			"SAY", "TOO", "USE", "THIS", "THAT", "WITH", "FROM", "JUST",
			"WILL", "WHEN", "WHAT", "GOOD", "VERY", "ALSO", "INTO", "OVER",
			// chart / trading jargon
			"EMA", "SMA", "DMA", "RSI", "MACD", "VWAP", "ATH", "ATL", "ATR",
			"EPS", "ETF", "IPO", "CEO", "CFO", "FED", "GDP", "CPI", "YOY",
			"EOD", "EOW", "HOD", "LOD", "ITM", "OTM", "ATM", "PT", "SL",
			"TP", "TA", "FA", "DD", "AH", "PM", "ER", "IV",
			// community / service names
			"IBD", "WSB", "FOMO", "YOLO", "IMO", "IMHO", "LOL", "OMG",
			"USA", "USD", "EUR", "NYSE",
			// list-style noise
			"BUY", "SELL", "HOLD", "LONG", "SHORT", "CALL", "CALLS", "PUT",
			"PUTS", "STOP", "GAP", "DIP", "MOON", "BULL", "BEAR",
		},
		Allowlist: []string{
			"CAT", "NET", "OPEN", "PATH", "RUN", "SNOW", "ALL", "NOW", "SO",
			"ON", "U", "X",
		},
		SingleLetterTickers: []string{"A", "I"},
		EnglishVocabulary: []string{
			"stock", "stocks", "shares", "ticker", "trade", "trading",
			"earnings", "breakout", "support", "resistance", "target",
			"bullish", "bearish", "chart", "position", "entry", "exit",
			"calls", "puts",
		},
		HebrewStrong: []string{"מניה", "מניות", "ניתוח", "מחיר יעד", "פריצה"},
		HebrewMedium: []string{"גרף", "תמיכה", "התנגדות", "מגמה", "טכני"},
		HebrewWeak:   []string{"קניה", "מכירה", "שוק", "החזקה"},
		RelevanceStrong: []string{
			"analysis", "target", "price target", "bullish", "bearish",
			"recommendation",
		},
		RelevanceMedium: []string{
			"chart", "technical", "support", "resistance", "breakout", "trend",
		},
		RelevanceWeak: []string{"buy", "sell", "hold", "watch", "trade"},
		RelevanceHebrewStrong: []string{"ניתוח", "מחיר יעד", "המלצה"},
		RelevanceHebrewMedium: []string{"גרף", "טכני", "תמיכה", "התנגדות", "פריצה", "מגמה"},
		RelevanceHebrewWeak:   []string{"קניה", "מכירה", "החזק", "מעקב", "עסקה"},
		TopPicksMarkers:       []string{"top picks", "טופ פיקס"},
		LongLabels:            []string{"long", "לונג"},
		ShortLabels:           []string{"short", "שורט"},
	}
}

// Lexicon is the immutable token and keyword store built from a Config.
type Lexicon struct {
	disallowed   map[string]struct{}
	allowlist    map[string]struct{}
	singleLetter map[string]struct{}

	englishVocab []string
	hebrewTiers  [3][]string

	relevanceTiers       [3][]string
	relevanceHebrewTiers [3][]string

	topPicksMarkers []string
	longLabels      []string
	shortLabels     []string
}

// New builds a Lexicon from cfg. Empty table fields fall back to the defaults.
func New(cfg Config) *Lexicon {
	def := DefaultConfig()
	pick := func(v, d []string) []string {
		if len(v) > 0 {
			return v
		}
		return d
	}

	return &Lexicon{
		disallowed:   upperSet(pick(cfg.Disallowed, def.Disallowed)),
		allowlist:    upperSet(pick(cfg.Allowlist, def.Allowlist)),
		singleLetter: upperSet(pick(cfg.SingleLetterTickers, def.SingleLetterTickers)),
		englishVocab: lowered(pick(cfg.EnglishVocabulary, def.EnglishVocabulary)),
		hebrewTiers: [3][]string{
			pick(cfg.HebrewStrong, def.HebrewStrong),
			pick(cfg.HebrewMedium, def.HebrewMedium),
			pick(cfg.HebrewWeak, def.HebrewWeak),
		},
		relevanceTiers: [3][]string{
			lowered(pick(cfg.RelevanceStrong, def.RelevanceStrong)),
			lowered(pick(cfg.RelevanceMedium, def.RelevanceMedium)),
			lowered(pick(cfg.RelevanceWeak, def.RelevanceWeak)),
		},
		relevanceHebrewTiers: [3][]string{
			pick(cfg.RelevanceHebrewStrong, def.RelevanceHebrewStrong),
			pick(cfg.RelevanceHebrewMedium, def.RelevanceHebrewMedium),
			pick(cfg.RelevanceHebrewWeak, def.RelevanceHebrewWeak),
		},
		topPicksMarkers: lowered(pick(cfg.TopPicksMarkers, def.TopPicksMarkers)),
		longLabels:      lowered(pick(cfg.LongLabels, def.LongLabels)),
		shortLabels:     lowered(pick(cfg.ShortLabels, def.ShortLabels)),
	}
}

// Default builds a Lexicon from the built-in tables.
func Default() *Lexicon {
	return New(DefaultConfig())
}

// Disallowed reports whether token sits in the disallow gazetteer.
func (l *Lexicon) Disallowed(token string) bool {
	_, ok := l.disallowed[strings.ToUpper(token)]
	return ok
}

// Allowlisted reports whether token is a known-valid ticker. The allowlist
// overrides the disallow gazetteer.
func (l *Lexicon) Allowlisted(token string) bool {
	_, ok := l.allowlist[strings.ToUpper(token)]
	return ok
}

// SingleLetterTicker reports whether token is one of the hardcoded single
// letters accepted without context.
func (l *Lexicon) SingleLetterTicker(token string) bool {
	_, ok := l.singleLetter[strings.ToUpper(token)]
	return ok
}

// HasEnglishVocab reports whether text contains any English stock-vocabulary
// keyword.
func (l *Lexicon) HasEnglishVocab(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range l.englishVocab {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// HebrewTierBonus returns the extraction bonus for Hebrew keywords found in
// text: 0.3 for strong, 0.2 for medium, 0.1 for weak. Tiers do not stack; the
// strongest hit wins.
func (l *Lexicon) HebrewTierBonus(text string) float64 {
	bonuses := [3]float64{0.3, 0.2, 0.1}
	for tier, kws := range l.hebrewTiers {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				return bonuses[tier]
			}
		}
	}
	return 0
}

// RelevanceHits counts distinct English relevance keywords present in text,
// per tier (strong, medium, weak).
func (l *Lexicon) RelevanceHits(text string) (strong, medium, weak int) {
	lower := strings.ToLower(text)
	counts := [3]int{}
	for tier, kws := range l.relevanceTiers {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				counts[tier]++
			}
		}
	}
	return counts[0], counts[1], counts[2]
}

// RelevanceHebrewBonus returns the relevance bonus for Hebrew keywords in
// text: 0.3 strong, 0.2 medium, 0.1 weak, strongest tier only.
func (l *Lexicon) RelevanceHebrewBonus(text string) float64 {
	bonuses := [3]float64{0.3, 0.2, 0.1}
	for tier, kws := range l.relevanceHebrewTiers {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				return bonuses[tier]
			}
		}
	}
	return 0
}

// StrongKeywordHits counts distinct strong keywords (English and Hebrew)
// present in text. Used by the backlog quality score.
func (l *Lexicon) StrongKeywordHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range l.relevanceTiers[0] {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	for _, kw := range l.relevanceHebrewTiers[0] {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// IsTopPicksMarker reports whether line marks the start of a top-picks section.
func (l *Lexicon) IsTopPicksMarker(line string) bool {
	return containsAny(strings.ToLower(line), l.topPicksMarkers)
}

// IsLongLabel reports whether line carries the "long" list label.
func (l *Lexicon) IsLongLabel(line string) bool {
	return containsAny(strings.ToLower(line), l.longLabels)
}

// IsShortLabel reports whether line carries the "short" list label.
func (l *Lexicon) IsShortLabel(line string) bool {
	return containsAny(strings.ToLower(line), l.shortLabels)
}

func containsAny(s string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func upperSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.ToUpper(t)] = struct{}{}
	}
	return set
}

func lowered(kws []string) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = strings.ToLower(kw)
	}
	return out
}
