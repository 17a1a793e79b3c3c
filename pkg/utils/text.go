package utils

import (
	"strings"
	"unicode"
)

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ContainsHebrew reports whether text contains at least one Hebrew letter.
func ContainsHebrew(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
	}
	return false
}

// IsEmoji reports whether r falls in the common emoji / pictograph blocks.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0xFE0F || r == 0x200D: // variation selector, ZWJ
		return true
	}
	return false
}
