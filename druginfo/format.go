package druginfo

import (
	"strings"
	"unicode"
)

const (
	// MaxFieldRunes bounds each label field before bulleting
	MaxFieldRunes = 1200
	// MaxBullets bounds the bullet list for one field
	MaxBullets = 6
	// NotAvailable replaces a missing or empty field
	NotAvailable = "Not available."
)

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// Shorten cuts text to limit runes. When the window holds a sentence
// terminator the cut moves back to just after the last one.
func Shorten(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	window := runes[:limit]
	for i := len(window) - 1; i >= 0; i-- {
		if isTerminator(window[i]) {
			return string(window[:i+1])
		}
	}
	return string(window)
}

// SplitSentences breaks text after '.', '?' or '!' when whitespace follows.
// Sentences are trimmed with inner whitespace collapsed; empties are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	flush := func(end int) {
		if s := strings.Join(strings.Fields(string(runes[start:end])), " "); s != "" {
			sentences = append(sentences, s)
		}
	}

	for i := 0; i < len(runes)-1; i++ {
		if isTerminator(runes[i]) && unicode.IsSpace(runes[i+1]) {
			flush(i + 1)
			start = i + 1
		}
	}
	flush(len(runes))

	return sentences
}

// Bullets renders text as at most limit "- " lines, or NotAvailable when
// nothing survives.
func Bullets(text string, limit int) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return NotAvailable
	}
	if len(sentences) > limit {
		sentences = sentences[:limit]
	}

	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(s)
	}
	return b.String()
}

// summarize applies the shorten then bullet pipeline to one field
func summarize(text string) string {
	return Bullets(Shorten(text, MaxFieldRunes), MaxBullets)
}
