// Package textnorm cleans free text (resumes, job descriptions) before it is vectorized.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// noiseWords are markup/CSS leftovers that carry no matching signal.
var noiseWords = []string{
	"style", "color", "border", "box", "font", "width", "height",
	"div", "li", "h1", "h2", "h3", "h4", "h5",
}

// Normalize strips HTML-like tags and markup noise words, collapses whitespace,
// trims and lower-cases. It is pure and idempotent.
//
// Lower-casing runs before noise removal: some runes (U+0130 'İ') lower-case
// into ASCII without folding to it, so a later pass would otherwise see new noise words.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = removeNoiseWords(text)

	return strings.Join(strings.Fields(text), " ")
}

// IsWordRune reports whether r belongs to a word: letters, digits and underscore.
// Combining marks are not word runes and split words.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || r == '_'
}

// removeNoiseWords replaces every whole-word, case-insensitive occurrence of a noise word with a space.
func removeNoiseWords(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	for i := 0; i < len(runes); {
		if !IsWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && IsWordRune(runes[j]) {
			j++
		}

		word := string(runes[i:j])
		if isNoise(word) {
			b.WriteByte(' ')
		} else {
			b.WriteString(word)
		}
		i = j
	}

	return b.String()
}

func isNoise(word string) bool {
	for _, noise := range noiseWords {
		if strings.EqualFold(word, noise) {
			return true
		}
	}
	return false
}
