package scoring

import "strings"

const (
	rationaleCandidates = 10
	rationaleFallback   = 3
	rationalePrefix     = "matched on keywords: "
)

// RationaleKeywords keeps the terms that mention a technical skill. When none does,
// it falls back to the first three terms.
func RationaleKeywords(terms []string) []string {
	keywords := make([]string, 0, len(terms))
	for _, term := range terms {
		if mentionsSkill(term) {
			keywords = append(keywords, term)
		}
	}

	if len(keywords) > 0 {
		return keywords
	}

	if len(terms) > rationaleFallback {
		return terms[:rationaleFallback]
	}
	return terms
}

// Rationale renders the human-readable explanation for a match.
func Rationale(terms []string) string {
	return rationalePrefix + strings.Join(RationaleKeywords(terms), ", ")
}

func mentionsSkill(term string) bool {
	term = strings.ToLower(term)
	for _, skill := range techSkills {
		if strings.Contains(term, skill) {
			return true
		}
	}
	return false
}
