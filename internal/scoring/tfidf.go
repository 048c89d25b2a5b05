package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/spigell/job-matcher/internal/textnorm"
)

// Space is a TF-IDF vector space fitted on one corpus. Row 0 is conventionally the
// user document. The vocabulary lives only as long as the Space.
type Space struct {
	terms []string
	rows  []vector
}

type entry struct {
	index  int
	weight float64
}

// vector is a sparse row ordered by term index.
type vector []entry

// Fit builds a TF-IDF space over docs: tokens are runs of two or more word runes,
// English stopwords are dropped, the vocabulary is sorted, idf is smoothed
// (ln((1+n)/(1+df)) + 1) and every row is L2-normalised.
func Fit(docs []string) *Space {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, token := range Tokenize(doc) {
			if counts[i][token] == 0 {
				df[token]++
			}
			counts[i][token]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([]vector, len(docs))
	for i, tf := range counts {
		row := make(vector, 0, len(tf))
		for term, count := range tf {
			idx := index[term]
			row = append(row, entry{index: idx, weight: float64(count) * idf[idx]})
		}
		sort.Slice(row, func(a, b int) bool { return row[a].index < row[b].index })
		rows[i] = normalizeRow(row)
	}

	return &Space{terms: terms, rows: rows}
}

// Tokenize splits a document into lower-cased tokens of at least two word runes,
// skipping English stopwords.
func Tokenize(doc string) []string {
	doc = strings.ToLower(doc)

	var tokens []string
	runes := []rune(doc)
	for i := 0; i < len(runes); {
		if !textnorm.IsWordRune(runes[i]) {
			i++
			continue
		}

		j := i
		for j < len(runes) && textnorm.IsWordRune(runes[j]) {
			j++
		}

		if j-i >= 2 {
			token := string(runes[i:j])
			if _, stop := englishStopWords[token]; !stop {
				tokens = append(tokens, token)
			}
		}
		i = j
	}

	return tokens
}

func normalizeRow(row vector) vector {
	norm := row.norm()
	if norm == 0 {
		return row
	}
	for i := range row {
		row[i].weight /= norm
	}
	return row
}

func (v vector) norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.weight * e.weight
	}
	return math.Sqrt(sum)
}

// Len returns the vocabulary size.
func (s *Space) Len() int {
	return len(s.terms)
}

// Cosine returns the cosine similarity between rows a and b, clamped to [0, 1].
func (s *Space) Cosine(a, b int) float64 {
	x, y := s.rows[a], s.rows[b]

	nx, ny := x.norm(), y.norm()
	if nx == 0 || ny == 0 {
		return 0
	}

	var dot float64
	for i, j := 0, 0; i < len(x) && j < len(y); {
		switch {
		case x[i].index == y[j].index:
			dot += x[i].weight * y[j].weight
			i++
			j++
		case x[i].index < y[j].index:
			i++
		default:
			j++
		}
	}

	return clamp01(dot / (nx * ny))
}

// TopTerms returns up to limit terms of row with positive weight, by weight descending.
// Ties keep vocabulary order.
func (s *Space) TopTerms(row, limit int) []string {
	entries := make(vector, 0, len(s.rows[row]))
	for _, e := range s.rows[row] {
		if e.weight > 0 {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].weight > entries[b].weight
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	terms := make([]string, 0, len(entries))
	for _, e := range entries {
		terms = append(terms, s.terms[e.index])
	}
	return terms
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
