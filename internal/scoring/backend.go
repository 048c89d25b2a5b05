package scoring

import "context"

// Corpus is the set of documents scored in one run: one user document and one document per job.
type Corpus struct {
	User string
	Jobs []string
}

// Backend computes the similarity of the user document to each job document.
// Results must be in [0, 1] and aligned with Corpus.Jobs.
type Backend interface {
	Name() string
	Similarities(ctx context.Context, corpus Corpus) ([]float64, error)
}

// TFIDF is the default backend: cosine similarity in a per-run TF-IDF space.
type TFIDF struct{}

func (TFIDF) Name() string { return "tfidf" }

func (TFIDF) Similarities(_ context.Context, corpus Corpus) ([]float64, error) {
	space := Fit(append([]string{corpus.User}, corpus.Jobs...))
	return space.userSimilarities(), nil
}

func (s *Space) userSimilarities() []float64 {
	sims := make([]float64, len(s.rows)-1)
	for i := range sims {
		sims[i] = s.Cosine(0, i+1)
	}
	return sims
}
