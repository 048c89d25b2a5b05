package scoring

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/textnorm"
	"go.uber.org/zap"
)

// Scorer ranks jobs against a user document.
type Scorer struct {
	backend Backend
	logger  *zap.Logger
}

// NewScorer returns a Scorer. A nil or TFIDF backend scores with the cosine of the
// space fitted for rationale extraction, so the corpus is fitted once per run.
func NewScorer(backend Backend, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{backend: backend, logger: logger}
}

// BackendName reports which similarity backend the scorer uses.
func (s *Scorer) BackendName() string {
	if s.backend == nil {
		return TFIDF{}.Name()
	}
	return s.backend.Name()
}

// Score returns the jobs with a positive score, ordered by score descending.
// Jobs with equal scores keep their input order.
func (s *Scorer) Score(ctx context.Context, resumeText string, prefs matching.Preferences, jobs []matching.Job) ([]matching.ScoredJob, error) {
	userDoc := UserDocument(resumeText, prefs)
	if len(jobs) == 0 || userDoc == "" {
		s.logger.Debug("nothing to score",
			zap.Int("jobs", len(jobs)),
			zap.Bool("empty_user_document", userDoc == ""),
		)
		return []matching.ScoredJob{}, nil
	}

	docs := make([]string, 0, len(jobs)+1)
	docs = append(docs, userDoc)
	for _, job := range jobs {
		docs = append(docs, JobDocument(job))
	}

	space := Fit(docs)
	if space.Len() == 0 {
		return []matching.ScoredJob{}, nil
	}

	sims, err := s.similarities(ctx, space, docs)
	if err != nil {
		return nil, err
	}

	scored := make([]matching.ScoredJob, 0, len(jobs))
	for i, job := range jobs {
		score := RoundScore(sims[i])
		if score <= 0 {
			continue
		}

		scored = append(scored, matching.ScoredJob{
			JobID:     job.ID,
			Score:     score,
			Rationale: Rationale(space.TopTerms(i+1, rationaleCandidates)),
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	s.logger.Debug("jobs scored",
		zap.String("backend", s.BackendName()),
		zap.Int("vocabulary", space.Len()),
		zap.Int("candidates", len(jobs)),
		zap.Int("scored", len(scored)),
	)

	return scored, nil
}

func (s *Scorer) similarities(ctx context.Context, space *Space, docs []string) ([]float64, error) {
	switch s.backend.(type) {
	case nil, TFIDF, *TFIDF:
		return space.userSimilarities(), nil
	}

	sims, err := s.backend.Similarities(ctx, Corpus{User: docs[0], Jobs: docs[1:]})
	if err != nil {
		return nil, fmt.Errorf("%s similarities: %w", s.backend.Name(), err)
	}
	if len(sims) != len(docs)-1 {
		return nil, fmt.Errorf("%s similarities: got %d values for %d jobs", s.backend.Name(), len(sims), len(docs)-1)
	}

	for i := range sims {
		sims[i] = clamp01(sims[i])
	}
	return sims, nil
}

// UserDocument builds the normalized text that represents the user: the resume
// followed by the preference tokens that are present.
func UserDocument(resumeText string, prefs matching.Preferences) string {
	parts := []string{textnorm.Normalize(resumeText)}

	if prefs.Location != "" {
		parts = append(parts, prefs.Location)
	}
	if prefs.JobType != "" {
		parts = append(parts, prefs.JobType)
	}
	if remote, ok := prefs.Remote.Get(); ok {
		if remote {
			parts = append(parts, "remote")
		} else {
			parts = append(parts, "on-site")
		}
	}
	if salary, ok := prefs.SalaryMin.Get(); ok {
		parts = append(parts, "salary "+salary.String())
	}

	return textnorm.Normalize(strings.Join(parts, " "))
}

// JobDocument builds the normalized text that represents a job.
func JobDocument(job matching.Job) string {
	return textnorm.Normalize(job.Title + " " + job.Description)
}

// RoundScore converts a similarity in [0, 1] to a score in [0, 100] rounded to two
// decimals. Rounding is done on the exact binary value.
func RoundScore(sim float64) float64 {
	score, err := strconv.ParseFloat(strconv.FormatFloat(clamp01(sim)*100, 'f', 2, 64), 64)
	if err != nil {
		return 0
	}
	return score
}
