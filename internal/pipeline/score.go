package pipeline

import (
	"context"

	"github.com/samber/mo"

	"github.com/spigell/job-matcher/internal/scoring"
)

// StageScore is the name of the scoring stage.
const StageScore = "score"

type scoreStage struct {
	toggle
	scorer *scoring.Scorer
}

// NewScore creates the stage that ranks the candidate jobs against the profile.
func NewScore(scorer *scoring.Scorer) Stage {
	return &scoreStage{scorer: scorer}
}

func (s *scoreStage) Name() string { return StageScore }

func (s *scoreStage) Apply(ctx context.Context, pc *Context) (Step, error) {
	jobs := pc.CandidateJobs.OrElse(nil)

	scored, err := s.scorer.Score(ctx,
		pc.ResumeText.OrEmpty(),
		pc.Preferences.OrEmpty(),
		jobs,
	)
	if err != nil {
		return Step{}, err
	}

	pc.ScoredJobs = mo.Some(scored)
	return Step{Initial: len(jobs), Dropped: len(jobs) - len(scored), Left: len(scored)}, nil
}

func (s *scoreStage) Status() Status {
	return s.status(s.Name(), map[string]string{"backend": s.scorer.BackendName()})
}
