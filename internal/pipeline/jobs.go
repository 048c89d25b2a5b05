package pipeline

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"github.com/spigell/job-matcher/internal/matching"
)

// StageLoadJobs is the name of the job loading stage.
const StageLoadJobs = "load_jobs"

// LoadAllJobs returns every job known to store. An empty set is not an error.
func LoadAllJobs(ctx context.Context, store JobStore) ([]matching.Job, error) {
	jobs, err := store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if jobs == nil {
		jobs = []matching.Job{}
	}
	return jobs, nil
}

type loadJobsStage struct {
	toggle
	store JobStore
}

// NewLoadJobs creates the stage that loads all candidate jobs.
func NewLoadJobs(store JobStore) Stage {
	return &loadJobsStage{store: store}
}

func (s *loadJobsStage) Name() string { return StageLoadJobs }

func (s *loadJobsStage) Apply(ctx context.Context, pc *Context) (Step, error) {
	jobs, err := LoadAllJobs(ctx, s.store)
	if err != nil {
		return Step{}, err
	}

	pc.CandidateJobs = mo.Some(jobs)
	return Step{Initial: len(jobs), Left: len(jobs)}, nil
}

func (s *loadJobsStage) Status() Status {
	return s.status(s.Name(), nil)
}
