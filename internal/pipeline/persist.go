package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/job-matcher/internal/matching"
)

// StagePersist is the name of the persistence stage.
const StagePersist = "persist"

// Persist stores one match record per scored job, all tagged with runID.
// It does nothing when userID or scored is empty.
func Persist(ctx context.Context, store MatchStore, runID uuid.UUID, userID string, scored []matching.ScoredJob) error {
	if strings.TrimSpace(userID) == "" || len(scored) == 0 {
		return nil
	}

	now := time.Now().UTC()
	records := make([]matching.MatchRecord, 0, len(scored))
	for _, job := range scored {
		records = append(records, matching.MatchRecord{
			RunID:     runID,
			UserID:    userID,
			JobID:     job.JobID,
			Score:     job.Score,
			Rationale: job.Rationale,
			CreatedAt: now,
		})
	}

	if err := store.InsertMatches(ctx, records); err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}
	return nil
}

type persistStage struct {
	toggle
	store MatchStore
}

// NewPersist creates the stage that writes the scored jobs to the match store.
func NewPersist(store MatchStore) Stage {
	return &persistStage{store: store}
}

func (s *persistStage) Name() string { return StagePersist }

func (s *persistStage) Apply(ctx context.Context, pc *Context) (Step, error) {
	scored := pc.ScoredJobs.OrEmpty()
	if err := Persist(ctx, s.store, pc.RunID, pc.UserID, scored); err != nil {
		return Step{}, err
	}
	return Step{Initial: len(scored), Left: len(scored)}, nil
}

func (s *persistStage) Status() Status {
	return s.status(s.Name(), nil)
}
