package pipeline

import (
	"context"

	"github.com/spigell/job-matcher/internal/matching"
)

// ProfileStore loads a user's profile. It returns matching.ErrProfileNotFound when
// the user or its profile does not exist.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*matching.ProfileRecord, error)
}

// JobStore lists every job posting in a stable order.
type JobStore interface {
	ListJobs(ctx context.Context) ([]matching.Job, error)
}

// MatchStore persists the scored jobs of a run.
type MatchStore interface {
	InsertMatches(ctx context.Context, records []matching.MatchRecord) error
}
