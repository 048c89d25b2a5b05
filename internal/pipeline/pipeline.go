// Package pipeline runs the job matching stages for a user: load profile, load jobs,
// score, persist and format.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/scoring"
)

// Deps aggregates the dependencies shared across the pipeline stages.
type Deps struct {
	Profiles ProfileStore
	Jobs     JobStore
	Matches  MatchStore
	Scorer   *scoring.Scorer
	Logger   *zap.Logger
}

// Options tune the default stage list.
type Options struct {
	TopN   int
	DryRun bool
}

// NewStages returns the default stage list in execution order.
func NewStages(deps Deps, opts Options) []Stage {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	scorer := deps.Scorer
	if scorer == nil {
		scorer = scoring.NewScorer(nil, log)
	}

	stages := []Stage{
		NewLoadProfile(deps.Profiles, log),
		NewLoadJobs(deps.Jobs),
		NewScore(scorer),
		NewPersist(deps.Matches),
		NewFormat(opts.TopN),
	}

	if opts.DryRun {
		DisableByName(stages, StagePersist, "dry run")
	}

	return stages
}

// Pipeline executes its stages strictly in order on one Context per run.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// New creates a pipeline over stages.
func New(stages []Stage, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{stages: stages, logger: log}
}

// Run executes every enabled stage on pc. A failing stage is recorded on pc and
// the run continues: stages after a failure are skipped unless they opt in to run
// anyway. Run never retries a stage.
func (p *Pipeline) Run(ctx context.Context, pc *Context) {
	log := logger.WithRunFields(p.logger, pc.UserID, pc.RunID.String())

	for _, stage := range p.stages {
		stageLog := log.With(zap.String(logger.FieldStage, stage.Name()))

		if !stage.IsEnabled() {
			stageLog.Info("stage disabled")
			continue
		}

		if pc.Failed() && !runsAfterFailure(stage) {
			stageLog.Debug("stage skipped after failure")
			continue
		}

		info, err := stage.Apply(ctx, pc)
		if err != nil {
			stageLog.Warn("stage failed", zap.Error(err))
			pc.Fail(stage.Name(), err)
			continue
		}

		stageLog.Info("pipeline step",
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
	}

	log.Debug("pipeline done", zap.Bool("failed", pc.Failed()))
}

// Result is the outcome of a run for a user.
type Result struct {
	RunID       uuid.UUID
	Profile     *matching.Profile
	Jobs        []matching.Job
	MatchedJobs []matching.ScoredJob
	Response    string
	// Err is the first stage failure of the run, if any.
	Err error
}

// RunForUser runs the pipeline for userID. It returns matching.ErrMissingUserID
// for a blank userID without touching any store. Any other failure is reported
// through Result.Err, and the result always carries a response.
func (p *Pipeline) RunForUser(ctx context.Context, userID string) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, matching.ErrMissingUserID
	}

	pc := NewContext(userID)
	p.Run(ctx, pc)

	result := &Result{
		RunID:       pc.RunID,
		Jobs:        pc.CandidateJobs.OrElse([]matching.Job{}),
		MatchedJobs: pc.ScoredJobs.OrElse([]matching.ScoredJob{}),
		Response:    pc.FinalResponse.OrElse(NoMatchesResponse),
		Err:         pc.Error(),
	}
	if profile, ok := pc.Profile.Get(); ok {
		result.Profile = &profile
	}

	return result, nil
}
