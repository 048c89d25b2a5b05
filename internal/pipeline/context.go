package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/spigell/job-matcher/internal/matching"
)

// Context is the state of one pipeline run. Each stage reads what earlier stages
// computed and fills in its own fields. A field that is absent has not been computed.
type Context struct {
	RunID  uuid.UUID
	UserID string

	Profile       mo.Option[matching.Profile]
	ResumeText    mo.Option[string]
	Preferences   mo.Option[matching.Preferences]
	CandidateJobs mo.Option[[]matching.Job]
	ScoredJobs    mo.Option[[]matching.ScoredJob]
	FinalResponse mo.Option[string]

	Err mo.Option[*StageError]
}

// NewContext returns a fresh run context for userID.
func NewContext(userID string) *Context {
	return &Context{
		RunID:  uuid.New(),
		UserID: userID,
	}
}

// StageError records which stage failed a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fail records err against stage. Only the first failure is kept.
func (c *Context) Fail(stage string, err error) {
	if err == nil || c.Failed() {
		return
	}
	c.Err = mo.Some(&StageError{Stage: stage, Err: err})
}

// Failed reports whether a stage has failed the run.
func (c *Context) Failed() bool {
	return c.Err.IsPresent()
}

// Error returns the recorded stage error, or nil.
func (c *Context) Error() error {
	if stageErr, ok := c.Err.Get(); ok {
		return stageErr
	}
	return nil
}
