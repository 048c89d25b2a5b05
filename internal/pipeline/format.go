package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/spigell/job-matcher/internal/matching"
)

const (
	// StageFormat is the name of the response formatting stage.
	StageFormat = "format"

	// DefaultTopN is how many matches the response shows when no limit is configured.
	DefaultTopN = 5

	// NoMatchesResponse is the response rendered when nothing was scored.
	NoMatchesResponse = "no strong job matches found."
)

// Format renders the first topN scored jobs as plain text blocks.
func Format(scored []matching.ScoredJob, topN int) string {
	if len(scored) == 0 {
		return NoMatchesResponse
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(scored) > topN {
		scored = scored[:topN]
	}

	blocks := make([]string, 0, len(scored))
	for _, job := range scored {
		blocks = append(blocks, fmt.Sprintf("job id: %s (score: %s)\nreason: %s", job.JobID, FormatScore(job.Score), job.Rationale))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatScore prints a score with the fewest digits that round-trip, always keeping
// a decimal point: 50 is printed as "50.0".
func FormatScore(score float64) string {
	text := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

type formatStage struct {
	toggle
	topN int
}

// NewFormat creates the stage that renders the final response. It runs even when
// an earlier stage failed so that every run ends with a response.
func NewFormat(topN int) Stage {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &formatStage{topN: topN}
}

func (s *formatStage) Name() string { return StageFormat }

func (s *formatStage) RunsAfterFailure() bool { return true }

func (s *formatStage) Apply(_ context.Context, pc *Context) (Step, error) {
	scored := pc.ScoredJobs.OrEmpty()
	pc.FinalResponse = mo.Some(Format(scored, s.topN))

	shown := min(len(scored), s.topN)
	return Step{Initial: len(scored), Dropped: len(scored) - shown, Left: shown}, nil
}

func (s *formatStage) Status() Status {
	return s.status(s.Name(), map[string]string{"top_n": strconv.Itoa(s.topN)})
}
