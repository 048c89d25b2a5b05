// Package ingest pulls postings from a job feed into the job store.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/feed/remotive"
	"github.com/spigell/job-matcher/internal/matching"
)

// Feed returns the current list of jobs from an external source.
type Feed interface {
	Fetch(ctx context.Context, limit int) (*remotive.Jobs, error)
}

// JobSaver stores postings, skipping the ones it already has.
type JobSaver interface {
	SaveJobs(ctx context.Context, postings []matching.Posting) (int, error)
}

type Options struct {
	// PlainText strips HTML from descriptions before they are stored.
	PlainText bool
	// DumpFile, when set, receives the fetched items as indented JSON.
	DumpFile string
}

// Result summarises one ingestion.
type Result struct {
	Fetched  int    `json:"fetched"`
	Stored   int    `json:"stored"`
	DumpFile string `json:"dump_file,omitempty"`
}

type Ingester struct {
	feed   Feed
	store  JobSaver
	opts   Options
	logger *zap.Logger
}

func New(feed Feed, store JobSaver, opts Options, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{feed: feed, store: store, opts: opts, logger: logger}
}

// Run fetches up to limit jobs (all when limit is not positive) and saves them.
// A failed dump is logged and does not stop the ingestion.
func (i *Ingester) Run(ctx context.Context, limit int) (*Result, error) {
	jobs, err := i.feed.Fetch(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}

	result := &Result{Fetched: jobs.Len()}
	i.logger.Info("fetched jobs", zap.Int("count", result.Fetched), zap.Int("limit", limit))

	if i.opts.DumpFile != "" {
		path, err := jobs.DumpToFile(i.opts.DumpFile)
		if err != nil {
			i.logger.Warn("dumping jobs to file", zap.String("filename", i.opts.DumpFile), zap.Error(err))
		} else {
			result.DumpFile = path
			i.logger.Info("dumping jobs to file", zap.String("filename", path))
		}
	}

	postings, err := jobs.Postings(i.opts.PlainText)
	if err != nil {
		return nil, fmt.Errorf("convert jobs: %w", err)
	}

	stored, err := i.store.SaveJobs(ctx, postings)
	if err != nil {
		return nil, fmt.Errorf("save jobs: %w", err)
	}
	result.Stored = stored

	i.logger.Info("stored jobs",
		zap.Int("stored", stored),
		zap.Int("skipped", result.Fetched-stored),
	)

	return result, nil
}
