package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/feed/remotive"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/store/memory"
)

const feedResponse = `{
  "job-count": 2,
  "jobs": [
    {"id": 101, "title": "Go Engineer", "company_name": "Acme", "candidate_required_location": "Europe", "description": "<p>Go and <b>SQL</b></p>"},
    {"id": 102, "title": "SRE", "company_name": "Beta", "candidate_required_location": "Worldwide", "description": "Kubernetes"}
  ]
}`

func newFeed(t *testing.T) *remotive.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedResponse))
	}))
	t.Cleanup(server.Close)

	return remotive.New(nil, server.URL)
}

type failingSaver struct{}

func (failingSaver) SaveJobs(context.Context, []matching.Posting) (int, error) {
	return 0, errors.Join(matching.ErrStoreUnavailable, errors.New("connection refused"))
}

func TestRunStoresPostings(t *testing.T) {
	t.Parallel()

	store := memory.New(matching.MatchPolicyAppend)
	core, observed := observer.New(zapcore.InfoLevel)

	ingester := New(newFeed(t), store, Options{PlainText: true}, zap.New(core))

	result, err := ingester.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &Result{Fetched: 2, Stored: 2}, result)

	jobs, err := store.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, "Go and SQL", jobs[0].Description)
	assert.Equal(t, "Europe", jobs[0].Location)

	again, err := ingester.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Fetched)
	assert.Zero(t, again.Stored)

	stored := observed.FilterMessage("stored jobs").All()
	require.Len(t, stored, 2)
	assert.Equal(t, int64(2), stored[1].ContextMap()["skipped"])
}

func TestRunDumpsItems(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.json")
	ingester := New(newFeed(t), memory.New(""), Options{DumpFile: path}, nil)

	result, err := ingester.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, path, result.DumpFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Go Engineer"`)
}

func TestRunKeepsGoingWhenDumpFails(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	dump := filepath.Join(t.TempDir(), "missing", "jobs.json")
	ingester := New(newFeed(t), memory.New(""), Options{DumpFile: dump}, zap.New(core))

	result, err := ingester.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stored)
	assert.Empty(t, result.DumpFile)
	assert.Len(t, observed.FilterMessage("dumping jobs to file").All(), 1)
}

func TestRunSurfacesStoreErrors(t *testing.T) {
	t.Parallel()

	_, err := New(newFeed(t), failingSaver{}, Options{}, nil).Run(context.Background(), 0)
	require.ErrorIs(t, err, matching.ErrStoreUnavailable)
	assert.ErrorContains(t, err, "save jobs")
}

func TestRunSurfacesFeedErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := New(remotive.New(nil, server.URL), memory.New(""), Options{}, nil).Run(context.Background(), 0)
	var statusErr *remotive.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}
