package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/ingest"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/scoring"
	"github.com/spigell/job-matcher/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIngester struct {
	result *ingest.Result
	err    error
	limit  int
}

func (s *stubIngester) Run(_ context.Context, limit int) (*ingest.Result, error) {
	s.limit = limit
	return s.result, s.err
}

// brokenStore fails every call as an unreachable database would.
type brokenStore struct{}

func (brokenStore) unavailable() error {
	return fmt.Errorf("%w: acquire connection: connection refused", matching.ErrStoreUnavailable)
}

func (b brokenStore) Ping(context.Context) error { return b.unavailable() }

func (b brokenStore) GetProfile(context.Context, string) (*matching.ProfileRecord, error) {
	return nil, b.unavailable()
}

func (b brokenStore) CreateUser(context.Context, matching.NewUser) (string, error) {
	return "", b.unavailable()
}

func (b brokenStore) UpsertProfile(context.Context, matching.NewUser) (string, error) {
	return "", b.unavailable()
}

func (b brokenStore) ListMatches(context.Context, string) ([]matching.MatchRecord, error) {
	return nil, b.unavailable()
}

func (b brokenStore) ListJobs(context.Context) ([]matching.Job, error) {
	return nil, b.unavailable()
}

func (b brokenStore) InsertMatches(context.Context, []matching.MatchRecord) error {
	return b.unavailable()
}

type pipelineStore interface {
	Store
	pipeline.ProfileStore
	pipeline.JobStore
	pipeline.MatchStore
}

type testServer struct {
	*Server
	ingester *stubIngester
}

func newTestServer(t *testing.T, store pipelineStore, logger *zap.Logger) *testServer {
	t.Helper()

	matcher := pipeline.New(pipeline.NewStages(pipeline.Deps{
		Profiles: store,
		Jobs:     store,
		Matches:  store,
		Scorer:   scoring.NewScorer(scoring.TFIDF{}, nil),
	}, pipeline.Options{}), nil)

	ingester := &stubIngester{result: &ingest.Result{Fetched: 3, Stored: 2}}

	return &testServer{
		Server: New(Config{}, Deps{
			Store:    store,
			Matcher:  matcher,
			Ingester: ingester,
			Logger:   logger,
		}),
		ingester: ingester,
	}
}

func do(t *testing.T, s *Server, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())

	_, err := time.Parse(time.RFC3339, decoded["timestamp"].(string))
	require.NoError(t, err)

	return rec.Code, decoded
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.New(""), nil)

	code, body := do(t, s.Server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Server is running", body["message"])

	for _, path := range []string{"/health/db", "/db"} {
		code, body = do(t, s.Server, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, code, path)
		assert.Equal(t, "Database connected", body["message"], path)
	}
}

func TestDBHealthFailure(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	s := newTestServer(t, brokenStore{}, zap.New(core))

	code, body := do(t, s.Server, http.MethodGet, "/health/db", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failure", body["status"])
	assert.Contains(t, body["message"], "Database connection failed")
	assert.Len(t, observed.FilterMessage("database health check failed").All(), 1)
}

func TestAgentRequiresUserID(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.NewSeeded(""), nil)

	code, body := do(t, s.Server, http.MethodPost, "/agent", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "user_id is required", body["message"])

	code, _ = do(t, s.Server, http.MethodPost, "/agent", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAgentMatchesSeededUser(t *testing.T) {
	t.Parallel()

	store := memory.NewSeeded("")
	s := newTestServer(t, store, nil)

	code, body := do(t, s.Server, http.MethodPost, "/agent", map[string]any{"user_id": memory.MockUserID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, memory.MockUserID, body["user_id"])
	assert.NotEmpty(t, body["run_id"])

	profile := body["user_profile"].(map[string]any)
	assert.Equal(t, "Jane", profile["first_name"])

	assert.Len(t, body["jobs_list"], 15)

	matched := body["matched_jobs"].([]any)
	require.Len(t, matched, 15)
	top := matched[0].(map[string]any)
	assert.Equal(t, "job-004", top["job_id"])
	assert.Equal(t, 24.88, top["score"])
	assert.Equal(t, "matched on keywords: python", top["rationale"])

	assert.Contains(t, body["response"], "job id: job-004 (score: 24.88)\nreason: matched on keywords: python")

	code, body = do(t, s.Server, http.MethodGet, "/users/"+memory.MockUserID+"/matches", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(15), body["count"])
}

func TestAgentUnknownUserIsDegraded(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.NewSeeded(""), nil)

	code, body := do(t, s.Server, http.MethodPost, "/agent", map[string]any{"user_id": "nobody"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Nil(t, body["user_profile"])
	assert.Empty(t, body["matched_jobs"])
	assert.Equal(t, pipeline.NoMatchesResponse, body["response"])
}

func TestAgentStoreUnavailable(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.ErrorLevel)
	s := newTestServer(t, brokenStore{}, zap.New(core))

	code, body := do(t, s.Server, http.MethodPost, "/agent", map[string]any{"user_id": "user-1"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["message"])
	assert.NotContains(t, body, "response")

	logged := observed.FilterMessage("running matcher").All()
	require.Len(t, logged, 1)
	assert.Equal(t, "user-1", logged[0].ContextMap()["user_id"])
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	store := memory.New("")
	s := newTestServer(t, store, nil)

	code, body := do(t, s.Server, http.MethodPost, "/submit", map[string]any{"email": "a@test.com"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "failure", body["status"])
	assert.Equal(t, "first_name is required, last_name is required", body["message"])

	code, body = do(t, s.Server, http.MethodPost, "/submit", map[string]any{
		"first_name": "Ann", "last_name": "Lee", "email": "a@test.com",
		"preferences": map[string]any{"remote": "sometimes"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "preferences parse error")

	submission := map[string]any{
		"first_name":  "Ann",
		"last_name":   "Lee",
		"email":       "a@test.com",
		"resume_text": "Go developer",
		"preferences": map[string]any{"remote": true},
	}
	code, body = do(t, s.Server, http.MethodPost, "/submit", submission)
	require.Equal(t, http.StatusCreated, code)
	userID := body["user_id"].(string)
	assert.NotEmpty(t, userID)

	record, err := store.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Go developer", record.ResumeText)
	assert.JSONEq(t, `{"remote": true}`, string(record.PreferencesJSON))

	code, body = do(t, s.Server, http.MethodPost, "/submit", submission)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User already exists", body["message"])
}

func TestSubmitStoreUnavailable(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, brokenStore{}, nil)

	code, body := do(t, s.Server, http.MethodPost, "/submit", map[string]any{"first_name": "A", "last_name": "B", "email": "a@test.com"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Database insert failed", body["message"])
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.New(""), nil)

	code, body := do(t, s.Server, http.MethodPost, "/profiles", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email must be a valid email", body["message"])

	code, body = do(t, s.Server, http.MethodPost, "/profiles", map[string]any{
		"email": "b@test.com", "first_name": "Bo", "last_name": "Ng", "resume_text": "SRE",
	})
	require.Equal(t, http.StatusOK, code)
	userID := body["user_id"].(string)

	code, body = do(t, s.Server, http.MethodPost, "/profiles", map[string]any{
		"email": "b@test.com", "resume_text": "Platform engineer", "preferences": map[string]any{"location": "Remote"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, userID, body["user_id"])

	code, body = do(t, s.Server, http.MethodGet, "/profiles/"+userID, nil)
	require.Equal(t, http.StatusOK, code)
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "Bo", profile["first_name"])
	assert.Equal(t, "Platform engineer", profile["resume_text"])
	assert.Equal(t, map[string]any{"location": "Remote"}, profile["preferences_json"])

	code, body = do(t, s.Server, http.MethodGet, "/profiles/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Profile not found", body["message"])
}

func TestListMatchesEmpty(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.New(""), nil)

	code, body := do(t, s.Server, http.MethodGet, "/users/someone/matches", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []any{}, body["matches"])
}

func TestFetchJobs(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.New(""), nil)

	code, body := do(t, s.Server, http.MethodGet, "/fetch-jobs?limit=3", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Fetched and stored 3 jobs", body["message"])
	assert.Equal(t, float64(2), body["stored"])
	assert.Equal(t, 3, s.ingester.limit)

	code, _ = do(t, s.Server, http.MethodGet, "/fetch-jobs?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s.Server, http.MethodGet, "/fetch-jobs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s.Server, http.MethodGet, "/fetch-jobs", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, s.ingester.limit)
}

func TestFetchJobsFailures(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, memory.New(""), nil)

	s.ingester.err = errors.New("fetch jobs: remotive returned 502 Bad Gateway")
	code, body := do(t, s.Server, http.MethodGet, "/fetch-jobs", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "fetch jobs: remotive returned 502 Bad Gateway", body["message"])

	s.ingester.err = fmt.Errorf("save jobs: %w: commit: broken pipe", matching.ErrStoreUnavailable)
	code, body = do(t, s.Server, http.MethodGet, "/fetch-jobs", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["message"])
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	s := New(Config{Addr: addr, ShutdownTimeout: time.Second}, Deps{Store: memory.New("")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
