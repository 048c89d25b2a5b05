package remotive

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "job-count": 2,
  "jobs": [
    {
      "id": 1912345,
      "url": "https://remotive.com/remote-jobs/software-dev/go-engineer-1912345",
      "title": "Go Engineer",
      "company_name": "Acme",
      "category": "Software Development",
      "tags": ["go", "kubernetes"],
      "job_type": "full_time",
      "candidate_required_location": "Europe",
      "salary": "",
      "description": "<p>Build <b>Go</b> services.</p><ul><li>Kubernetes</li><li>PostgreSQL</li></ul>"
    },
    {
      "id": 1912346,
      "title": "Data Analyst",
      "company_name": "Beta",
      "category": "Data",
      "candidate_required_location": "Worldwide",
      "description": "SQL and Python",
      "source_name": "Partner"
    }
  ]
}`

func newTestClient(url string) *Client {
	c := New(nil, url)
	c.Backoff = time.Millisecond
	return c
}

func TestFetchDecodesJobs(t *testing.T) {
	t.Parallel()

	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "limit=2", query)
	require.Equal(t, 2, jobs.Len())

	first := jobs.Items[0]
	assert.Equal(t, "1912345", first.ID)
	assert.Equal(t, "Acme", first.CompanyName)
	assert.Equal(t, []string{"go", "kubernetes"}, first.Tags)
	assert.Equal(t, "Europe", first.CandidateRequiredLocation)
}

func TestFetchWithoutLimitSendsNoQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"job-count": 0, "jobs": []}`))
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, jobs.Len())
}

func TestFetchGzip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(sampleResponse))
		_ = gz.Close()
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, jobs.Len())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, jobs.Len())
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchGivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.MaxRetries = 1

	_, err := client.Fetch(context.Background(), 0)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostings(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	jobs, err := newTestClient(server.URL).Fetch(context.Background(), 0)
	require.NoError(t, err)

	postings, err := jobs.Postings(true)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "1912345", first.ExternalID)
	assert.Equal(t, DefaultSource, first.Source)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Europe", first.Location)
	assert.Equal(t, "Software Development", first.Category)
	assert.Equal(t, "Build Go services. Kubernetes PostgreSQL", first.Description)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(first.Raw, &raw))
	assert.Equal(t, "Go Engineer", raw["title"])
	assert.Contains(t, string(first.Raw), "1912345")

	assert.Equal(t, "Partner", postings[1].Source)

	html, err := jobs.Postings(false)
	require.NoError(t, err)
	assert.Contains(t, html[0].Description, "<b>Go</b>")
}

func TestDumpToFile(t *testing.T) {
	t.Parallel()

	jobs := &Jobs{
		Items: []*Job{{ID: "1"}},
		raw:   []map[string]any{{"id": json.Number("1"), "title": "Go Engineer"}},
	}

	path := filepath.Join(t.TempDir(), "jobs.json")
	written, err := jobs.DumpToFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1, "title": "Go Engineer"}]`, string(data))

	tmp, err := (&Jobs{}).DumpToFile("")
	require.NoError(t, err)
	defer os.Remove(tmp)

	data, err = os.ReadFile(tmp)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "  ", expect: ""},
		{name: "plain", input: "SQL and Python", expect: "SQL and Python"},
		{name: "inline tags", input: "Build <b>Go</b> services", expect: "Build Go services"},
		{name: "blocks keep word boundaries", input: "<ul><li>Go</li><li>SQL</li></ul>", expect: "Go SQL"},
		{name: "drops scripts and styles", input: "<style>p{color:red}</style><p>Hi</p><script>x()</script>", expect: "Hi"},
		{name: "entities", input: "R&amp;D &lt;team&gt;", expect: "R&D <team>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := PlainText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}
