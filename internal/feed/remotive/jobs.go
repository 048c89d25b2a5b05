package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-matcher/internal/matching"
)

type Jobs struct {
	Items []*Job
	// raw keeps every item exactly as the API returned it.
	raw []map[string]any
}

type Job struct {
	ID                        string   `json:"id,omitempty"`
	URL                       string   `json:"url,omitempty"`
	Title                     string   `json:"title,omitempty"`
	CompanyName               string   `json:"company_name,omitempty"`
	CompanyLogo               string   `json:"company_logo,omitempty"`
	Category                  string   `json:"category,omitempty"`
	Tags                      []string `json:"tags,omitempty"`
	JobType                   string   `json:"job_type,omitempty"`
	PublicationDate           string   `json:"publication_date,omitempty"`
	CandidateRequiredLocation string   `json:"candidate_required_location,omitempty"`
	Salary                    string   `json:"salary,omitempty"`
	Description               string   `json:"description,omitempty"`
	SourceName                string   `json:"source_name,omitempty"`
}

func (c *Client) fetch(ctx context.Context, limit int) (*Jobs, error) {
	items, err := c.getItems(ctx, buildParams(limit))
	if err != nil {
		return nil, err
	}

	var jobs []*Job
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &jobs,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	return &Jobs{Items: jobs, raw: items}, nil
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

// Postings converts the fetched jobs for ingestion. With plainText the HTML
// descriptions are reduced to text.
func (j *Jobs) Postings(plainText bool) ([]matching.Posting, error) {
	postings := make([]matching.Posting, 0, len(j.Items))
	for i, job := range j.Items {
		raw, err := json.Marshal(j.raw[i])
		if err != nil {
			return nil, fmt.Errorf("encode job %s: %w", job.ID, err)
		}

		description := job.Description
		if plainText {
			if description, err = PlainText(job.Description); err != nil {
				return nil, fmt.Errorf("job %s: %w", job.ID, err)
			}
		}

		source := job.SourceName
		if source == "" {
			source = DefaultSource
		}

		postings = append(postings, matching.Posting{
			ExternalID:  job.ID,
			Source:      source,
			Title:       job.Title,
			Company:     job.CompanyName,
			Location:    job.CandidateRequiredLocation,
			URL:         job.URL,
			Description: description,
			Category:    job.Category,
			Raw:         raw,
		})
	}
	return postings, nil
}

// DumpToFile writes the items as returned by the API to path. An empty path
// creates a temporary file. The written path is returned.
func (j *Jobs) DumpToFile(path string) (string, error) {
	var (
		file *os.File
		err  error
	)
	if path == "" {
		file, err = os.CreateTemp("", "jobs_*.json")
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	items := j.raw
	if items == nil {
		items = []map[string]any{}
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
