package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-matcher/internal/matching"
)

// ListJobs returns every posting in ingestion order.
func (s *Store) ListJobs(ctx context.Context) ([]matching.Job, error) {
	conn, err := s.acquire(ctx, "list jobs")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT id::text, COALESCE(title, ''), COALESCE(company, ''), COALESCE(location, ''),
		        COALESCE(description, ''), COALESCE(url, ''), COALESCE(category, '')
		 FROM job_postings
		 ORDER BY ingested_at, id`,
	)
	if err != nil {
		return nil, unavailable("list jobs", err)
	}
	defer rows.Close()

	jobs := []matching.Job{}
	for rows.Next() {
		var job matching.Job
		if err := rows.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.Description, &job.URL, &job.Category); err != nil {
			return nil, unavailable("scan job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list jobs", err)
	}

	return jobs, nil
}

// SaveJobs ingests postings in one transaction. Postings already stored under the
// same external id and source are left untouched. It returns how many rows were inserted.
func (s *Store) SaveJobs(ctx context.Context, postings []matching.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.inTx(ctx, "save jobs", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range postings {
			raw := p.Raw
			if len(raw) == 0 {
				raw = []byte("null")
			}
			batch.Queue(
				`INSERT INTO job_postings (external_id, source, title, company, location, url, description, category, raw_json)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
				 ON CONFLICT (external_id, source) DO NOTHING`,
				p.ExternalID, p.Source, p.Title, p.Company, p.Location, p.URL, p.Description, p.Category, string(raw),
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range postings {
			tag, err := results.Exec()
			if err != nil {
				return unavailable("insert job posting", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
