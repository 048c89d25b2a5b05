package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

// InsertMatches writes the records of one run in a single transaction. With the
// upsert policy the previous rows of each (user, job) pair are deleted first.
func (s *Store) InsertMatches(ctx context.Context, records []matching.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.inTx(ctx, "insert matches", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			if s.policy == matching.MatchPolicyUpsert {
				batch.Queue(
					`DELETE FROM job_matches WHERE user_id = $1::uuid AND job_posting_id = $2::uuid`,
					r.UserID, r.JobID,
				)
			}
			batch.Queue(
				`INSERT INTO job_matches (run_id, user_id, job_posting_id, score, rationale, created_at)
				 VALUES ($1, $2::uuid, $3::uuid, $4, $5, $6)`,
				r.RunID.String(), r.UserID, r.JobID, r.Score, r.Rationale, r.CreatedAt,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return unavailable("insert matches", err)
		}

		s.logger.Debug("matches stored",
			zap.String("policy", string(s.policy)),
			zap.Int("records", len(records)),
		)
		return nil
	})
}

// ListMatches returns the stored matches of userID, newest first and by score
// within a run.
func (s *Store) ListMatches(ctx context.Context, userID string) ([]matching.MatchRecord, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, matching.ErrProfileNotFound
	}

	conn, err := s.acquire(ctx, "list matches")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT run_id::text, user_id::text, job_posting_id::text, score, rationale, created_at
		 FROM job_matches
		 WHERE user_id = $1
		 ORDER BY created_at DESC, run_id, score DESC, id`,
		id.String(),
	)
	if err != nil {
		return nil, unavailable("list matches", err)
	}
	defer rows.Close()

	matches := []matching.MatchRecord{}
	for rows.Next() {
		var (
			r     matching.MatchRecord
			runID string
		)
		if err := rows.Scan(&runID, &r.UserID, &r.JobID, &r.Score, &r.Rationale, &r.CreatedAt); err != nil {
			return nil, unavailable("scan match", err)
		}
		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, unavailable("parse run id", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list matches", err)
	}

	return matches, nil
}
