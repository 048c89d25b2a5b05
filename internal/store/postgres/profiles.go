package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spigell/job-matcher/internal/matching"
)

const uniqueViolation = "23505"

// GetProfile returns the joined user and profile row of userID. Ids that are not
// UUIDs cannot exist and are reported as not found.
func (s *Store) GetProfile(ctx context.Context, userID string) (*matching.ProfileRecord, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, matching.ErrProfileNotFound
	}

	conn, err := s.acquire(ctx, "get profile")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var record matching.ProfileRecord
	err = conn.QueryRow(ctx,
		`SELECT u.id::text, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
		        COALESCE(p.resume_text, ''), p.preferences_json
		 FROM users u
		 JOIN profiles p ON p.user_id = u.id
		 WHERE u.id = $1`,
		id.String(),
	).Scan(
		&record.Profile.UserID,
		&record.Profile.Email,
		&record.Profile.FirstName,
		&record.Profile.LastName,
		&record.ResumeText,
		&record.PreferencesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matching.ErrProfileNotFound
		}
		return nil, unavailable("get profile", err)
	}

	return &record, nil
}

// CreateUser inserts a user and its profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, nu matching.NewUser) (string, error) {
	prefs, err := encodePreferences(nu.Preferences)
	if err != nil {
		return "", err
	}

	var userID string
	err = s.inTx(ctx, "create user", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name)
			 VALUES ($1, $2, $3)
			 RETURNING id::text`,
			nu.Email, nu.FirstName, nu.LastName,
		).Scan(&userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", matching.ErrDuplicateUser, nu.Email)
			}
			return unavailable("insert user", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (user_id, resume_text, preferences_json)
			 VALUES ($1::uuid, $2, $3::jsonb)`,
			userID, nu.ResumeText, string(prefs),
		); err != nil {
			return unavailable("insert profile", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

// UpsertProfile creates or updates the user with the given email and replaces its
// profile. Empty names keep the stored ones.
func (s *Store) UpsertProfile(ctx context.Context, nu matching.NewUser) (string, error) {
	prefs, err := encodePreferences(nu.Preferences)
	if err != nil {
		return "", err
	}

	var userID string
	err = s.inTx(ctx, "upsert profile", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
			 ON CONFLICT (email) DO UPDATE
			   SET first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			       last_name  = COALESCE(EXCLUDED.last_name, users.last_name)
			 RETURNING id::text`,
			nu.Email, nu.FirstName, nu.LastName,
		).Scan(&userID)
		if err != nil {
			return unavailable("upsert user", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (user_id, resume_text, preferences_json)
			 VALUES ($1::uuid, $2, $3::jsonb)
			 ON CONFLICT (user_id) DO UPDATE
			   SET resume_text = EXCLUDED.resume_text,
			       preferences_json = EXCLUDED.preferences_json`,
			userID, nu.ResumeText, string(prefs),
		); err != nil {
			return unavailable("upsert profile", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

func encodePreferences(prefs map[string]any) ([]byte, error) {
	if prefs == nil {
		prefs = map[string]any{}
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return raw, nil
}
