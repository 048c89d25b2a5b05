// Package matching holds the domain types shared by the matching pipeline, its stores and the HTTP layer.
package matching

import (
	"time"

	"github.com/google/uuid"
)

// Job is a single job posting considered for matching.
// ID is the stable join key into ScoredJob and persisted matches.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Category    string `json:"category"`
}

// ScoredJob is a job ranked against a user profile during one pipeline run.
type ScoredJob struct {
	JobID     string  `json:"job_id"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// MatchRecord is the persisted form of a ScoredJob.
type MatchRecord struct {
	RunID     uuid.UUID `json:"run_id"`
	UserID    string    `json:"user_id"`
	JobID     string    `json:"job_id"`
	Score     float64   `json:"score"`
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile carries the identity fields of a user.
type Profile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileRecord is what a profile store returns for a user: identity, resume and the
// preferences document as it was stored.
type ProfileRecord struct {
	Profile         Profile
	ResumeText      string
	PreferencesJSON []byte
}

// NewUser describes a user and profile submitted through the API.
type NewUser struct {
	Email       string
	FirstName   string
	LastName    string
	ResumeText  string
	Preferences map[string]any
}

// Posting is a job posting fetched from an external feed, ready to be ingested.
type Posting struct {
	ExternalID  string
	Source      string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	Category    string
	Raw         []byte
}

// MatchPolicy controls how repeated runs for the same user are persisted.
type MatchPolicy string

const (
	// MatchPolicyAppend keeps every run as an audit trail; repeated runs accumulate rows.
	MatchPolicyAppend MatchPolicy = "append"
	// MatchPolicyUpsert keeps one row per (user, job) pair, replacing older scores.
	MatchPolicyUpsert MatchPolicy = "upsert"
)

// ParseMatchPolicy returns the policy for the given name. Empty means append.
func ParseMatchPolicy(name string) (MatchPolicy, error) {
	switch MatchPolicy(name) {
	case "", MatchPolicyAppend:
		return MatchPolicyAppend, nil
	case MatchPolicyUpsert:
		return MatchPolicyUpsert, nil
	default:
		return "", &UnknownPolicyError{Name: name}
	}
}

// UnknownPolicyError is returned for unsupported match policy names.
type UnknownPolicyError struct {
	Name string
}

func (e *UnknownPolicyError) Error() string {
	return "unknown match policy: " + e.Name
}
