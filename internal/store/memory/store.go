// Package memory is an in-process store for profiles, jobs and matches. It backs
// mock mode and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spigell/job-matcher/internal/matching"
)

type user struct {
	profile     matching.Profile
	resumeText  string
	preferences []byte
}

// Store keeps everything in memory behind a single lock.
type Store struct {
	mu sync.RWMutex

	policy  matching.MatchPolicy
	users   map[string]*user
	emails  map[string]string
	jobs    []matching.Job
	jobKeys map[string]struct{}
	matches []matching.MatchRecord
}

// New returns an empty store.
func New(policy matching.MatchPolicy) *Store {
	if policy == "" {
		policy = matching.MatchPolicyAppend
	}
	return &Store{
		policy:  policy,
		users:   make(map[string]*user),
		emails:  make(map[string]string),
		jobKeys: make(map[string]struct{}),
	}
}

// NewSeeded returns a store holding the mock profile and the mock job list.
func NewSeeded(policy matching.MatchPolicy) *Store {
	s := New(policy)

	s.users[MockUserID] = &user{
		profile:     mockProfile.Profile,
		resumeText:  mockProfile.ResumeText,
		preferences: slices.Clone(mockProfile.PreferencesJSON),
	}
	s.emails[mockProfile.Profile.Email] = MockUserID

	for _, job := range mockJobs {
		s.jobs = append(s.jobs, job)
		s.jobKeys[jobKey(job.ID, "mock")] = struct{}{}
	}

	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) GetProfile(_ context.Context, userID string) (*matching.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, matching.ErrProfileNotFound
	}

	return &matching.ProfileRecord{
		Profile:         u.profile,
		ResumeText:      u.resumeText,
		PreferencesJSON: slices.Clone(u.preferences),
	}, nil
}

// CreateUser stores a new user and profile. The email must not be taken.
func (s *Store) CreateUser(_ context.Context, nu matching.NewUser) (string, error) {
	prefs, err := encodePreferences(nu.Preferences)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[nu.Email]; taken {
		return "", fmt.Errorf("%w: %s", matching.ErrDuplicateUser, nu.Email)
	}

	id := uuid.NewString()
	s.users[id] = &user{
		profile:     matching.Profile{UserID: id, Email: nu.Email, FirstName: nu.FirstName, LastName: nu.LastName},
		resumeText:  nu.ResumeText,
		preferences: prefs,
	}
	s.emails[nu.Email] = id

	return id, nil
}

// UpsertProfile creates or updates the user with the given email. Empty names keep
// the stored ones; resume and preferences are always replaced.
func (s *Store) UpsertProfile(_ context.Context, nu matching.NewUser) (string, error) {
	prefs, err := encodePreferences(nu.Preferences)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[nu.Email]
	if !ok {
		id = uuid.NewString()
		s.emails[nu.Email] = id
		s.users[id] = &user{profile: matching.Profile{UserID: id, Email: nu.Email}}
	}

	u := s.users[id]
	if nu.FirstName != "" {
		u.profile.FirstName = nu.FirstName
	}
	if nu.LastName != "" {
		u.profile.LastName = nu.LastName
	}
	u.resumeText = nu.ResumeText
	u.preferences = prefs

	return id, nil
}

func (s *Store) ListJobs(context.Context) ([]matching.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.jobs), nil
}

// SaveJobs ingests postings, skipping those already known by external id and
// source. It returns how many were inserted.
func (s *Store) SaveJobs(_ context.Context, postings []matching.Posting) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, p := range postings {
		key := jobKey(p.ExternalID, p.Source)
		if _, seen := s.jobKeys[key]; seen {
			continue
		}
		s.jobKeys[key] = struct{}{}
		s.jobs = append(s.jobs, matching.Job{
			ID:          uuid.NewString(),
			Title:       p.Title,
			Company:     p.Company,
			Location:    p.Location,
			Description: p.Description,
			URL:         p.URL,
			Category:    p.Category,
		})
		inserted++
	}

	return inserted, nil
}

func (s *Store) InsertMatches(_ context.Context, records []matching.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == matching.MatchPolicyUpsert {
		replaced := make(map[string]struct{}, len(records))
		for _, r := range records {
			replaced[matchKey(r.UserID, r.JobID)] = struct{}{}
		}
		s.matches = slices.DeleteFunc(s.matches, func(r matching.MatchRecord) bool {
			_, ok := replaced[matchKey(r.UserID, r.JobID)]
			return ok
		})
	}

	s.matches = append(s.matches, records...)
	return nil
}

// ListMatches returns the stored matches of userID, newest run first. Within a
// run records keep the order they were inserted in.
func (s *Store) ListMatches(_ context.Context, userID string) ([]matching.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs [][]matching.MatchRecord
	position := make(map[uuid.UUID]int)
	for _, r := range s.matches {
		if r.UserID != userID {
			continue
		}
		i, ok := position[r.RunID]
		if !ok {
			i = len(runs)
			position[r.RunID] = i
			runs = append(runs, nil)
		}
		runs[i] = append(runs[i], r)
	}

	out := make([]matching.MatchRecord, 0, len(s.matches))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i]...)
	}
	return out, nil
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

func jobKey(externalID, source string) string {
	return strings.Join([]string{source, externalID}, "\x00")
}

func matchKey(userID, jobID string) string {
	return userID + "\x00" + jobID
}
