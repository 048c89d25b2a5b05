package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

// StageLoadProfile is the name of the profile loading stage.
const StageLoadProfile = "load_profile"

// LoadProfile fetches the profile of userID.
func LoadProfile(ctx context.Context, store ProfileStore, userID string) (*matching.ProfileRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, matching.ErrMissingUserID
	}

	record, err := store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if record == nil {
		return nil, matching.ErrProfileNotFound
	}

	return record, nil
}

type loadProfileStage struct {
	toggle
	store  ProfileStore
	logger *zap.Logger
}

// NewLoadProfile creates the stage that loads the user's profile, resume and preferences.
func NewLoadProfile(store ProfileStore, logger *zap.Logger) Stage {
	return &loadProfileStage{store: store, logger: logger}
}

func (s *loadProfileStage) Name() string { return StageLoadProfile }

func (s *loadProfileStage) Apply(ctx context.Context, pc *Context) (Step, error) {
	record, err := LoadProfile(ctx, s.store, pc.UserID)
	if err != nil {
		return Step{}, err
	}

	prefs, err := matching.ParsePreferences(record.PreferencesJSON)
	if err != nil {
		return Step{}, err
	}

	pc.Profile = mo.Some(record.Profile)
	pc.ResumeText = mo.Some(record.ResumeText)
	pc.Preferences = mo.Some(prefs)

	s.logger.Debug("profile loaded",
		zap.Int("resume_length", len(record.ResumeText)),
		zap.Bool("has_preferences", !prefs.IsEmpty()),
	)

	return Step{Initial: 1, Left: 1}, nil
}

func (s *loadProfileStage) Status() Status {
	return s.status(s.Name(), nil)
}
