package store

import (
	"encoding/json"
	"fmt"
	"time"

	"clementus360/behavior-intel/types"
)

func (s *Supabase) Profile(userID string) (types.UserIntelligenceProfile, error) {
	resp, _, err := s.client.From(TableProfiles).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()

	if err != nil {
		return types.UserIntelligenceProfile{}, storeErr("fetch profile", err)
	}

	var profiles []types.UserIntelligenceProfile
	if err := json.Unmarshal(resp, &profiles); err != nil {
		return types.UserIntelligenceProfile{}, storeErr("fetch profile", err)
	}
	if len(profiles) == 0 {
		return types.UserIntelligenceProfile{}, fmt.Errorf("profile %s: %w", userID, types.ErrNotFound)
	}

	return profiles[0], nil
}

// UpsertProfile writes the whole recomputed row keyed by user_id. Callers
// recompute every derived field first, so concurrent upserts stay safe.
func (s *Supabase) UpsertProfile(profile types.UserIntelligenceProfile) error {
	profile.UpdatedAt = time.Now()

	_, _, err := s.client.From(TableProfiles).
		Upsert(profile, "user_id", "", "").
		Execute()

	if err != nil {
		return storeErr("upsert profile", err)
	}

	return nil
}

func (s *Supabase) AppendImprovementLog(entry types.ImprovementLogEntry) error {
	_, _, err := s.client.From(TableImprovementLog).Insert(entry, false, "", "", "").Execute()
	if err != nil {
		return storeErr("append improvement log", err)
	}

	return nil
}
