package store

import (
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"clementus360/behavior-intel/types"
)

func (s *Supabase) InsertPattern(pattern types.DiscoveredPattern) (types.DiscoveredPattern, error) {
	inserted := []types.DiscoveredPattern{pattern}

	resp, _, err := s.client.From(TablePatterns).Insert(inserted, false, "", "", "").Execute()
	if err != nil {
		return types.DiscoveredPattern{}, storeErr("insert pattern", err)
	}

	if err := json.Unmarshal(resp, &inserted); err != nil {
		return types.DiscoveredPattern{}, storeErr("insert pattern", err)
	}
	if len(inserted) == 0 {
		return types.DiscoveredPattern{}, storeErr("insert pattern", fmt.Errorf("no row returned"))
	}

	return inserted[0], nil
}

func (s *Supabase) Pattern(id string) (types.DiscoveredPattern, error) {
	resp, _, err := s.client.From(TablePatterns).
		Select("*", "", false).
		Eq("id", id).
		Execute()

	if err != nil {
		return types.DiscoveredPattern{}, storeErr("fetch pattern", err)
	}

	var patterns []types.DiscoveredPattern
	if err := json.Unmarshal(resp, &patterns); err != nil {
		return types.DiscoveredPattern{}, storeErr("fetch pattern", err)
	}
	if len(patterns) == 0 {
		return types.DiscoveredPattern{}, fmt.Errorf("pattern %s: %w", id, types.ErrNotFound)
	}

	return patterns[0], nil
}

func (s *Supabase) UpdatePattern(id string, patch map[string]interface{}) error {
	_, _, err := s.client.From(TablePatterns).
		Update(patch, "", "").
		Eq("id", id).
		Execute()

	if err != nil {
		return storeErr("update pattern", err)
	}

	return nil
}

// PatternsByStatus lists patterns in one lifecycle status, strongest first.
// A non-positive limit returns everything.
func (s *Supabase) PatternsByStatus(status string, limit int) ([]types.DiscoveredPattern, error) {
	query := s.client.From(TablePatterns).
		Select("*", "", false).
		Eq("validation_status", status).
		Order("confidence_score", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	resp, _, err := query.Execute()

	if err != nil {
		return nil, storeErr("query patterns by status", err)
	}

	var patterns []types.DiscoveredPattern
	if err := json.Unmarshal(resp, &patterns); err != nil {
		return nil, storeErr("query patterns by status", err)
	}

	return patterns, nil
}

// PatternsForUser returns patterns in the given status whose scope names the
// user or is unrestricted. The server-side filter narrows on the user-id
// dimension; the scope check is re-applied in Go for the rest.
func (s *Supabase) PatternsForUser(userID, status string) ([]types.DiscoveredPattern, error) {
	scopeFilter := fmt.Sprintf(`scope->user_ids.cs.["%s"],scope->user_ids.eq.[],scope->user_ids.is.null`, userID)

	resp, _, err := s.client.From(TablePatterns).
		Select("*", "", false).
		Eq("validation_status", status).
		Or(scopeFilter, "").
		Order("confidence_score", &postgrest.OrderOpts{Ascending: false}).
		Execute()

	if err != nil {
		return nil, storeErr("query patterns for user", err)
	}

	var patterns []types.DiscoveredPattern
	if err := json.Unmarshal(resp, &patterns); err != nil {
		return nil, storeErr("query patterns for user", err)
	}

	applicable := patterns[:0]
	for _, p := range patterns {
		if p.Scope.AppliesTo(userID) {
			applicable = append(applicable, p)
		}
	}

	return applicable, nil
}
