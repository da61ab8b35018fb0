package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"clementus360/behavior-intel/types"
)

func (s *Supabase) InsertSession(session types.ResearchSession) (types.ResearchSession, error) {
	inserted := []types.ResearchSession{session}

	resp, _, err := s.client.From(TableSessions).Insert(inserted, false, "", "", "").Execute()
	if err != nil {
		return types.ResearchSession{}, storeErr("insert session", err)
	}

	if err := json.Unmarshal(resp, &inserted); err != nil {
		return types.ResearchSession{}, storeErr("insert session", err)
	}
	if len(inserted) == 0 {
		return types.ResearchSession{}, storeErr("insert session", fmt.Errorf("no row returned"))
	}

	return inserted[0], nil
}

// SessionsSince returns sessions created in the window, newest first. An
// empty userID returns sessions across all users.
func (s *Supabase) SessionsSince(userID string, since time.Time, limit int) ([]types.ResearchSession, error) {
	query := s.client.From(TableSessions).
		Select("*", "", false).
		Gte("created_at", since.Format(time.RFC3339))

	if userID != "" {
		query = query.Eq("user_id", userID)
	}

	resp, _, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()

	if err != nil {
		return nil, storeErr("query sessions", err)
	}

	var sessions []types.ResearchSession
	if err := json.Unmarshal(resp, &sessions); err != nil {
		return nil, storeErr("query sessions", err)
	}

	return sessions, nil
}

// SessionsForUsers returns the window's sessions for a fixed user set, used
// for experiment group metrics.
func (s *Supabase) SessionsForUsers(userIDs []string, since time.Time) ([]types.ResearchSession, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	resp, _, err := s.client.From(TableSessions).
		Select("*", "", false).
		In("user_id", userIDs).
		Gte("created_at", since.Format(time.RFC3339)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()

	if err != nil {
		return nil, storeErr("query sessions for users", err)
	}

	var sessions []types.ResearchSession
	if err := json.Unmarshal(resp, &sessions); err != nil {
		return nil, storeErr("query sessions for users", err)
	}

	return sessions, nil
}
