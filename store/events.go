package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"clementus360/behavior-intel/types"
)

func (s *Supabase) InsertEvent(event types.InteractionEvent) (types.InteractionEvent, error) {
	inserted := []types.InteractionEvent{event}

	resp, _, err := s.client.From(TableEvents).Insert(inserted, false, "", "", "").Execute()
	if err != nil {
		return types.InteractionEvent{}, storeErr("insert event", err)
	}

	if err := json.Unmarshal(resp, &inserted); err != nil {
		return types.InteractionEvent{}, storeErr("insert event", err)
	}
	if len(inserted) == 0 {
		return types.InteractionEvent{}, storeErr("insert event", fmt.Errorf("no row returned"))
	}

	return inserted[0], nil
}

// UnprocessedEvents returns the oldest processed=false rows, the batch
// processor's unit of work. Already-processed events never reappear here.
func (s *Supabase) UnprocessedEvents(limit int) ([]types.InteractionEvent, error) {
	resp, _, err := s.client.From(TableEvents).
		Select("*", "", false).
		Eq("processed", "false").
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(limit, "").
		Execute()

	if err != nil {
		return nil, storeErr("query unprocessed events", err)
	}

	var events []types.InteractionEvent
	if err := json.Unmarshal(resp, &events); err != nil {
		return nil, storeErr("query unprocessed events", err)
	}

	return events, nil
}

func (s *Supabase) CountUnprocessedEvents() (int, error) {
	_, count, err := s.client.From(TableEvents).
		Select("id", "exact", false).
		Eq("processed", "false").
		Limit(1, "").
		Execute()

	if err != nil {
		return 0, storeErr("count unprocessed events", err)
	}

	return int(count), nil
}

// MarkEventProcessed flips the processed flag and attaches the result
// payload. The processed=false guard makes the write a no-op for rows a
// concurrent pass already claimed.
func (s *Supabase) MarkEventProcessed(eventID string, result types.ProcessingResult) error {
	patch := map[string]interface{}{
		"processed":         true,
		"processing_result": result,
	}

	_, _, err := s.client.From(TableEvents).
		Update(patch, "", "").
		Eq("id", eventID).
		Eq("processed", "false").
		Execute()

	if err != nil {
		return storeErr("mark event processed", err)
	}

	return nil
}

// EventsSince returns events in the lookback window, newest first. An empty
// userID returns all users' events.
func (s *Supabase) EventsSince(userID string, since time.Time, limit int) ([]types.InteractionEvent, error) {
	query := s.client.From(TableEvents).
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
		return nil, storeErr("query events", err)
	}

	var events []types.InteractionEvent
	if err := json.Unmarshal(resp, &events); err != nil {
		return nil, storeErr("query events", err)
	}

	return events, nil
}

func (s *Supabase) EventsByKind(kind string, since time.Time, limit int) ([]types.InteractionEvent, error) {
	resp, _, err := s.client.From(TableEvents).
		Select("*", "", false).
		Eq("interaction_kind", kind).
		Gte("created_at", since.Format(time.RFC3339)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()

	if err != nil {
		return nil, storeErr("query events by kind", err)
	}

	var events []types.InteractionEvent
	if err := json.Unmarshal(resp, &events); err != nil {
		return nil, storeErr("query events by kind", err)
	}

	return events, nil
}
