package store

import (
	"encoding/json"
	"fmt"

	"clementus360/behavior-intel/types"
)

func (s *Supabase) InsertExperiment(exp types.ValidationExperiment) (types.ValidationExperiment, error) {
	inserted := []types.ValidationExperiment{exp}

	resp, _, err := s.client.From(TableExperiments).Insert(inserted, false, "", "", "").Execute()
	if err != nil {
		return types.ValidationExperiment{}, storeErr("insert experiment", err)
	}

	if err := json.Unmarshal(resp, &inserted); err != nil {
		return types.ValidationExperiment{}, storeErr("insert experiment", err)
	}
	if len(inserted) == 0 {
		return types.ValidationExperiment{}, storeErr("insert experiment", fmt.Errorf("no row returned"))
	}

	return inserted[0], nil
}

func (s *Supabase) Experiment(id string) (types.ValidationExperiment, error) {
	resp, _, err := s.client.From(TableExperiments).
		Select("*", "", false).
		Eq("id", id).
		Execute()

	if err != nil {
		return types.ValidationExperiment{}, storeErr("fetch experiment", err)
	}

	var exps []types.ValidationExperiment
	if err := json.Unmarshal(resp, &exps); err != nil {
		return types.ValidationExperiment{}, storeErr("fetch experiment", err)
	}
	if len(exps) == 0 {
		return types.ValidationExperiment{}, fmt.Errorf("experiment %s: %w", id, types.ErrNotFound)
	}

	return exps[0], nil
}

func (s *Supabase) UpdateExperiment(id string, patch map[string]interface{}) error {
	_, _, err := s.client.From(TableExperiments).
		Update(patch, "", "").
		Eq("id", id).
		Execute()

	if err != nil {
		return storeErr("update experiment", err)
	}

	return nil
}

func (s *Supabase) RunningExperiments() ([]types.ValidationExperiment, error) {
	resp, _, err := s.client.From(TableExperiments).
		Select("*", "", false).
		Eq("status", types.ExperimentRunning).
		Execute()

	if err != nil {
		return nil, storeErr("query running experiments", err)
	}

	var exps []types.ValidationExperiment
	if err := json.Unmarshal(resp, &exps); err != nil {
		return nil, storeErr("query running experiments", err)
	}

	return exps, nil
}
