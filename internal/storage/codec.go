package storage

import (
	"encoding/json"
	"errors"

	"micronas/internal/model"
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeState(s model.SearchState) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeState(data []byte) (model.SearchState, error) {
	var state model.SearchState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.SearchState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.SearchState{}, err
	}
	return state, nil
}

func EncodeHistory(history []model.RoundRecord) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeHistory(data []byte) ([]model.RoundRecord, error) {
	var history []model.RoundRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeIndividual(ind model.Individual) ([]byte, error) {
	return json.Marshal(ind)
}

func DecodeIndividual(data []byte) (model.Individual, error) {
	var ind model.Individual
	if err := json.Unmarshal(data, &ind); err != nil {
		return model.Individual{}, err
	}
	return ind, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != model.SchemaVersion || v.CodecVersion != model.CodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
