package storage

import (
	"encoding/json"
	"errors"

	"curricula/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeScoringRun(r model.ScoringRun) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeScoringRun(data []byte) (model.ScoringRun, error) {
	var run model.ScoringRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.ScoringRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.ScoringRun{}, err
	}
	return run, nil
}

func EncodeScores(records []model.ScoreRecord) ([]byte, error) {
	return json.Marshal(records)
}

func DecodeScores(data []byte) ([]model.ScoreRecord, error) {
	var records []model.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := checkVersion(record.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
