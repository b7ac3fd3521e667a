package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stembed/internal/canon"
)

// Run is one batch of solves sharing a run ID.
type Run struct {
	ID    string
	Seq   int64
	Label string
}

// SolveRecord is one logged solve.
type SolveRecord struct {
	RunID          string            `json:"run_id"`
	Seq            int64             `json:"seq"`
	RequestFP      string            `json:"request_fp,omitempty"`
	Implementation string            `json:"implementation"`
	Spacetime      string            `json:"spacetime"`
	Theory         string            `json:"theory"`
	Status         string            `json:"status"`
	Witness        map[string]string `json:"witness,omitempty"`
	Expansions     int64             `json:"expansions"`
	Backtracks     int64             `json:"backtracks"`
	TheoryChecks   int64             `json:"theory_checks"`
	ElapsedNS      int64             `json:"elapsed_ns"`
	Reason         string            `json:"reason,omitempty"`

	// Cached marks a row answered from the memo instead of a search.
	Cached bool `json:"cached,omitempty"`
}

// Definitive reports whether the record settles embeddability.
func (r SolveRecord) Definitive() bool {
	return r.Status == "found" || r.Status == "exhausted"
}

// marshalWitness converts a witness to canonical JSON TEXT for storage.
func marshalWitness(w map[string]string) (string, error) {
	obj := make(canon.Object, len(w))
	for k, v := range w {
		obj[k] = canon.String(v)
	}
	data, err := canon.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshal witness: %w", err)
	}
	return string(data), nil
}

// unmarshalWitness parses stored witness JSON. An empty object yields nil
// so a record round-trips to the Result it came from.
func unmarshalWitness(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var w map[string]string
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("unmarshal witness: %w", err)
	}
	return w, nil
}
