// Package extract turns raw vendor payloads into flat row maps. Extractors
// are shape-only: no coercion, no enum mapping, no I/O. The preprocess
// package owns everything after shape.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/courtwire/courtwire/internal/preprocess"
)

// Tables is the uniform extractor output: named row sets plus the raw payload
// they came from, kept for the optional archive.
type Tables struct {
	Raw  []byte
	Sets map[string][]preprocess.Row
}

// Set returns the rows of one named set, or nil when the vendor omitted it.
func (t *Tables) Set(name string) []preprocess.Row {
	if t == nil {
		return nil
	}
	return t.Sets[name]
}

// nbaStatsEnvelope is the stats.nba.com response wrapper. Some endpoints use
// the plural resultSets array, a few older ones use a single resultSet.
type nbaStatsEnvelope struct {
	Resource   string          `json:"resource"`
	ResultSets []nbaStatsSet   `json:"resultSets"`
	ResultSet  *nbaStatsSet    `json:"resultSet"`
	Parameters json.RawMessage `json:"parameters"`
}

type nbaStatsSet struct {
	Name    string              `json:"name"`
	Headers []string            `json:"headers"`
	RowSet  [][]json.RawMessage `json:"rowSet"`
}

// NBAStats decodes a stats.nba.com envelope into named row sets, zipping each
// set's headers with its rows. Values stay as decoded JSON scalars.
func NBAStats(payload []byte) (*Tables, error) {
	var env nbaStatsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode nba_stats payload: %w", err)
	}
	sets := env.ResultSets
	if len(sets) == 0 && env.ResultSet != nil {
		sets = []nbaStatsSet{*env.ResultSet}
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("nba_stats payload has no result sets")
	}

	out := &Tables{Raw: payload, Sets: make(map[string][]preprocess.Row, len(sets))}
	for _, set := range sets {
		rows := make([]preprocess.Row, 0, len(set.RowSet))
		for _, raw := range set.RowSet {
			if len(raw) != len(set.Headers) {
				return nil, fmt.Errorf("nba_stats set %s: row has %d values for %d headers",
					set.Name, len(raw), len(set.Headers))
			}
			row := make(preprocess.Row, len(set.Headers))
			for i, h := range set.Headers {
				var v any
				if err := json.Unmarshal(raw[i], &v); err != nil {
					return nil, fmt.Errorf("nba_stats set %s column %s: %w", set.Name, h, err)
				}
				row[h] = v
			}
			rows = append(rows, row)
		}
		out.Sets[set.Name] = rows
	}
	return out, nil
}
