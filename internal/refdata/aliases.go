// Package refdata loads the read-only reference tables: team aliases and
// venue coordinates. Both are loaded once at startup and cached; a missing
// or malformed file is a fatal configuration error.
package refdata

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// TeamAlias is one canonical team entry from team_aliases.yaml.
type TeamAlias struct {
	TeamID   int      `yaml:"id"`
	NBAStats []string `yaml:"nba_stats"`
	BRef     []string `yaml:"bref"`
	General  []string `yaml:"general"`
}

// AliasTable resolves vendor team identifiers to canonical tricodes.
type AliasTable struct {
	teams map[string]TeamAlias // canonical tricode → entry

	// byVendor[vendor][alias] → canonical tricode; vendor "" holds the
	// general aliases plus the canonical tricodes themselves.
	byVendor map[string]map[string]string
	byID     map[int]string
}

// LoadAliases reads team_aliases.yaml.
func LoadAliases(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	var raw map[string]TeamAlias
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("alias file %s contains no teams", path)
	}

	t := &AliasTable{
		teams:    raw,
		byVendor: map[string]map[string]string{"": {}, "nba_stats": {}, "bref": {}},
		byID:     map[int]string{},
	}
	for tricode, entry := range raw {
		canon := strings.ToUpper(tricode)
		t.byVendor[""][canon] = canon
		t.byID[entry.TeamID] = canon
		for _, a := range entry.General {
			t.byVendor[""][strings.ToUpper(a)] = canon
		}
		for _, a := range entry.NBAStats {
			t.byVendor["nba_stats"][strings.ToUpper(a)] = canon
		}
		for _, a := range entry.BRef {
			t.byVendor["bref"][strings.ToUpper(a)] = canon
		}
	}
	return t, nil
}

// Resolve maps a vendor tricode, alias, or numeric team id to the canonical
// tricode. Unknown inputs return an error naming the input; the available
// keys are logged at debug level to make drift diagnosable.
func (t *AliasTable) Resolve(vendor, input string) (string, error) {
	in := strings.ToUpper(strings.TrimSpace(input))
	if in == "" {
		return "", fmt.Errorf("empty team identifier")
	}

	if id, err := strconv.Atoi(in); err == nil {
		if canon, ok := t.byID[id]; ok {
			return canon, nil
		}
		return "", t.unknown(vendor, input)
	}

	if m, ok := t.byVendor[vendor]; ok {
		if canon, ok := m[in]; ok {
			return canon, nil
		}
	}
	if canon, ok := t.byVendor[""][in]; ok {
		return canon, nil
	}
	return "", t.unknown(vendor, input)
}

// ResolveID maps a numeric team id to the canonical tricode.
func (t *AliasTable) ResolveID(id int) (string, error) {
	if canon, ok := t.byID[id]; ok {
		return canon, nil
	}
	return "", t.unknown("", strconv.Itoa(id))
}

// TeamID returns the numeric id for a canonical tricode.
func (t *AliasTable) TeamID(tricode string) (int, bool) {
	entry, ok := t.teams[strings.ToUpper(tricode)]
	return entry.TeamID, ok
}

// Tricodes lists the canonical tricodes in sorted order.
func (t *AliasTable) Tricodes() []string {
	out := make([]string, 0, len(t.teams))
	for tri := range t.teams {
		out = append(out, strings.ToUpper(tri))
	}
	sort.Strings(out)
	return out
}

func (t *AliasTable) unknown(vendor, input string) error {
	log.Debug().
		Str("vendor", vendor).
		Str("input", input).
		Strs("known_tricodes", t.Tricodes()).
		Msg("unknown team identifier")
	return fmt.Errorf("unknown team identifier %q for vendor %q", input, vendor)
}
