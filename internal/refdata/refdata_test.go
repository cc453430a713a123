package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

const aliasYAML = `BOS:
  id: 1610612738
  nba_stats: ["BOS", "Boston Celtics"]
  bref: ["BOS"]
  general: ["Celtics"]
LAL:
  id: 1610612747
  nba_stats: ["LAL", "Los Angeles Lakers"]
  bref: ["LAL"]
  general: ["Lakers"]
SAC:
  id: 1610612758
  nba_stats: ["SAC", "Sacramento Kings"]
  bref: ["SAC"]
  general: ["Kings"]
`

const venuesCSV = `team_id,arena_name,tz,lat,lon,altitude_m
1610612738,TD Garden,America/New_York,42.3662,-71.0621,6
1610612747,Crypto.com Arena,America/Los_Angeles,34.0430,-118.2673,89
1610612758,Golden 1 Center,America/Los_Angeles,38.5802,-121.4997,9
`

func writeRefFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	aliasPath := filepath.Join(dir, "team_aliases.yaml")
	venuePath := filepath.Join(dir, "venues.csv")
	if err := os.WriteFile(aliasPath, []byte(aliasYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(venuePath, []byte(venuesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return aliasPath, venuePath
}

func TestAliasTable_Resolve(t *testing.T) {
	aliasPath, _ := writeRefFiles(t)
	table, err := LoadAliases(aliasPath)
	if err != nil {
		t.Fatalf("LoadAliases failed: %v", err)
	}

	cases := []struct {
		vendor, input, want string
	}{
		{"nba_stats", "BOS", "BOS"},
		{"nba_stats", "Boston Celtics", "BOS"},
		{"bref", "LAL", "LAL"},
		{"", "Kings", "SAC"},
		{"", "bos", "BOS"},              // case-insensitive
		{"nba_stats", "1610612747", "LAL"}, // numeric team id as string
	}
	for _, tc := range cases {
		got, err := table.Resolve(tc.vendor, tc.input)
		if err != nil {
			t.Errorf("Resolve(%q, %q) error: %v", tc.vendor, tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tc.vendor, tc.input, got, tc.want)
		}
	}

	if _, err := table.Resolve("nba_stats", "XYZ"); err == nil {
		t.Error("unknown tricode should error")
	}
	if _, err := table.Resolve("", ""); err == nil {
		t.Error("empty input should error")
	}
}

func TestAliasTable_ResolveID(t *testing.T) {
	aliasPath, _ := writeRefFiles(t)
	table, err := LoadAliases(aliasPath)
	if err != nil {
		t.Fatal(err)
	}
	got, err := table.ResolveID(1610612738)
	if err != nil || got != "BOS" {
		t.Errorf("ResolveID = %q, %v", got, err)
	}
	if _, err := table.ResolveID(42); err == nil {
		t.Error("unknown id should error")
	}
}

func TestLoadVenues(t *testing.T) {
	aliasPath, venuePath := writeRefFiles(t)
	aliases, err := LoadAliases(aliasPath)
	if err != nil {
		t.Fatal(err)
	}
	venues, err := LoadVenues(venuePath)
	if err != nil {
		t.Fatalf("LoadVenues failed: %v", err)
	}

	v, ok := venues.ByTricode(aliases, "SAC")
	if !ok {
		t.Fatal("SAC venue should resolve")
	}
	if v.ArenaName != "Golden 1 Center" || v.TZ != "America/Los_Angeles" {
		t.Errorf("unexpected venue %+v", v)
	}
	if _, ok := venues.ByTeamID(99); ok {
		t.Error("unknown team id should miss")
	}
}

func TestLoadVenues_BadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "venues.csv")
	os.WriteFile(p, []byte("team_id,arena_name\n1,too-few-cols\n"), 0o644)
	if _, err := LoadVenues(p); err == nil {
		t.Error("short rows should fail loading")
	}
	if _, err := LoadVenues(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing file should fail loading")
	}
}
