package refdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Venue is one arena row from venues.csv.
type Venue struct {
	TeamID    int
	ArenaName string
	TZ        string // IANA zone
	Lat       float64
	Lon       float64
	AltitudeM float64
}

// VenueTable holds venue rows keyed by team id.
type VenueTable struct {
	byTeamID map[int]Venue
}

// LoadVenues reads venues.csv with header
// team_id,arena_name,tz,lat,lon,altitude_m.
func LoadVenues(path string) (*VenueTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open venues file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse venues file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("venues file %s has no data rows", path)
	}

	table := &VenueTable{byTeamID: make(map[int]Venue, len(records)-1)}
	for i, rec := range records[1:] {
		if len(rec) != 6 {
			return nil, fmt.Errorf("venues row %d: want 6 columns, got %d", i+2, len(rec))
		}
		teamID, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("venues row %d: bad team_id %q", i+2, rec[0])
		}
		lat, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("venues row %d: bad lat %q", i+2, rec[3])
		}
		lon, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("venues row %d: bad lon %q", i+2, rec[4])
		}
		alt, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("venues row %d: bad altitude %q", i+2, rec[5])
		}
		table.byTeamID[teamID] = Venue{
			TeamID:    teamID,
			ArenaName: rec[1],
			TZ:        rec[2],
			Lat:       lat,
			Lon:       lon,
			AltitudeM: alt,
		}
	}
	return table, nil
}

// ByTeamID returns the venue for a team id.
func (t *VenueTable) ByTeamID(id int) (Venue, bool) {
	v, ok := t.byTeamID[id]
	return v, ok
}

// ByTricode resolves tricode → team id → venue through the alias table.
func (t *VenueTable) ByTricode(aliases *AliasTable, tricode string) (Venue, bool) {
	id, ok := aliases.TeamID(tricode)
	if !ok {
		return Venue{}, false
	}
	return t.ByTeamID(id)
}
