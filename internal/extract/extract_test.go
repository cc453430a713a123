package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nbaStatsPayload = `{
  "resource": "scoreboardv2",
  "parameters": {"GameDate": "2024-01-15"},
  "resultSets": [
    {
      "name": "GameHeader",
      "headers": ["GAME_ID", "GAME_STATUS_ID", "HOME_TEAM_ID", "VISITOR_TEAM_ID"],
      "rowSet": [
        ["0022300123", 3, 1610612738, 1610612747],
        ["0022300124", "3", 1610612744, 1610612756]
      ]
    },
    {
      "name": "LineScore",
      "headers": ["GAME_ID", "TEAM_ABBREVIATION", "PTS"],
      "rowSet": [["0022300123", "BOS", 120]]
    }
  ]
}`

func TestNBAStats(t *testing.T) {
	tables, err := NBAStats([]byte(nbaStatsPayload))
	require.NoError(t, err)
	require.Len(t, tables.Sets, 2)

	headers := tables.Set("GameHeader")
	require.Len(t, headers, 2)
	assert.Equal(t, "0022300123", headers[0]["GAME_ID"])
	// Mixed types in the same column across rows survive extraction
	// untouched; preprocess owns the cleanup.
	assert.Equal(t, float64(3), headers[0]["GAME_STATUS_ID"])
	assert.Equal(t, "3", headers[1]["GAME_STATUS_ID"])

	line := tables.Set("LineScore")
	require.Len(t, line, 1)
	assert.Equal(t, "BOS", line[0]["TEAM_ABBREVIATION"])
}

func TestNBAStats_SingularResultSet(t *testing.T) {
	payload := `{"resultSet": {"name": "PlayByPlay", "headers": ["EVENTNUM"], "rowSet": [[17]]}}`
	tables, err := NBAStats([]byte(payload))
	require.NoError(t, err)
	require.Len(t, tables.Set("PlayByPlay"), 1)
}

func TestNBAStats_RowHeaderMismatch(t *testing.T) {
	payload := `{"resultSets": [{"name": "X", "headers": ["A", "B"], "rowSet": [[1]]}]}`
	_, err := NBAStats([]byte(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values for 2 headers")
}

func TestNBAStats_Empty(t *testing.T) {
	_, err := NBAStats([]byte(`{"resource": "x"}`))
	assert.Error(t, err)
}

const brefPayload = `<html><body>
<table id="line_score">
  <thead><tr><th data-stat="team">Team</th><th data-stat="T">Total</th></tr></thead>
  <tbody>
    <tr><th data-stat="team"><a href="/teams/LAL/2024.html">LAL</a></th><td data-stat="T">112</td></tr>
    <tr><th data-stat="team"><a href="/teams/BOS/2024.html">BOS</a></th><td data-stat="T">120</td></tr>
  </tbody>
</table>
<!--
<table id="box-BOS-game-basic">
  <tbody>
    <tr><th data-stat="player" data-append-csv="tatumja01">Jayson Tatum</th><td data-stat="pts">30</td></tr>
  </tbody>
</table>
-->
</body></html>`

func TestBRef(t *testing.T) {
	tables, err := BRef([]byte(brefPayload))
	require.NoError(t, err)

	line := tables.Set("line_score")
	require.Len(t, line, 2)
	assert.Equal(t, "LAL", line[0]["TEAM"])
	assert.Equal(t, "112", line[0]["T"])

	// Comment-wrapped tables are unwrapped and extracted like any other.
	box := tables.Set("box-BOS-game-basic")
	require.Len(t, box, 1)
	assert.Equal(t, "Jayson Tatum", box[0]["PLAYER"])
	assert.Equal(t, "tatumja01", box[0]["PLAYER_ID"])
	assert.Equal(t, "30", box[0]["PTS"])
}

func TestBRef_NoTables(t *testing.T) {
	_, err := BRef([]byte(`<html><body><p>nothing here</p></body></html>`))
	assert.Error(t, err)
}
