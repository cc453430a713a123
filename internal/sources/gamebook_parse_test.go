package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwire/courtwire/internal/domain"
)

const gamebookText = `OFFICIAL NBA GAME BOOK

Game ID: 0022300123
Los Angeles Lakers at Boston Celtics
TD Garden, Boston, MA

Officials: #22 Tony Brothers (Crew Chief), #41 Marc Davis (Referee), #63 Derek Collins (Umpire)
Alternates: #15 James Hartwell

Technical Fouls: Tatum (Q2 4:31)
`

func TestParseGamebook(t *testing.T) {
	res := ParseGamebook(gamebookText)

	assert.Equal(t, "0022300123", res.GameID)
	assert.Equal(t, "Los Angeles Lakers at Boston Celtics", res.Matchup)
	assert.Contains(t, res.Venue, "TD Garden")

	require.Len(t, res.Officials, 3)
	assert.Equal(t, "Tony Brothers", res.Officials[0].Name)
	assert.Equal(t, 22, res.Officials[0].Number)
	assert.Equal(t, domain.RoleCrewChief, res.Officials[0].Role)
	assert.Equal(t, 1, res.Officials[0].CrewPosition)
	assert.Equal(t, domain.RoleReferee, res.Officials[1].Role)
	assert.Equal(t, domain.RoleUmpire, res.Officials[2].Role)

	require.Len(t, res.Alternates, 1)
	assert.Equal(t, "James Hartwell", res.Alternates[0])

	require.Len(t, res.TechnicalFouls, 1)
	assert.Contains(t, res.TechnicalFouls[0], "Tatum")

	assert.GreaterOrEqual(t, res.Confidence, 0.5)
}

func TestParseGamebook_RolesFromPosition(t *testing.T) {
	text := `Game ID: 0022300200
Officials: #10 Alice Morgan, #20 Brian Oakes, #30 Carl Pruitt
`
	res := ParseGamebook(text)
	require.Len(t, res.Officials, 3)
	assert.Equal(t, domain.RoleCrewChief, res.Officials[0].Role)
	assert.Equal(t, domain.RoleReferee, res.Officials[1].Role)
	assert.Equal(t, domain.RoleUmpire, res.Officials[2].Role)
}

func TestParseGamebook_MissingSections(t *testing.T) {
	res := ParseGamebook("a short scrap of text with no structure")
	assert.Empty(t, res.GameID)
	assert.Empty(t, res.Officials)
	assert.Less(t, res.Confidence, 0.5)
}

func TestParseGamebook_NoneTechnicals(t *testing.T) {
	text := `Game ID: 0022300201
Officials: #10 Alice Morgan
Technical Fouls: NONE
`
	res := ParseGamebook(text)
	assert.Empty(t, res.TechnicalFouls)
}
