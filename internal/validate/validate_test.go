package validate

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockValidator(t *testing.T) (*Validator, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestFilterGameIDs(t *testing.T) {
	v, mock := mockValidator(t)

	mock.ExpectQuery("SELECT game_id FROM games WHERE game_id IN").
		WithArgs("0022300123", "0022300999").
		WillReturnRows(sqlmock.NewRows([]string{"game_id"}).AddRow("0022300123"))

	keep, warnings, err := v.FilterGameIDs(context.Background(), []string{"0022300123", "0022300999"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0022300123"}, keep)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "0022300999")
}

func TestFilterGameIDs_Empty(t *testing.T) {
	v, _ := mockValidator(t)
	keep, warnings, err := v.FilterGameIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, keep)
	assert.Nil(t, warnings)
}

func TestFreshness_Stale(t *testing.T) {
	v, mock := mockValidator(t)

	stale := time.Now().Add(-72 * time.Hour)
	mock.ExpectQuery(`SELECT MAX\(ingested_at_utc\) FROM games`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(stale))

	res, err := v.Freshness(context.Background(), time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.False(t, res.Passed)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0].Detail, "older than")
}

func TestUniqueness_DuplicateReferee(t *testing.T) {
	v, mock := mockValidator(t)

	mock.ExpectQuery("SELECT bref_game_id FROM game_id_crosswalk").
		WillReturnRows(sqlmock.NewRows([]string{"bref_game_id"}))
	mock.ExpectQuery("SELECT game_id, referee_slug FROM referee_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"game_id", "referee_slug"}).
			AddRow("0022300123", "tony-brothers"))

	res, err := v.Uniqueness(context.Background(), time.Now())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "0022300123/tony-brothers", res.Issues[0].Key)
}
