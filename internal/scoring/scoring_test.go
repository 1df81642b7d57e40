package scoring

import (
	"testing"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPlayerGame(rounds ...models.Round) models.Game {
	return models.Game{
		ID:      "g1",
		Players: []models.Player{{ID: "a", Name: "Amy"}, {ID: "b", Name: "Bo"}},
		Rounds:  rounds,
	}
}

func TestPlayerTotalSumsRoundsAndTreatsMissingAsZero(t *testing.T) {
	rounds := []models.Round{
		{ID: "r1", Scores: map[string]int{"a": 30, "b": 10}},
		{ID: "r2", Scores: map[string]int{"b": 50}},
		{ID: "r3", Scores: map[string]int{"a": -5}},
	}
	assert.Equal(t, 25, PlayerTotal(rounds, "a"))
	assert.Equal(t, 60, PlayerTotal(rounds, "b"))
	assert.Equal(t, 0, PlayerTotal(nil, "a"))
}

func TestTotalsEmptyRounds(t *testing.T) {
	totals, err := Totals(twoPlayerGame())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, totals)
}

func TestTotalsRejectsUnknownPlayer(t *testing.T) {
	g := twoPlayerGame(models.Round{ID: "r1", Scores: map[string]int{"a": 1, "zed": 4}})
	_, err := Totals(g)
	require.ErrorIs(t, err, ErrUnknownPlayer)
	assert.Contains(t, err.Error(), "zed")
}

func TestWinnerTieGoesToFirstSeat(t *testing.T) {
	g := twoPlayerGame(models.Round{ID: "r1", Scores: map[string]int{"a": 10, "b": 10}})
	w, ok, err := Winner(g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", w.ID)
}

func TestWinnerHighestTotal(t *testing.T) {
	g := twoPlayerGame(
		models.Round{ID: "r1", Scores: map[string]int{"a": 30, "b": 10}},
		models.Round{ID: "r2", Scores: map[string]int{"a": 5, "b": 50}},
	)
	w, ok, err := Winner(g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bo", w.Name)
}

func TestWinnerNoPlayers(t *testing.T) {
	_, ok, err := Winner(models.Game{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWinnerWithNegativeTotals(t *testing.T) {
	g := twoPlayerGame(models.Round{ID: "r1", Scores: map[string]int{"a": -20, "b": -5}})
	w, _, err := Winner(g)
	require.NoError(t, err)
	assert.Equal(t, "b", w.ID)
}

func TestStandingsOrder(t *testing.T) {
	g := models.Game{
		Players: []models.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Rounds:  []models.Round{{ID: "r1", Scores: map[string]int{"a": 5, "b": 9, "c": 5}}},
	}
	s, err := Standings(g)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{s[0].Player.ID, s[1].Player.ID, s[2].Player.ID})
}
