package ranking

import (
	"testing"

	"arena-ladder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPoints(t *testing.T) {
	tests := []struct {
		name        string
		winnerRank  int
		loserRank   int
		winnerKills int
		wantWinner  int
		wantLoser   int
	}{
		{"expected win earns the floor", 1, 30, 5, 1, 0},
		{"adjacent expected win", 2, 3, 7, 1, 0},
		{"equal ranks earn the base reward", 5, 5, 5, 3, 0},
		{"small upset", 4, 1, 9, 2, 0},
		{"mid upset", 10, 1, 4, 4, 0},
		{"huge upset hits the cap", 30, 1, 5, 10, 0},
		{"beyond the cap stays capped", 100, 1, 3, 10, 0},
		{"close loss bonus at threshold", 1, 2, 2, 1, 1},
		{"close loss bonus below threshold", 1, 2, 0, 1, 1},
		{"no bonus above threshold", 1, 2, 3, 1, 0},
		{"close loss bonus on an upset too", 20, 1, 1, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, l := MatchPoints(tt.winnerRank, tt.loserRank, tt.winnerKills)
			assert.Equal(t, tt.wantWinner, w, "winner delta")
			assert.Equal(t, tt.wantLoser, l, "loser delta")
		})
	}
}

func TestMatchPointsUpsetMonotonic(t *testing.T) {
	// For a fixed loser rank, a bigger upset never pays less, and never
	// pays more than the cap.
	prev := 0
	for winnerRank := 2; winnerRank <= 60; winnerRank++ {
		w, _ := MatchPoints(winnerRank, 1, 5)
		assert.GreaterOrEqual(t, w, prev, "winnerRank=%d", winnerRank)
		assert.LessOrEqual(t, w, UpsetCap, "winnerRank=%d", winnerRank)
		prev = w
	}
}

func TestStandingsDenseRanks(t *testing.T) {
	players := []*domain.Player{
		{ID: 1, Points: 50},
		{ID: 2, Points: 120},
		{ID: 3, Points: 50},
		{ID: 4, Points: 200},
		{ID: 5, Points: 0},
	}

	ranked := Standings(players)
	require.Len(t, ranked, 5)

	// dense 1..N
	for i, p := range ranked {
		assert.Equal(t, i+1, p.Rank)
	}

	assert.Equal(t, int64(4), ranked[0].ID)
	assert.Equal(t, int64(2), ranked[1].ID)
	// tie on 50 points breaks by id ascending
	assert.Equal(t, int64(1), ranked[2].ID)
	assert.Equal(t, int64(3), ranked[3].ID)
	assert.Equal(t, int64(5), ranked[4].ID)
}

func TestStandingsEmpty(t *testing.T) {
	assert.Empty(t, Standings(nil))
}

func TestStandingsTiesAreDeterministic(t *testing.T) {
	a := []*domain.Player{{ID: 9, Points: 10}, {ID: 3, Points: 10}, {ID: 7, Points: 10}}
	b := []*domain.Player{{ID: 7, Points: 10}, {ID: 9, Points: 10}, {ID: 3, Points: 10}}

	Standings(a)
	Standings(b)

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID, "position %d", i)
		assert.Equal(t, a[i].Rank, b[i].Rank, "position %d", i)
	}
}
