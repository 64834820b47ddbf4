// Package ranking holds the pure point and rank computations for the ladder.
// Nothing here touches storage; callers are responsible for validating that
// the inputs describe real players.
package ranking

import (
	"sort"

	"arena-ladder/internal/domain"
)

const (
	// UpsetCap is the largest reward a win can earn.
	UpsetCap = 10
	// ExpectedWinPoints is the reward when the better-ranked player wins.
	ExpectedWinPoints = 1
	// EqualRankPoints is the reward for beating a player of the same rank.
	EqualRankPoints = 3
	// CloseLossKills is the kill threshold at or below which the loser still
	// earns a consolation point.
	CloseLossKills = 2
	// CloseLossPoints is that consolation point.
	CloseLossPoints = 1
	// UpsetDivisor scales the rank gap into bonus points on an upset.
	UpsetDivisor = 3
)

// MatchPoints converts a single match outcome into point deltas for both
// participants. Ranks are the dense pre-match ranks on file. The winner's
// reward grows with the size of the upset and is capped; an expected win
// earns the floor. The loser earns a point only for a close loss, judged by
// how many kills the winner reported.
func MatchPoints(winnerRank, loserRank, winnerKills int) (winnerDelta, loserDelta int) {
	d := winnerRank - loserRank
	switch {
	case d < 0:
		winnerDelta = ExpectedWinPoints
	case d > 0:
		winnerDelta = 1 + d/UpsetDivisor
		if winnerDelta > UpsetCap {
			winnerDelta = UpsetCap
		}
	default:
		winnerDelta = EqualRankPoints
	}

	if winnerKills <= CloseLossKills {
		loserDelta = CloseLossPoints
	}
	return winnerDelta, loserDelta
}

// Standings sorts the active player set into rank order and assigns dense
// ranks 1..N in place. Points descending; ties break by id ascending so the
// ordering is deterministic regardless of retrieval order. The input slice
// is reordered and returned.
func Standings(active []*domain.Player) []*domain.Player {
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Points != active[j].Points {
			return active[i].Points > active[j].Points
		}
		return active[i].ID < active[j].ID
	})
	for i, p := range active {
		p.Rank = i + 1
	}
	return active
}
