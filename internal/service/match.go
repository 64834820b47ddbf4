package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arena-ladder/internal/constants"
	"arena-ladder/internal/database"
	"arena-ladder/internal/domain"
	"arena-ladder/internal/ranking"
	"arena-ladder/internal/repository"

	"github.com/rs/zerolog"
)

// MatchService turns one reported match outcome into a single atomic
// transaction: both players' counters, both directed head-to-head rows, the
// rank-history appends, and the full rank sweep commit together or not at
// all.
type MatchService struct {
	db       *sql.DB
	players  *repository.PlayerRepository
	matchups *repository.MatchupRepository
	history  *repository.RankHistoryRepository
	ranker   *Reranker
	logger   zerolog.Logger
}

func NewMatchService(
	db *sql.DB,
	players *repository.PlayerRepository,
	matchups *repository.MatchupRepository,
	history *repository.RankHistoryRepository,
	ranker *Reranker,
	logger zerolog.Logger,
) *MatchService {
	return &MatchService{
		db:       db,
		players:  players,
		matchups: matchups,
		history:  history,
		ranker:   ranker,
		logger:   logger,
	}
}

// RecordMatch applies one match result. Validation happens before any state
// is touched; both ids must resolve to existing players.
func (s *MatchService) RecordMatch(ctx context.Context, winnerID, loserID int64, winnerKills int) error {
	if winnerKills < 0 {
		return fmt.Errorf("%w: winner kills must be non-negative", domain.ErrValidation)
	}
	if winnerID == loserID {
		return fmt.Errorf("%w: a player cannot play against themselves", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.ranker.mu.Lock()
	defer s.ranker.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)
	matchups := s.matchups.WithTx(tx)
	history := s.history.WithTx(tx)

	winner, err := players.GetByID(ctx, winnerID)
	if err != nil {
		return classify(err)
	}
	loser, err := players.GetByID(ctx, loserID)
	if err != nil {
		return classify(err)
	}

	winnerDelta, loserDelta := ranking.MatchPoints(winner.Rank, loser.Rank, winnerKills)
	playedAt := time.Now().UTC()

	winner.Wins++
	winner.WinStreak++
	winner.Kills += winnerKills
	winner.Points += winnerDelta
	if winner.Points > winner.PeakPoints {
		winner.PeakPoints = winner.Points
	}
	winner.RecentMatches = domain.AppendOutcome(winner.RecentMatches, 'W')

	loser.Losses++
	loser.WinStreak = 0
	loser.Points += loserDelta
	loser.RecentMatches = domain.AppendOutcome(loser.RecentMatches, 'L')

	if err := players.Update(ctx, winner); err != nil {
		return classify(err)
	}
	if err := players.Update(ctx, loser); err != nil {
		return classify(err)
	}

	if err := matchups.RecordResult(ctx, winnerID, loserID, playedAt); err != nil {
		return classify(err)
	}

	ranked, err := s.ranker.sweep(ctx, players)
	if err != nil {
		return classify(err)
	}

	// The sweep may have moved either participant; record post-sweep ranks.
	rankOf := func(p *domain.Player) int {
		for _, rp := range ranked {
			if rp.ID == p.ID {
				return rp.Rank
			}
		}
		return p.Rank
	}

	winnerRec := &domain.RankHistory{
		PlayerID:     winner.ID,
		Outcome:      "W",
		PointsChange: winnerDelta,
		Points:       winner.Points,
		Rank:         rankOf(winner),
		Date:         playedAt,
	}
	loserRec := &domain.RankHistory{
		PlayerID:     loser.ID,
		Outcome:      "L",
		PointsChange: loserDelta,
		Points:       loser.Points,
		Rank:         rankOf(loser),
		Date:         playedAt,
	}
	if err := history.Insert(ctx, winnerRec); err != nil {
		return classify(err)
	}
	if err := history.Insert(ctx, loserRec); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit match: %w", err))
	}

	s.logger.Info().
		Int64("winner_id", winnerID).
		Int64("loser_id", loserID).
		Int("winner_kills", winnerKills).
		Int("winner_delta", winnerDelta).
		Int("loser_delta", loserDelta).
		Msg("match recorded")

	return nil
}

// Matchup returns the directed head-to-head record of player over opponent.
// A pair that never played yields an empty record rather than an error.
func (s *MatchService) Matchup(ctx context.Context, playerID, opponentID int64) (*domain.Matchup, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, classify(err)
	}
	if _, err := s.players.GetByID(ctx, opponentID); err != nil {
		return nil, classify(err)
	}

	m, err := s.matchups.Get(ctx, playerID, opponentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Matchup{PlayerID: playerID, OpponentID: opponentID}, nil
		}
		return nil, classify(err)
	}
	return m, nil
}

// classify folds storage-level contention into the retryable conflict error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if database.IsBusy(err) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}
