package service

import (
	"context"
	"database/sql"
	"fmt"

	"arena-ladder/internal/constants"
	"arena-ladder/internal/domain"
	"arena-ladder/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PlayerService exposes directory CRUD. Any mutation that can change the
// relative point order of active players (create, delete, a points edit, a
// retirement flip) triggers a full rank sweep inside the same transaction.
type PlayerService struct {
	db      *sql.DB
	players *repository.PlayerRepository
	history *repository.RankHistoryRepository
	ranker  *Reranker
	logger  zerolog.Logger
}

func NewPlayerService(
	db *sql.DB,
	players *repository.PlayerRepository,
	history *repository.RankHistoryRepository,
	ranker *Reranker,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		db:      db,
		players: players,
		history: history,
		ranker:  ranker,
		logger:  logger,
	}
}

// Directory is the public leaderboard payload: active players in rank order
// and the hall of fame of retired players.
type Directory struct {
	Active  []*domain.Player `json:"active"`
	Retired []*domain.Player `json:"retired"`
}

// PlayerPatch carries a partial admin edit; nil fields stay untouched.
type PlayerPatch struct {
	Name               *string `json:"name"`
	Points             *int    `json:"points"`
	IsRetired          *bool   `json:"is_retired"`
	Wins               *int    `json:"wins"`
	Losses             *int    `json:"losses"`
	WinStreak          *int    `json:"win_streak"`
	Kills              *int    `json:"kills"`
	TeamChampionships  *int    `json:"team_championships"`
	EventChampionships *int    `json:"event_championships"`
}

func (s *PlayerService) List(ctx context.Context) (*Directory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var dir Directory
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		dir.Active, err = s.players.ListActive(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		dir.Retired, err = s.players.ListRetired(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to list players")
		return nil, classify(err)
	}

	for _, p := range dir.Active {
		p.Decorate()
	}
	for _, p := range dir.Retired {
		p.Decorate()
	}
	return &dir, nil
}

func (s *PlayerService) Get(ctx context.Context, id int64) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	p, err := s.players.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	p.Decorate()
	return p, nil
}

// Create inserts a new player at the end of the active list, then sweeps, so
// an explicit starting points value slots the newcomer into the right rank.
func (s *PlayerService) Create(ctx context.Context, name string, points int) (*domain.Player, error) {
	name = domain.CleanName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.ranker.mu.Lock()
	defer s.ranker.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)

	active, err := players.ListActive(ctx)
	if err != nil {
		return nil, classify(err)
	}

	p := &domain.Player{
		Rank:   len(active) + 1,
		Name:   name,
		Points: points,
	}
	if points > 0 {
		p.PeakPoints = points
	}
	if err := players.Create(ctx, p); err != nil {
		return nil, classify(err)
	}

	if _, err := s.ranker.sweep(ctx, players); err != nil {
		return nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit player create: %w", err))
	}

	s.logger.Info().Int64("player_id", p.ID).Str("name", p.Name).Msg("player created")

	created, err := s.players.GetByID(ctx, p.ID)
	if err != nil {
		return nil, classify(err)
	}
	created.Decorate()
	return created, nil
}

// Update applies a partial edit. The sweep runs only when the edit can move
// the active ordering: a points change or a retirement flip.
func (s *PlayerService) Update(ctx context.Context, id int64, patch *PlayerPatch) (*domain.Player, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	needsSweep := patch.Points != nil || patch.IsRetired != nil

	s.ranker.mu.Lock()
	defer s.ranker.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)

	p, err := players.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	applyPatch(p, patch)
	// Peak points is a high-water mark: a direct points edit can raise it but
	// never lowers it.
	if p.Points > p.PeakPoints {
		p.PeakPoints = p.Points
	}

	if err := players.Update(ctx, p); err != nil {
		return nil, classify(err)
	}

	if needsSweep {
		if _, err := s.ranker.sweep(ctx, players); err != nil {
			return nil, classify(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit player update: %w", err))
	}

	s.logger.Info().Int64("player_id", id).Bool("swept", needsSweep).Msg("player updated")

	updated, err := s.players.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	updated.Decorate()
	return updated, nil
}

// Delete removes the row and re-ranks the remaining active players. The
// returned bool reports whether a row was actually removed.
func (s *PlayerService) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.ranker.mu.Lock()
	defer s.ranker.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)

	deleted, err := players.Delete(ctx, id)
	if err != nil {
		return false, classify(err)
	}
	if deleted {
		if _, err := s.ranker.sweep(ctx, players); err != nil {
			return false, classify(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, classify(fmt.Errorf("failed to commit player delete: %w", err))
	}

	s.logger.Info().Int64("player_id", id).Bool("deleted", deleted).Msg("player delete processed")
	return deleted, nil
}

// Rerank forces a full sweep independent of any mutation. Maintenance and
// repair endpoint.
func (s *PlayerService) Rerank(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.ranker.mu.Lock()
	defer s.ranker.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := s.ranker.sweep(ctx, s.players.WithTx(tx)); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit rerank: %w", err))
	}

	s.logger.Info().Msg("forced rank sweep completed")
	return nil
}

// History returns the player's most recent rank/points records, newest first.
func (s *PlayerService) History(ctx context.Context, id int64) ([]domain.RankHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.players.GetByID(ctx, id); err != nil {
		return nil, classify(err)
	}
	records, err := s.history.ListByPlayer(ctx, id, constants.RankHistoryLimit)
	if err != nil {
		return nil, classify(err)
	}
	return records, nil
}

func validatePatch(patch *PlayerPatch) error {
	if patch == nil {
		return fmt.Errorf("%w: empty update", domain.ErrValidation)
	}
	if patch.Name != nil && domain.CleanName(*patch.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", domain.ErrValidation)
	}
	counters := map[string]*int{
		"wins":                patch.Wins,
		"losses":              patch.Losses,
		"win_streak":          patch.WinStreak,
		"kills":               patch.Kills,
		"team_championships":  patch.TeamChampionships,
		"event_championships": patch.EventChampionships,
	}
	for field, v := range counters {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must be non-negative", domain.ErrValidation, field)
		}
	}
	return nil
}

func applyPatch(p *domain.Player, patch *PlayerPatch) {
	if patch.Name != nil {
		p.Name = domain.CleanName(*patch.Name)
	}
	if patch.Points != nil {
		p.Points = *patch.Points
	}
	if patch.IsRetired != nil {
		p.IsRetired = *patch.IsRetired
	}
	if patch.Wins != nil {
		p.Wins = *patch.Wins
	}
	if patch.Losses != nil {
		p.Losses = *patch.Losses
	}
	if patch.WinStreak != nil {
		p.WinStreak = *patch.WinStreak
	}
	if patch.Kills != nil {
		p.Kills = *patch.Kills
	}
	if patch.TeamChampionships != nil {
		p.TeamChampionships = *patch.TeamChampionships
	}
	if patch.EventChampionships != nil {
		p.EventChampionships = *patch.EventChampionships
	}
}
