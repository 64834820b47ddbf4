package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arena-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	q      DBTX
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		q:      sqlDB,
		logger: logger,
	}
}

// WithTx returns a copy of the repository that runs every query on tx.
func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{db: r.db, q: tx, logger: r.logger}
}

const playerColumns = `id, rank, name, points, recent_matches, is_retired, peak_points,
	wins, losses, win_streak, kills, team_championships, event_championships,
	created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(
		&p.ID, &p.Rank, &p.Name, &p.Points, &p.RecentMatches, &p.IsRetired,
		&p.PeakPoints, &p.Wins, &p.Losses, &p.WinStreak, &p.Kills,
		&p.TeamChampionships, &p.EventChampionships, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO players (rank, name, points, recent_matches, is_retired, peak_points,
			wins, losses, win_streak, kills, team_championships, event_championships,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Rank, p.Name, p.Points, p.RecentMatches, p.IsRetired, p.PeakPoints,
		p.Wins, p.Losses, p.WinStreak, p.Kills, p.TeamChampionships,
		p.EventChampionships, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted player id: %w", err)
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return p, nil
}

// Update rewrites every mutable column of the row.
func (r *PlayerRepository) Update(ctx context.Context, p *domain.Player) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE players SET rank = ?, name = ?, points = ?, recent_matches = ?,
			is_retired = ?, peak_points = ?, wins = ?, losses = ?, win_streak = ?,
			kills = ?, team_championships = ?, event_championships = ?, updated_at = ?
		WHERE id = ?`,
		p.Rank, p.Name, p.Points, p.RecentMatches, p.IsRetired, p.PeakPoints,
		p.Wins, p.Losses, p.WinStreak, p.Kills, p.TeamChampionships,
		p.EventChampionships, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("player %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListActive returns the non-retired players in their current rank order.
func (r *PlayerRepository) ListActive(ctx context.Context) ([]*domain.Player, error) {
	return r.list(ctx,
		`SELECT `+playerColumns+` FROM players WHERE is_retired = 0 ORDER BY rank ASC, id ASC`)
}

// ListRetired returns the hall of fame, best peak first.
func (r *PlayerRepository) ListRetired(ctx context.Context) ([]*domain.Player, error) {
	return r.list(ctx,
		`SELECT `+playerColumns+` FROM players WHERE is_retired = 1 ORDER BY peak_points DESC, points DESC, id ASC`)
}

func (r *PlayerRepository) list(ctx context.Context, query string) ([]*domain.Player, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []*domain.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return players, nil
}

// UpdateRanks writes the rank column for every player whose rank moved.
func (r *PlayerRepository) UpdateRanks(ctx context.Context, players []*domain.Player) error {
	now := time.Now().UTC()
	for _, p := range players {
		if _, err := r.q.ExecContext(ctx,
			`UPDATE players SET rank = ?, updated_at = ? WHERE id = ? AND rank <> ?`,
			p.Rank, now, p.ID, p.Rank,
		); err != nil {
			return fmt.Errorf("failed to update rank for player %d: %w", p.ID, err)
		}
	}
	return nil
}
