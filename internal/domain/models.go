package domain

import (
	"strings"
	"time"
)

// RecentMatchWindow bounds the per-player W/L history string.
const RecentMatchWindow = 10

type Player struct {
	ID                 int64     `json:"id"`
	Rank               int       `json:"rank"`
	Name               string    `json:"name"`
	Points             int       `json:"points"`
	RecentMatches      string    `json:"recent_matches"` // last 10 outcomes, oldest first, e.g. "WWLWL"
	IsRetired          bool      `json:"is_retired"`
	PeakPoints         int       `json:"peak_points"`
	Wins               int       `json:"wins"`
	Losses             int       `json:"losses"`
	WinStreak          int       `json:"win_streak"`
	Kills              int       `json:"kills"`
	TeamChampionships  int       `json:"team_championships"`
	EventChampionships int       `json:"event_championships"`
	Title              string    `json:"title"`
	Badge              string    `json:"badge"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Matchup is one directed head-to-head row: wins/losses of PlayerID against
// OpponentID. The reverse pairing lives in its own row.
type Matchup struct {
	PlayerID      int64     `json:"player_id"`
	OpponentID    int64     `json:"opponent_id"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	LastMatchDate time.Time `json:"last_match_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RankHistory records one player's state right after a recorded match.
type RankHistory struct {
	ID           string    `json:"id"` // nanoid
	PlayerID     int64     `json:"player_id"`
	Outcome      string    `json:"outcome"` // "W" or "L"
	PointsChange int       `json:"points_change"`
	Points       int       `json:"points"`
	Rank         int       `json:"rank"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is an admin-panel account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// AppendOutcome appends a single W/L marker to a recent-match history string,
// dropping the oldest entry once the window is full.
func AppendOutcome(history string, outcome byte) string {
	history += string(outcome)
	if len(history) > RecentMatchWindow {
		history = history[len(history)-RecentMatchWindow:]
	}
	return history
}

// TitleFor derives the cosmetic title shown next to a player on the board.
func TitleFor(p *Player) string {
	switch {
	case p.IsRetired:
		return "Hall of Famer"
	case p.Rank == 1:
		return "Champion"
	case p.Rank <= 3:
		return "Contender"
	case p.WinStreak >= 5:
		return "On Fire"
	default:
		return "Challenger"
	}
}

// BadgeFor maps a points total to a badge tier.
func BadgeFor(points int) string {
	switch {
	case points >= 300:
		return "diamond"
	case points >= 200:
		return "platinum"
	case points >= 100:
		return "gold"
	case points >= 50:
		return "silver"
	default:
		return "bronze"
	}
}

// Decorate fills the derived cosmetic fields on a player.
func (p *Player) Decorate() {
	p.Title = TitleFor(p)
	p.Badge = BadgeFor(p.Points)
}

// LastOutcome returns the most recent W/L marker, or 0 if none recorded.
func (p *Player) LastOutcome() byte {
	if p.RecentMatches == "" {
		return 0
	}
	return p.RecentMatches[len(p.RecentMatches)-1]
}

// CleanName normalizes a submitted player name for storage.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}
