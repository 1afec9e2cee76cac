// internal/results/results.go
//
// Finished-round history.
// Exposes:
//   - Store.Record       → write one won/lost round (idempotent per round id)
//   - Store.Leaderboard  → fastest wins of one UTC day
//   - Store.PlayerStats  → games played, wins, and current streak of a user
//   - Store.ClaimAnonymous → move guest results onto an account
//
// Only outcomes are written. Live round state never touches the database.

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Result is the outcome of one finished round.
type Result struct {
	RoundID     string `json:"roundId"`
	UserID      string `json:"userId,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
	Status      string `json:"status"` // won | lost
	SecondsLeft int    `json:"secondsLeft"`
	Matched     int    `json:"matched"` // play numbers cleared
	Date        string `json:"date"`
}

// LBRow is one leaderboard entry.
type LBRow struct {
	RoundID     string `json:"roundId"`
	Player      string `json:"player"`
	SecondsLeft int    `json:"secondsLeft"`
}

// Stats are a user's running counters.
type Stats struct {
	UserID      string `json:"id"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Streak      int    `json:"streak"`
}

// ErrNoUser is returned by PlayerStats for unknown users.
var ErrNoUser = errors.New("user not found")

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r and, for signed-in players, bumps their counters in the
// same transaction. A round already recorded is ignored; inserted reports
// whether this call wrote it.
func (s *Store) Record(ctx context.Context, r Result) (inserted bool, err error) {
	if r.Status != "won" && r.Status != "lost" {
		return false, fmt.Errorf("record %s: status %q is not terminal", r.RoundID, r.Status)
	}
	if r.Date == "" {
		r.Date = DateKey(time.Now())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO round_results
		    (round_id, user_id, anonymous_id, status, seconds_left, matched, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RoundID, nullable(r.UserID), nullable(r.AnonymousID), r.Status, r.SecondsLeft, r.Matched, r.Date,
	)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", r.RoundID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if r.UserID != "" {
		if err := bumpStats(ctx, tx, r.UserID, r.Status == "won"); err != nil {
			return false, fmt.Errorf("bump stats %s: %w", r.UserID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// bumpStats increments games played; updates wins and streak based on result.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// Leaderboard lists the won rounds of date, most seconds left first, then
// earliest. Guests appear as "guest". limit <= 0 means 20.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.round_id, COALESCE(u.username, 'guest'), r.seconds_left
		   FROM round_results r
		   LEFT JOIN users u ON u.id = r.user_id
		  WHERE r.date = ? AND r.status = 'won'
		  ORDER BY r.seconds_left DESC, r.created_at ASC
		  LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.RoundID, &r.Player, &r.SecondsLeft); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlayerStats loads userID's counters.
func (s *Store) PlayerStats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNoUser
	}
	return st, err
}

// ClaimAnonymous reassigns every result recorded under anonID to userID.
// Counters are not back-filled.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, userID string) (int64, error) {
	if anonID == "" || userID == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE round_results SET user_id=?, anonymous_id=NULL WHERE anonymous_id=? AND user_id IS NULL`,
		userID, anonID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
