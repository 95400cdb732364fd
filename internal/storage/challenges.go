package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

const challengeColumns = `id, owner_id, title, description, type, target_amount, current_amount,
	start_date, end_date, status, reward_points, completed_at, created_at`

func (r *SQLiteRepository) CreateChallenge(ctx context.Context, c core.Challenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO challenges (`+challengeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		c.ID, c.OwnerID, c.Title, c.Description, string(c.Type), c.TargetAmount.String(),
		c.CurrentAmount.String(), formatTime(c.StartDate), formatTime(c.EndDate), string(c.Status),
		c.Reward.Points, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	slog.InfoContext(ctx, "Challenge saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpCreate,
		log.FieldChallengeID, c.ID,
		log.FieldOwnerID, c.OwnerID,
		log.FieldType, c.Type,
		"target_amount", c.TargetAmount.String())
	return nil
}

func (r *SQLiteRepository) GetChallenge(ctx context.Context, ownerID, id string) (core.Challenge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanChallenge(row)
	if err != nil {
		return core.Challenge{}, notFound(err, "get challenge")
	}
	return c, nil
}

func (r *SQLiteRepository) ListChallenges(ctx context.Context, ownerID string) ([]core.Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

func (r *SQLiteRepository) ListActiveChallenges(ctx context.Context, ownerID string, now time.Time) ([]core.Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		  WHERE owner_id = ? AND status = 'active' AND end_date >= ?
		  ORDER BY end_date`, ownerID, formatTime(now))
}

func (r *SQLiteRepository) ListExpiredChallenges(ctx context.Context, now time.Time) ([]core.Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		  WHERE status = 'active' AND end_date < ?
		  ORDER BY end_date`, formatTime(now))
}

func (r *SQLiteRepository) SetProgress(ctx context.Context, ownerID, id string, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenges SET current_amount = ? WHERE id = ? AND owner_id = ?`,
		amount.String(), id, ownerID)
	if err != nil {
		return fmt.Errorf("update challenge progress: %w", err)
	}
	return expectOne(res, "update challenge progress")
}

// CompleteChallenge performs the active->completed compare-and-set and inserts
// the badge in the same database transaction. Only the caller whose UPDATE
// matched the active row gets true back.
func (r *SQLiteRepository) CompleteChallenge(ctx context.Context, c core.Challenge, amount decimal.Decimal, badge core.Badge) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin complete challenge: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE challenges SET status = 'completed', current_amount = ?, completed_at = ?
		  WHERE id = ? AND owner_id = ? AND status = 'active'`,
		amount.String(), formatTime(badge.EarnedAt), c.ID, c.OwnerID)
	if err != nil {
		return false, fmt.Errorf("complete challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete challenge rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := insertBadge(ctx, tx, badge); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit complete challenge: %w", err)
	}

	slog.InfoContext(ctx, "Challenge completed in SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpAward,
		log.FieldChallengeID, c.ID,
		log.FieldOwnerID, c.OwnerID,
		log.FieldBadgeID, badge.ID)
	return true, nil
}

func (r *SQLiteRepository) FailChallenge(ctx context.Context, ownerID, id string, amount decimal.Decimal) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenges SET status = 'failed', current_amount = ?
		  WHERE id = ? AND owner_id = ? AND status = 'active'`,
		amount.String(), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("fail challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("fail challenge rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) DeleteChallenge(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return expectOne(res, "delete challenge")
}

func (r *SQLiteRepository) queryChallenges(ctx context.Context, query string, args ...any) ([]core.Challenge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	out := make([]core.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	return out, nil
}

func scanChallenge(s rowScanner) (core.Challenge, error) {
	var (
		c                             core.Challenge
		typ, status, start, end, crea string
		completed                     sql.NullString
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Description, &typ, &c.TargetAmount,
		&c.CurrentAmount, &start, &end, &status, &c.Reward.Points, &completed, &crea); err != nil {
		return core.Challenge{}, err
	}
	c.Type = core.ChallengeType(typ)
	c.Status = core.ChallengeStatus(status)

	var err error
	if c.StartDate, err = parseTime(start); err != nil {
		return core.Challenge{}, err
	}
	if c.EndDate, err = parseTime(end); err != nil {
		return core.Challenge{}, err
	}
	if c.CreatedAt, err = parseTime(crea); err != nil {
		return core.Challenge{}, err
	}
	if completed.Valid {
		at, err := parseTime(completed.String)
		if err != nil {
			return core.Challenge{}, err
		}
		c.CompletedAt = &at
	}
	return c, nil
}
