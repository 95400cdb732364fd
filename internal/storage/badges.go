package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func insertBadge(ctx context.Context, tx *sql.Tx, b core.Badge) error {
	var challengeID sql.NullString
	if b.ChallengeID != "" {
		challengeID = sql.NullString{String: b.ChallengeID, Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO badges (id, owner_id, challenge_id, name, description, icon, category, earned_at, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, challengeID, b.Name, b.Description, b.Icon, string(b.Category),
		formatTime(b.EarnedAt), b.Completed)
	if err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBadges(ctx context.Context, ownerID string) ([]core.Badge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, challenge_id, name, description, icon, category, earned_at, completed
		   FROM badges WHERE owner_id = ? ORDER BY earned_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	out := make([]core.Badge, 0)
	for rows.Next() {
		var (
			b                  core.Badge
			challengeID        sql.NullString
			category, earnedAt string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &challengeID, &b.Name, &b.Description, &b.Icon,
			&category, &earnedAt, &b.Completed); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		b.ChallengeID = challengeID.String
		b.Category = core.BadgeCategory(category)
		if b.EarnedAt, err = parseTime(earnedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return out, nil
}
