package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// IncrementWarning bumps the strike counter for (chat, user) and returns the
// new count. The increment is a single UPSERT so two concurrent violations
// by the same user can never both observe the same stale count.
func (db *DB) IncrementWarning(ctx context.Context, chatID, userID int64) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO warnings (chat_id, user_id, count) VALUES ($1, $2, 1)
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET count = warnings.count + 1, updated_at = now()
		RETURNING count`, chatID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment warning: %w", err)
	}

	return count, nil
}

// WarningCount returns the current strike count, 0 when no row exists.
func (db *DB) WarningCount(ctx context.Context, chatID, userID int64) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx,
		`SELECT count FROM warnings WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("get warning count: %w", err)
	}

	return count, nil
}

// ResetWarnings zeroes the strike counter for (chat, user). Deleting the row
// is equivalent to a count of 0.
func (db *DB) ResetWarnings(ctx context.Context, chatID, userID int64) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM warnings WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID); err != nil {
		return fmt.Errorf("reset warnings: %w", err)
	}

	return nil
}
