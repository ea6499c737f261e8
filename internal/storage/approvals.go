package storage

import (
	"context"
	"fmt"
)

// Approve adds a user to the chat's approval set. Approving an already
// approved user is a no-op.
func (db *DB) Approve(ctx context.Context, chatID, userID, approvedBy int64) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO approvals (chat_id, user_id, approved_by) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, user_id) DO NOTHING`,
		chatID, userID, approvedBy); err != nil {
		return fmt.Errorf("approve user: %w", err)
	}

	return nil
}

// Unapprove removes a user from the chat's approval set.
func (db *DB) Unapprove(ctx context.Context, chatID, userID int64) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM approvals WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID); err != nil {
		return fmt.Errorf("unapprove user: %w", err)
	}

	return nil
}

// IsApproved reports whether a user is exempt from moderation in a chat.
func (db *DB) IsApproved(ctx context.Context, chatID, userID int64) (bool, error) {
	var approved bool

	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM approvals WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID).Scan(&approved)
	if err != nil {
		return false, fmt.Errorf("check approval: %w", err)
	}

	return approved, nil
}

// ListApproved returns the user IDs approved in a chat, oldest first.
func (db *DB) ListApproved(ctx context.Context, chatID int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id FROM approvals WHERE chat_id = $1 ORDER BY created_at`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}
	defer rows.Close()

	var users []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan approved user: %w", err)
		}

		users = append(users, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approved users: %w", err)
	}

	return users, nil
}
