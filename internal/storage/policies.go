package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ChatPolicy holds the moderation configuration for a single chat.
// A chat without a row uses the zero value: every filter disabled,
// auto-delete off.
type ChatPolicy struct {
	BioFilterEnabled    bool
	LinkFilterEnabled   bool
	EditModeEnabled     bool
	ApprovalModeEnabled bool
	AutoDeleteSeconds   int
}

// Policy column names, used by the shared upsert helper. Only values from
// this set ever reach the SQL text.
const (
	columnBioFilter    = "bio_filter_enabled"
	columnLinkFilter   = "link_filter_enabled"
	columnEditMode     = "edit_mode_enabled"
	columnApprovalMode = "approval_mode_enabled"
	columnAutoDelete   = "autodelete_seconds"
)

// GetChatPolicy returns the policy for a chat. A missing row is not an
// error: the zero-value policy is returned so chats work before the first
// toggle ever happens.
func (db *DB) GetChatPolicy(ctx context.Context, chatID int64) (ChatPolicy, error) {
	var p ChatPolicy

	err := db.Pool.QueryRow(ctx, `
		SELECT bio_filter_enabled, link_filter_enabled, edit_mode_enabled,
		       approval_mode_enabled, autodelete_seconds
		FROM chat_policies WHERE chat_id = $1`, chatID).
		Scan(&p.BioFilterEnabled, &p.LinkFilterEnabled, &p.EditModeEnabled,
			&p.ApprovalModeEnabled, &p.AutoDeleteSeconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatPolicy{}, nil
		}

		return ChatPolicy{}, fmt.Errorf("get chat policy: %w", err)
	}

	return p, nil
}

// SetBioFilter enables or disables the bio filter for a chat.
func (db *DB) SetBioFilter(ctx context.Context, chatID int64, enabled bool) error {
	return db.upsertPolicyField(ctx, chatID, columnBioFilter, enabled)
}

// SetLinkFilter enables or disables the link filter for a chat.
func (db *DB) SetLinkFilter(ctx context.Context, chatID int64, enabled bool) error {
	return db.upsertPolicyField(ctx, chatID, columnLinkFilter, enabled)
}

// SetEditMode enables or disables moderation of edited messages for a chat.
func (db *DB) SetEditMode(ctx context.Context, chatID int64, enabled bool) error {
	return db.upsertPolicyField(ctx, chatID, columnEditMode, enabled)
}

// SetApprovalMode enables or disables approval mode for a chat.
func (db *DB) SetApprovalMode(ctx context.Context, chatID int64, enabled bool) error {
	return db.upsertPolicyField(ctx, chatID, columnApprovalMode, enabled)
}

// SetAutoDeleteSeconds sets the auto-delete interval for a chat.
// Zero disables the feature.
func (db *DB) SetAutoDeleteSeconds(ctx context.Context, chatID int64, seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("autodelete interval must be >= 0, got %d", seconds)
	}

	return db.upsertPolicyField(ctx, chatID, columnAutoDelete, seconds)
}

// upsertPolicyField creates the policy row lazily on first write and updates
// a single column on conflict. The column name comes from package constants,
// never from caller input.
func (db *DB) upsertPolicyField(ctx context.Context, chatID int64, column string, value any) error {
	query := fmt.Sprintf(`
		INSERT INTO chat_policies (chat_id, %[1]s) VALUES ($1, $2)
		ON CONFLICT (chat_id)
		DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = now()`, column)

	if _, err := db.Pool.Exec(ctx, query, chatID, value); err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}

	return nil
}
