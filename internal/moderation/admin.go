package moderation

import (
	"context"
	"fmt"
	"strings"
)

// Admin operations: direct policy mutations and member actions invoked by
// the command layer. Each returns a human-readable confirmation string for
// the caller to render; failures surface as "❌ Failed: ..." strings rather
// than errors so the dispatch layer stays a thin adapter.

func (e *Engine) SetLinkFilter(ctx context.Context, chatID int64, enabled bool) string {
	if err := e.policies.SetLinkFilter(ctx, chatID, enabled); err != nil {
		return failed("update link filter", err)
	}

	return "🔗 Link filter " + onOff(enabled)
}

func (e *Engine) SetBioFilter(ctx context.Context, chatID int64, enabled bool) string {
	if err := e.policies.SetBioFilter(ctx, chatID, enabled); err != nil {
		return failed("update bio filter", err)
	}

	return "🪪 Bio filter " + onOff(enabled)
}

func (e *Engine) SetEditMode(ctx context.Context, chatID int64, enabled bool) string {
	if err := e.policies.SetEditMode(ctx, chatID, enabled); err != nil {
		return failed("update edit mode", err)
	}

	return "✏️ Edited-message moderation " + onOff(enabled)
}

func (e *Engine) SetApprovalMode(ctx context.Context, chatID int64, enabled bool) string {
	if err := e.policies.SetApprovalMode(ctx, chatID, enabled); err != nil {
		return failed("update approval mode", err)
	}

	return "✅ Approval mode " + onOff(enabled)
}

func (e *Engine) SetAutoDeleteInterval(ctx context.Context, chatID int64, seconds int) string {
	if err := e.policies.SetAutoDeleteSeconds(ctx, chatID, seconds); err != nil {
		return failed("update auto-delete interval", err)
	}

	if seconds == 0 {
		return "🗑 Auto-delete disabled"
	}

	return fmt.Sprintf("🗑 Auto-delete set to %d seconds", seconds)
}

func (e *Engine) ApproveUser(ctx context.Context, chatID, userID, approvedBy int64) string {
	if err := e.approvals.Approve(ctx, chatID, userID, approvedBy); err != nil {
		return failed("approve user", err)
	}

	return fmt.Sprintf("✅ User %d approved", userID)
}

func (e *Engine) UnapproveUser(ctx context.Context, chatID, userID int64) string {
	if err := e.approvals.Unapprove(ctx, chatID, userID); err != nil {
		return failed("unapprove user", err)
	}

	return fmt.Sprintf("🚫 User %d unapproved", userID)
}

func (e *Engine) ApprovedUsers(ctx context.Context, chatID int64) string {
	users, err := e.approvals.ListApproved(ctx, chatID)
	if err != nil {
		return failed("list approved users", err)
	}

	if len(users) == 0 {
		return "No approved users in this chat."
	}

	lines := make([]string, 0, len(users)+1)
	lines = append(lines, "Approved users:")

	for _, id := range users {
		lines = append(lines, fmt.Sprintf("• <code>%d</code>", id))
	}

	return strings.Join(lines, "\n")
}

func (e *Engine) UserWarnings(ctx context.Context, chatID, userID int64) string {
	count, err := e.warnings.WarningCount(ctx, chatID, userID)
	if err != nil {
		return failed("read warnings", err)
	}

	return fmt.Sprintf("User %d has %d/%d warnings", userID, count, e.warnLimit)
}

func (e *Engine) ResetUserWarnings(ctx context.Context, chatID, userID int64) string {
	if err := e.warnings.ResetWarnings(ctx, chatID, userID); err != nil {
		return failed("reset warnings", err)
	}

	return fmt.Sprintf("♻️ Warnings reset for user %d", userID)
}

func (e *Engine) MuteUser(ctx context.Context, chatID, userID int64) string {
	if err := e.chat.RestrictMember(ctx, chatID, userID); err != nil {
		return failed("mute user", err)
	}

	return fmt.Sprintf("🔇 User %d muted", userID)
}

// UnmuteUser lifts a restriction and clears the warning counter so the user
// does not get re-muted on the very next violation.
func (e *Engine) UnmuteUser(ctx context.Context, chatID, userID int64) string {
	if err := e.chat.UnrestrictMember(ctx, chatID, userID); err != nil {
		return failed("unmute user", err)
	}

	if err := e.warnings.ResetWarnings(ctx, chatID, userID); err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("warning reset on unmute failed")
	}

	return fmt.Sprintf("🔊 User %d unmuted", userID)
}

// Settings renders the current chat policy for the /settings command.
func (e *Engine) Settings(ctx context.Context, chatID int64) string {
	policy, err := e.policies.GetChatPolicy(ctx, chatID)
	if err != nil {
		return failed("read settings", err)
	}

	autoDelete := "off"
	if policy.AutoDeleteSeconds > 0 {
		autoDelete = fmt.Sprintf("%ds", policy.AutoDeleteSeconds)
	}

	return strings.Join([]string{
		"<b>Moderation settings</b>",
		"Link filter: " + onOff(policy.LinkFilterEnabled),
		"Bio filter: " + onOff(policy.BioFilterEnabled),
		"Edit mode: " + onOff(policy.EditModeEnabled),
		"Approval mode: " + onOff(policy.ApprovalModeEnabled),
		"Auto-delete: " + autoDelete,
	}, "\n")
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}

	return "disabled"
}

func failed(action string, err error) string {
	return fmt.Sprintf("❌ Failed to %s: %s", action, err)
}
