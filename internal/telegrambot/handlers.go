package telegrambot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `<b>Guard bot commands</b> (admins only)
/settings — show current moderation settings
/linkfilter on|off — delete messages containing links
/biofilter on|off — act on users whose bio contains links
/editmode on|off — re-check edited messages
/approvalmode on|off — only approved users may post
/setautodelete &lt;seconds&gt; — auto-delete messages, 0 disables
/approve — approve the replied-to user (or /approve &lt;user_id&gt;)
/unapprove — revoke approval
/approved — list approved users
/warnings — show a user's warning count
/resetwarns — clear a user's warnings
/mute — mute the replied-to user
/unmute — unmute and clear warnings`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()

	if cmd == "help" || cmd == "start" {
		b.replyTo(ctx, msg, helpText)

		return
	}

	admin, err := b.client.IsAdmin(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("admin check failed for command")

		return
	}

	if !admin {
		return
	}

	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "settings":
		b.replyTo(ctx, msg, b.engine.Settings(ctx, chatID))
	case "linkfilter":
		b.handleToggle(ctx, msg, args, b.engine.SetLinkFilter)
	case "biofilter":
		b.handleToggle(ctx, msg, args, b.engine.SetBioFilter)
	case "editmode":
		b.handleToggle(ctx, msg, args, b.engine.SetEditMode)
	case "approvalmode":
		b.handleToggle(ctx, msg, args, b.engine.SetApprovalMode)
	case "setautodelete":
		b.handleSetAutoDelete(ctx, msg, args)
	case "approve":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.ApproveUser(ctx, chatID, userID, msg.From.ID)
		})
	case "unapprove":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.UnapproveUser(ctx, chatID, userID)
		})
	case "approved":
		b.replyTo(ctx, msg, b.engine.ApprovedUsers(ctx, chatID))
	case "warnings":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.UserWarnings(ctx, chatID, userID)
		})
	case "resetwarns":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.ResetUserWarnings(ctx, chatID, userID)
		})
	case "mute":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.MuteUser(ctx, chatID, userID)
		})
	case "unmute":
		b.handleUserCommand(ctx, msg, args, func(userID int64) string {
			return b.engine.UnmuteUser(ctx, chatID, userID)
		})
	}
}

func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message, args string, set func(context.Context, int64, bool) string) {
	enabled, ok := parseOnOff(args)
	if !ok {
		b.replyTo(ctx, msg, "Usage: /"+msg.Command()+" on|off")

		return
	}

	b.replyTo(ctx, msg, set(ctx, msg.Chat.ID, enabled))
}

func (b *Bot) handleSetAutoDelete(ctx context.Context, msg *tgbotapi.Message, args string) {
	seconds, err := strconv.Atoi(args)
	if err != nil || seconds < 0 {
		b.replyTo(ctx, msg, "Usage: /setautodelete <seconds> (0 disables)")

		return
	}

	b.replyTo(ctx, msg, b.engine.SetAutoDeleteInterval(ctx, msg.Chat.ID, seconds))
}

// handleUserCommand resolves the target user from the replied-to message or a
// numeric argument and invokes the action.
func (b *Bot) handleUserCommand(ctx context.Context, msg *tgbotapi.Message, args string, action func(userID int64) string) {
	userID, ok := resolveTargetUser(msg, args)
	if !ok {
		b.replyTo(ctx, msg, "Reply to the user's message or pass a user ID: /"+msg.Command()+" <user_id>")

		return
	}

	b.replyTo(ctx, msg, action(userID))
}

func (b *Bot) replyTo(ctx context.Context, msg *tgbotapi.Message, text string) {
	if err := b.client.Reply(ctx, msg.Chat.ID, msg.MessageID, text); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send command reply")
	}
}

func parseOnOff(arg string) (enabled, ok bool) {
	switch strings.ToLower(arg) {
	case "on", "enable", "yes", "true":
		return true, true
	case "off", "disable", "no", "false":
		return false, true
	default:
		return false, false
	}
}

func resolveTargetUser(msg *tgbotapi.Message, args string) (int64, bool) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, true
	}

	if args == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func parseUnmuteCallback(data string) (int64, bool) {
	raw, found := strings.CutPrefix(data, unmuteCallbackPrefix)
	if !found {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
