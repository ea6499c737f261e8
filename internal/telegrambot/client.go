package telegrambot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/oxeigns/guard-bot/internal/platform/observability"
)

const unmuteCallbackPrefix = "unmute:"

// apiClient adapts the Telegram bot API to the moderation.ChatClient and
// autodelete.Deleter contracts. All outbound calls go through a shared rate
// limiter to stay under Telegram flood control.
type apiClient struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

func newAPIClient(api *tgbotapi.BotAPI, rps float64) *apiClient {
	if rps <= 0 {
		rps = 20
	}

	return &apiClient{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *apiClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		observability.PlatformCallErrors.WithLabelValues("delete_message").Inc()

		return fmt.Errorf("delete message %d in chat %d: %w", messageID, chatID, err)
	}

	return nil
}

func (c *apiClient) RestrictMember(ctx context.Context, chatID, userID int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Zero-value permissions revoke everything, a full mute.
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions:      &tgbotapi.ChatPermissions{},
	}

	if _, err := c.api.Request(restrict); err != nil {
		observability.PlatformCallErrors.WithLabelValues("restrict_member").Inc()

		return fmt.Errorf("restrict user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}

func (c *apiClient) UnrestrictMember(ctx context.Context, chatID, userID int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	unrestrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       true,
			CanSendMediaMessages:  true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
			CanInviteUsers:        true,
		},
	}

	if _, err := c.api.Request(unrestrict); err != nil {
		observability.PlatformCallErrors.WithLabelValues("unrestrict_member").Inc()

		return fmt.Errorf("unrestrict user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}

func (c *apiClient) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		observability.PlatformCallErrors.WithLabelValues("get_chat_member").Inc()

		return false, fmt.Errorf("get chat member %d in chat %d: %w", userID, chatID, err)
	}

	return member.IsCreator() || member.IsAdministrator(), nil
}

// UserBio fetches the user's profile bio. Telegram exposes it through
// getChat on the user's private chat ID.
func (c *apiClient) UserBio(ctx context.Context, userID int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: userID},
	})
	if err != nil {
		observability.PlatformCallErrors.WithLabelValues("get_chat").Inc()

		return "", fmt.Errorf("get chat for user %d: %w", userID, err)
	}

	return chat.Bio, nil
}

func (c *apiClient) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	return c.send(ctx, chatID, replyTo, text, nil)
}

func (c *apiClient) ReplyWithUnmute(ctx context.Context, chatID int64, replyTo int, userID int64, text string) error {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔊 Unmute", fmt.Sprintf("%s%d", unmuteCallbackPrefix, userID)),
		),
	)

	return c.send(ctx, chatID, replyTo, text, &markup)
}

func (c *apiClient) send(ctx context.Context, chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}

	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	if _, err := c.api.Send(msg); err != nil {
		observability.PlatformCallErrors.WithLabelValues("send_message").Inc()

		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}

	return nil
}
