// Package telegrambot wires Telegram updates into the moderation engine and
// renders engine verdicts back into chat actions.
package telegrambot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/oxeigns/guard-bot/internal/autodelete"
	"github.com/oxeigns/guard-bot/internal/moderation"
	"github.com/oxeigns/guard-bot/internal/platform/config"
	"github.com/oxeigns/guard-bot/internal/storage"
)

// Bot owns the update loop. One goroutine consumes the long-poll channel;
// per-update handling is synchronous so moderation actions keep update order.
type Bot struct {
	api           *tgbotapi.BotAPI
	client        *apiClient
	engine        *moderation.Engine
	scheduler     *autodelete.Scheduler
	updateTimeout int
	logger        *zerolog.Logger
}

func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot api: %w", err)
	}

	logger.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	client := newAPIClient(api, cfg.TelegramRateLimitRPS)

	return &Bot{
		api:           api,
		client:        client,
		engine:        moderation.New(database, database, database, client, cfg.WarnLimit, logger),
		scheduler:     autodelete.New(client, logger),
		updateTimeout: cfg.UpdateTimeout,
		logger:        logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.scheduler.Stop()

			return nil
		case update, ok := <-updates:
			if !ok {
				b.scheduler.Stop()

				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.EditedMessage != nil:
		b.handleEdited(ctx, update.EditedMessage)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !isGroupChat(msg.Chat) || msg.From == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		b.handleJoins(ctx, msg)

		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)

		return
	}

	decision := b.engine.Evaluate(ctx, moderation.Event{
		Kind:      moderation.EventMessage,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		IsBot:     msg.From.IsBot,
		Text:      messageText(msg),
	})
	if decision.Outcome != moderation.OutcomeAllow {
		return
	}

	if delay := b.engine.AutoDeleteInterval(ctx, msg.Chat.ID); delay > 0 {
		b.scheduler.Schedule(msg.Chat.ID, msg.MessageID, delay)
	}
}

func (b *Bot) handleEdited(ctx context.Context, msg *tgbotapi.Message) {
	if !isGroupChat(msg.Chat) || msg.From == nil {
		return
	}

	b.engine.Evaluate(ctx, moderation.Event{
		Kind:      moderation.EventEdited,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		IsBot:     msg.From.IsBot,
		Text:      messageText(msg),
	})
}

// handleJoins evaluates each joining member. The join service message itself
// carries the message ID; the engine only deletes on message events, so joins
// can at most warn or mute.
func (b *Bot) handleJoins(ctx context.Context, msg *tgbotapi.Message) {
	for _, member := range msg.NewChatMembers {
		b.engine.Evaluate(ctx, moderation.Event{
			Kind:      moderation.EventNewMember,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			UserID:    member.ID,
			IsBot:     member.IsBot,
		})
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}

	chatID := cb.Message.Chat.ID

	userID, ok := parseUnmuteCallback(cb.Data)
	if !ok {
		b.answerCallback(cb.ID, "")

		return
	}

	admin, err := b.client.IsAdmin(ctx, chatID, cb.From.ID)
	if err != nil || !admin {
		b.answerCallback(cb.ID, "Only admins can unmute.")

		return
	}

	b.engine.UnmuteUser(ctx, chatID, userID)
	b.answerCallback(cb.ID, "User unmuted.")

	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, cb.Message.Text+"\n\n🔊 Unmuted by admin.")
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("failed to edit mute notice")
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Debug().Err(err).Msg("failed to answer callback query")
	}
}

func isGroupChat(chat *tgbotapi.Chat) bool {
	return chat != nil && (chat.IsGroup() || chat.IsSuperGroup())
}

func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}

	return msg.Caption
}
