// Package moderation implements the per-chat rule engine that decides, for
// every incoming message, edited message, and new chat member, whether to
// delete content, warn, mute, or let it pass.
//
// The engine re-reads policy and approval state from the store on every
// evaluation, so admin toggles racing with in-flight messages always see the
// freshest configuration. Evaluate never returns an error: failures on
// external calls degrade to allow or no-op and are logged instead of
// escaping to the dispatch layer.
package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oxeigns/guard-bot/internal/classify"
	"github.com/oxeigns/guard-bot/internal/platform/observability"
	"github.com/oxeigns/guard-bot/internal/storage"
)

// EventKind identifies the kind of regulated event.
type EventKind string

const (
	EventMessage   EventKind = "message"
	EventEdited    EventKind = "edited_message"
	EventNewMember EventKind = "new_member"
)

// Outcome is the engine's verdict for an event.
type Outcome string

const (
	OutcomeAllow         Outcome = "allow"
	OutcomeDeleteOnly    Outcome = "delete_only"
	OutcomeDeleteAndWarn Outcome = "delete_and_warn"
	OutcomeMute          Outcome = "mute"
)

// Violation reason codes.
const (
	ReasonLink         = "link"
	ReasonBio          = "bio"
	ReasonApprovalMode = "approval_mode"
)

// Event is a single inbound occurrence the engine evaluates.
// Text carries the message text or caption; it is empty for joins.
type Event struct {
	Kind      EventKind
	ChatID    int64
	MessageID int
	UserID    int64
	IsBot     bool
	Text      string
}

// Decision is the result of evaluating one event. Count and Final are only
// meaningful for warn and mute outcomes.
type Decision struct {
	Outcome Outcome
	Reason  string
	Count   int
	Final   bool
}

// PolicyStore reads and mutates per-chat moderation configuration.
type PolicyStore interface {
	GetChatPolicy(ctx context.Context, chatID int64) (storage.ChatPolicy, error)
	SetBioFilter(ctx context.Context, chatID int64, enabled bool) error
	SetLinkFilter(ctx context.Context, chatID int64, enabled bool) error
	SetEditMode(ctx context.Context, chatID int64, enabled bool) error
	SetApprovalMode(ctx context.Context, chatID int64, enabled bool) error
	SetAutoDeleteSeconds(ctx context.Context, chatID int64, seconds int) error
}

// WarningLedger tracks per-(chat, user) strike counts. IncrementWarning must
// be atomic at the storage layer.
type WarningLedger interface {
	IncrementWarning(ctx context.Context, chatID, userID int64) (int, error)
	WarningCount(ctx context.Context, chatID, userID int64) (int, error)
	ResetWarnings(ctx context.Context, chatID, userID int64) error
}

// ApprovalRegistry is the per-chat set of users exempt from moderation.
type ApprovalRegistry interface {
	Approve(ctx context.Context, chatID, userID, approvedBy int64) error
	Unapprove(ctx context.Context, chatID, userID int64) error
	IsApproved(ctx context.Context, chatID, userID int64) (bool, error)
	ListApproved(ctx context.Context, chatID int64) ([]int64, error)
}

// ChatClient is the chat-platform collaborator the engine issues actions to.
type ChatClient interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	RestrictMember(ctx context.Context, chatID, userID int64) error
	UnrestrictMember(ctx context.Context, chatID, userID int64) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	UserBio(ctx context.Context, userID int64) (string, error)
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
	ReplyWithUnmute(ctx context.Context, chatID int64, replyTo int, userID int64, text string) error
}

const defaultWarnLimit = 3

// Engine evaluates regulated events against the chat's policy.
type Engine struct {
	policies  PolicyStore
	warnings  WarningLedger
	approvals ApprovalRegistry
	chat      ChatClient
	warnLimit int
	logger    *zerolog.Logger
}

// New creates an Engine. A warnLimit <= 0 falls back to the default of 3.
func New(policies PolicyStore, warnings WarningLedger, approvals ApprovalRegistry, chat ChatClient, warnLimit int, logger *zerolog.Logger) *Engine {
	if warnLimit <= 0 {
		warnLimit = defaultWarnLimit
	}

	return &Engine{
		policies:  policies,
		warnings:  warnings,
		approvals: approvals,
		chat:      chat,
		warnLimit: warnLimit,
		logger:    logger,
	}
}

// Evaluate runs the transition algorithm for one event and returns the
// decision. It never returns an error; store or platform failures degrade to
// allow for the affected check.
func (e *Engine) Evaluate(ctx context.Context, ev Event) Decision {
	decision := e.evaluate(ctx, ev)
	observability.EventsEvaluated.WithLabelValues(string(ev.Kind), string(decision.Outcome)).Inc()

	return decision
}

func (e *Engine) evaluate(ctx context.Context, ev Event) Decision {
	if ev.IsBot {
		return Decision{Outcome: OutcomeAllow}
	}

	if e.isExempt(ctx, ev) {
		return Decision{Outcome: OutcomeAllow}
	}

	policy, err := e.policies.GetChatPolicy(ctx, ev.ChatID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("policy read failed, allowing event")

		return Decision{Outcome: OutcomeAllow}
	}

	if ev.Kind == EventEdited && !policy.EditModeEnabled {
		return Decision{Outcome: OutcomeAllow}
	}

	// Approval mode takes priority over content filters and is independent
	// of the warning ledger.
	if policy.ApprovalModeEnabled && ev.Kind != EventNewMember {
		return e.rejectUnapproved(ctx, ev)
	}

	if policy.LinkFilterEnabled && ev.Kind != EventNewMember && classify.HasLink(ev.Text) {
		return e.deleteAndWarn(ctx, ev, ReasonLink)
	}

	if policy.BioFilterEnabled {
		bio, err := e.chat.UserBio(ctx, ev.UserID)
		if err != nil {
			// Fail-open for the bio check only.
			e.logger.Warn().Err(err).Int64("user_id", ev.UserID).Msg("bio fetch failed, skipping bio check")

			return Decision{Outcome: OutcomeAllow}
		}

		if classify.BioViolates(bio) {
			return e.deleteAndWarn(ctx, ev, ReasonBio)
		}
	}

	return Decision{Outcome: OutcomeAllow}
}

// isExempt reports whether the actor is a chat admin or approved for the
// chat. Failures degrade to exempt so a flaky store never causes a false
// moderation action.
func (e *Engine) isExempt(ctx context.Context, ev Event) bool {
	admin, err := e.chat.IsAdmin(ctx, ev.ChatID, ev.UserID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Int64("user_id", ev.UserID).Msg("admin check failed, allowing event")

		return true
	}

	if admin {
		return true
	}

	approved, err := e.approvals.IsApproved(ctx, ev.ChatID, ev.UserID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Int64("user_id", ev.UserID).Msg("approval check failed, allowing event")

		return true
	}

	return approved
}

// rejectUnapproved deletes the offending message and posts a rejection
// notice. The warning ledger is never touched for approval-mode rejections.
func (e *Engine) rejectUnapproved(ctx context.Context, ev Event) Decision {
	e.deleteMessage(ctx, ev, ReasonApprovalMode)

	notice := "⛔ This chat requires approval before posting. Ask an admin to /approve you."
	if err := e.chat.Reply(ctx, ev.ChatID, ev.MessageID, notice); err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("failed to send approval rejection notice")
	}

	return Decision{Outcome: OutcomeDeleteOnly, Reason: ReasonApprovalMode}
}

// deleteAndWarn removes the offending content, bumps the warning counter and
// escalates to a mute at the limit. The counter resets to 0 on mute so the
// next violation restarts escalation from 1.
func (e *Engine) deleteAndWarn(ctx context.Context, ev Event, reason string) Decision {
	e.deleteMessage(ctx, ev, reason)

	count, err := e.warnings.IncrementWarning(ctx, ev.ChatID, ev.UserID)
	if err != nil {
		e.logger.Error().Err(err).Int64("chat_id", ev.ChatID).Int64("user_id", ev.UserID).Msg("warning increment failed")

		return Decision{Outcome: OutcomeDeleteOnly, Reason: reason}
	}

	observability.WarningsIssued.Inc()

	if count >= e.warnLimit {
		return e.mute(ctx, ev, reason, count)
	}

	notice := fmt.Sprintf("⚠️ Warning %d/%d — %s", count, e.warnLimit, violationText(reason))
	if err := e.chat.Reply(ctx, ev.ChatID, ev.MessageID, notice); err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("failed to send warning notice")
	}

	return Decision{Outcome: OutcomeDeleteAndWarn, Reason: reason, Count: count}
}

func (e *Engine) mute(ctx context.Context, ev Event, reason string, count int) Decision {
	if err := e.chat.RestrictMember(ctx, ev.ChatID, ev.UserID); err != nil {
		e.logger.Error().Err(err).Int64("chat_id", ev.ChatID).Int64("user_id", ev.UserID).Msg("mute failed")
	} else {
		observability.MutesIssued.Inc()
	}

	// Reset regardless of mute success so escalation restarts cleanly.
	if err := e.warnings.ResetWarnings(ctx, ev.ChatID, ev.UserID); err != nil {
		e.logger.Error().Err(err).Int64("chat_id", ev.ChatID).Int64("user_id", ev.UserID).Msg("warning reset failed")
	}

	notice := fmt.Sprintf("🔇 Muted after %d/%d warnings — %s", count, e.warnLimit, violationText(reason))
	if err := e.chat.ReplyWithUnmute(ctx, ev.ChatID, ev.MessageID, ev.UserID, notice); err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("failed to send mute notice")
	}

	return Decision{Outcome: OutcomeMute, Reason: reason, Count: count, Final: true}
}

// deleteMessage is best-effort: a message already removed by another path is
// success-equivalent.
func (e *Engine) deleteMessage(ctx context.Context, ev Event, reason string) {
	if ev.Kind == EventNewMember {
		return
	}

	if err := e.chat.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", ev.ChatID).Int("message_id", ev.MessageID).Msg("delete failed")

		return
	}

	observability.MessagesDeleted.WithLabelValues(reason).Inc()
}

// AutoDeleteInterval returns the chat's auto-delete delay, 0 when the
// feature is disabled or the policy cannot be read.
func (e *Engine) AutoDeleteInterval(ctx context.Context, chatID int64) time.Duration {
	policy, err := e.policies.GetChatPolicy(ctx, chatID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("policy read failed for auto-delete")

		return 0
	}

	return time.Duration(policy.AutoDeleteSeconds) * time.Second
}

func violationText(reason string) string {
	switch reason {
	case ReasonLink:
		return "links are not allowed in this chat"
	case ReasonBio:
		return "profile bio violates chat policy"
	default:
		return "content violates chat policy"
	}
}
