package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxeigns/guard-bot/internal/storage"
)

type pair struct {
	chatID int64
	userID int64
}

type fakeStore struct {
	policy    storage.ChatPolicy
	policyErr error
	warnings  map[pair]int
	warnErr   error
	approved  map[pair]bool
	approvErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		warnings: make(map[pair]int),
		approved: make(map[pair]bool),
	}
}

func (s *fakeStore) GetChatPolicy(_ context.Context, _ int64) (storage.ChatPolicy, error) {
	return s.policy, s.policyErr
}

func (s *fakeStore) SetBioFilter(_ context.Context, _ int64, enabled bool) error {
	s.policy.BioFilterEnabled = enabled
	return nil
}

func (s *fakeStore) SetLinkFilter(_ context.Context, _ int64, enabled bool) error {
	s.policy.LinkFilterEnabled = enabled
	return nil
}

func (s *fakeStore) SetEditMode(_ context.Context, _ int64, enabled bool) error {
	s.policy.EditModeEnabled = enabled
	return nil
}

func (s *fakeStore) SetApprovalMode(_ context.Context, _ int64, enabled bool) error {
	s.policy.ApprovalModeEnabled = enabled
	return nil
}

func (s *fakeStore) SetAutoDeleteSeconds(_ context.Context, _ int64, seconds int) error {
	s.policy.AutoDeleteSeconds = seconds
	return nil
}

func (s *fakeStore) IncrementWarning(_ context.Context, chatID, userID int64) (int, error) {
	if s.warnErr != nil {
		return 0, s.warnErr
	}

	k := pair{chatID, userID}
	s.warnings[k]++

	return s.warnings[k], nil
}

func (s *fakeStore) WarningCount(_ context.Context, chatID, userID int64) (int, error) {
	return s.warnings[pair{chatID, userID}], nil
}

func (s *fakeStore) ResetWarnings(_ context.Context, chatID, userID int64) error {
	delete(s.warnings, pair{chatID, userID})
	return nil
}

func (s *fakeStore) Approve(_ context.Context, chatID, userID, _ int64) error {
	s.approved[pair{chatID, userID}] = true
	return nil
}

func (s *fakeStore) Unapprove(_ context.Context, chatID, userID int64) error {
	delete(s.approved, pair{chatID, userID})
	return nil
}

func (s *fakeStore) IsApproved(_ context.Context, chatID, userID int64) (bool, error) {
	if s.approvErr != nil {
		return false, s.approvErr
	}

	return s.approved[pair{chatID, userID}], nil
}

func (s *fakeStore) ListApproved(_ context.Context, chatID int64) ([]int64, error) {
	var users []int64

	for k := range s.approved {
		if k.chatID == chatID {
			users = append(users, k.userID)
		}
	}

	return users, nil
}

type fakeChat struct {
	admins      map[pair]bool
	adminErr    error
	bios        map[int64]string
	bioErr      error
	deleteErr   error
	deleted     []int
	restricted  []int64
	unmuted     []int64
	replies     []string
	muteReplies []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		admins: make(map[pair]bool),
		bios:   make(map[int64]string),
	}
}

func (c *fakeChat) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}

	c.deleted = append(c.deleted, messageID)

	return nil
}

func (c *fakeChat) RestrictMember(_ context.Context, _, userID int64) error {
	c.restricted = append(c.restricted, userID)
	return nil
}

func (c *fakeChat) UnrestrictMember(_ context.Context, _, userID int64) error {
	c.unmuted = append(c.unmuted, userID)
	return nil
}

func (c *fakeChat) IsAdmin(_ context.Context, chatID, userID int64) (bool, error) {
	if c.adminErr != nil {
		return false, c.adminErr
	}

	return c.admins[pair{chatID, userID}], nil
}

func (c *fakeChat) UserBio(_ context.Context, userID int64) (string, error) {
	if c.bioErr != nil {
		return "", c.bioErr
	}

	return c.bios[userID], nil
}

func (c *fakeChat) Reply(_ context.Context, _ int64, _ int, text string) error {
	c.replies = append(c.replies, text)
	return nil
}

func (c *fakeChat) ReplyWithUnmute(_ context.Context, _ int64, _ int, _ int64, text string) error {
	c.muteReplies = append(c.muteReplies, text)
	return nil
}

func newTestEngine(store *fakeStore, chat *fakeChat) *Engine {
	logger := zerolog.Nop()

	return New(store, store, store, chat, 3, &logger)
}

func linkEvent(messageID int) Event {
	return Event{
		Kind:      EventMessage,
		ChatID:    10,
		MessageID: messageID,
		UserID:    20,
		Text:      "buy now https://spam.example.com",
	}
}

func TestEvaluateAllowsBots(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), Event{Kind: EventMessage, ChatID: 10, UserID: 20, IsBot: true, Text: "http://x.com"})

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
}

func TestEvaluateAllowsAdmins(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	chat.admins[pair{10, 20}] = true
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
	assert.Empty(t, store.warnings)
}

func TestEvaluateAllowsApprovedUsers(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	store.approved[pair{10, 20}] = true
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
	assert.Empty(t, store.warnings)
}

func TestEvaluateLinkViolationEscalation(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	first := e.Evaluate(ctx, linkEvent(1))
	require.Equal(t, OutcomeDeleteAndWarn, first.Outcome)
	assert.Equal(t, ReasonLink, first.Reason)
	assert.Equal(t, 1, first.Count)
	assert.False(t, first.Final)

	second := e.Evaluate(ctx, linkEvent(2))
	assert.Equal(t, 2, second.Count)
	assert.False(t, second.Final)

	third := e.Evaluate(ctx, linkEvent(3))
	assert.Equal(t, OutcomeMute, third.Outcome)
	assert.Equal(t, 3, third.Count)
	assert.True(t, third.Final)

	// Counter reset on mute: next violation restarts from 1.
	assert.Equal(t, 0, store.warnings[pair{10, 20}])
	assert.Equal(t, []int64{20}, chat.restricted)
	assert.Equal(t, []int{1, 2, 3}, chat.deleted)
	require.Len(t, chat.muteReplies, 1)

	fourth := e.Evaluate(ctx, linkEvent(4))
	assert.Equal(t, OutcomeDeleteAndWarn, fourth.Outcome)
	assert.Equal(t, 1, fourth.Count)
}

func TestEvaluateApprovalModeSkipsWarningLedger(t *testing.T) {
	store := newFakeStore()
	store.policy.ApprovalModeEnabled = true
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeDeleteOnly, d.Outcome)
	assert.Equal(t, ReasonApprovalMode, d.Reason)
	assert.Equal(t, []int{1}, chat.deleted)
	assert.Empty(t, store.warnings, "approval-mode rejection must not touch the warning ledger")
	require.Len(t, chat.replies, 1)
}

func TestEvaluateEditedMessageRespectsEditMode(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	edited := linkEvent(1)
	edited.Kind = EventEdited

	d := e.Evaluate(ctx, edited)
	assert.Equal(t, OutcomeAllow, d.Outcome, "edit mode off: edited messages pass")

	store.policy.EditModeEnabled = true

	d = e.Evaluate(ctx, edited)
	assert.Equal(t, OutcomeDeleteAndWarn, d.Outcome)
}

func TestEvaluateBioViolationOnMessage(t *testing.T) {
	store := newFakeStore()
	store.policy.BioFilterEnabled = true
	chat := newFakeChat()
	chat.bios[20] = "promo channel t.me/spam"
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), Event{Kind: EventMessage, ChatID: 10, MessageID: 5, UserID: 20, Text: "hello"})

	assert.Equal(t, OutcomeDeleteAndWarn, d.Outcome)
	assert.Equal(t, ReasonBio, d.Reason)
	assert.Equal(t, []int{5}, chat.deleted)
}

func TestEvaluateBioViolationOnJoinSkipsDelete(t *testing.T) {
	store := newFakeStore()
	store.policy.BioFilterEnabled = true
	chat := newFakeChat()
	chat.bios[20] = "promo channel t.me/spam"
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), Event{Kind: EventNewMember, ChatID: 10, UserID: 20})

	assert.Equal(t, OutcomeDeleteAndWarn, d.Outcome)
	assert.Empty(t, chat.deleted, "joins have no message to delete")
	assert.Equal(t, 1, store.warnings[pair{10, 20}])
}

func TestEvaluateBioFetchFailureFailsOpen(t *testing.T) {
	store := newFakeStore()
	store.policy.BioFilterEnabled = true
	chat := newFakeChat()
	chat.bioErr = errors.New("profile unavailable")
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), Event{Kind: EventMessage, ChatID: 10, MessageID: 5, UserID: 20, Text: "hello"})

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
	assert.Empty(t, store.warnings)
}

func TestEvaluateDisabledFiltersAllowViolatingContent(t *testing.T) {
	store := newFakeStore()
	chat := newFakeChat()
	chat.bios[20] = "promo t.me/spam"
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
}

func TestEvaluateDeleteFailureStillWarns(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	chat.deleteErr = errors.New("message to delete not found")
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeDeleteAndWarn, d.Outcome)
	assert.Equal(t, 1, d.Count)
}

func TestEvaluateAdminCheckFailureAllows(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	chat := newFakeChat()
	chat.adminErr = errors.New("member lookup failed")
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.Empty(t, chat.deleted)
}

func TestEvaluateWarningIncrementFailureDegradesToDeleteOnly(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	store.warnErr = errors.New("db down")
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	d := e.Evaluate(context.Background(), linkEvent(1))

	assert.Equal(t, OutcomeDeleteOnly, d.Outcome)
	assert.Equal(t, []int{1}, chat.deleted)
}
