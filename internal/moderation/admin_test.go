package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToggleOperationsMutatePolicy(t *testing.T) {
	store := newFakeStore()
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	assert.Contains(t, e.SetLinkFilter(ctx, 10, true), "enabled")
	assert.True(t, store.policy.LinkFilterEnabled)

	assert.Contains(t, e.SetLinkFilter(ctx, 10, false), "disabled")
	assert.False(t, store.policy.LinkFilterEnabled)

	assert.Contains(t, e.SetBioFilter(ctx, 10, true), "enabled")
	assert.True(t, store.policy.BioFilterEnabled)

	assert.Contains(t, e.SetEditMode(ctx, 10, true), "enabled")
	assert.True(t, store.policy.EditModeEnabled)

	assert.Contains(t, e.SetApprovalMode(ctx, 10, true), "enabled")
	assert.True(t, store.policy.ApprovalModeEnabled)
}

func TestSetAutoDeleteInterval(t *testing.T) {
	store := newFakeStore()
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	assert.Contains(t, e.SetAutoDeleteInterval(ctx, 10, 300), "300 seconds")
	assert.Equal(t, 300, store.policy.AutoDeleteSeconds)
	assert.Equal(t, 300*time.Second, e.AutoDeleteInterval(ctx, 10))

	assert.Contains(t, e.SetAutoDeleteInterval(ctx, 10, 0), "disabled")
	assert.Equal(t, time.Duration(0), e.AutoDeleteInterval(ctx, 10))
}

func TestApproveAndUnapprove(t *testing.T) {
	store := newFakeStore()
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	e.ApproveUser(ctx, 10, 20, 99)
	assert.True(t, store.approved[pair{10, 20}])

	// Duplicate approval is a no-op, not an error.
	e.ApproveUser(ctx, 10, 20, 99)
	assert.Contains(t, e.ApprovedUsers(ctx, 10), "20")

	e.UnapproveUser(ctx, 10, 20)
	assert.False(t, store.approved[pair{10, 20}])
	assert.Equal(t, "No approved users in this chat.", e.ApprovedUsers(ctx, 10))
}

func TestResetWarningsCommand(t *testing.T) {
	store := newFakeStore()
	store.warnings[pair{10, 20}] = 2
	chat := newFakeChat()
	e := newTestEngine(store, chat)
	ctx := context.Background()

	assert.Contains(t, e.UserWarnings(ctx, 10, 20), "2/3")

	e.ResetUserWarnings(ctx, 10, 20)
	assert.Equal(t, 0, store.warnings[pair{10, 20}])
	assert.Contains(t, e.UserWarnings(ctx, 10, 20), "0/3")
}

func TestUnmuteClearsWarnings(t *testing.T) {
	store := newFakeStore()
	store.warnings[pair{10, 20}] = 2
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	msg := e.UnmuteUser(context.Background(), 10, 20)

	assert.Contains(t, msg, "unmuted")
	assert.Equal(t, []int64{20}, chat.unmuted)
	assert.Equal(t, 0, store.warnings[pair{10, 20}])
}

func TestSettingsRendersPolicy(t *testing.T) {
	store := newFakeStore()
	store.policy.LinkFilterEnabled = true
	store.policy.AutoDeleteSeconds = 60
	chat := newFakeChat()
	e := newTestEngine(store, chat)

	out := e.Settings(context.Background(), 10)

	assert.Contains(t, out, "Link filter: enabled")
	assert.Contains(t, out, "Bio filter: disabled")
	assert.Contains(t, out, "Auto-delete: 60s")
}
