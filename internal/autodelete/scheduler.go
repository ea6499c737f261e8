// Package autodelete schedules deferred message deletions. Each eligible
// message gets at most one pending timer, keyed by (chat_id, message_id);
// repeated schedule requests for the same message (e.g. edits) are
// de-duplicated and never reset the original delay.
package autodelete

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/oxeigns/guard-bot/internal/platform/observability"
)

// Deleter removes a message from a chat. Deleting an already-deleted message
// is expected to fail and the failure is swallowed.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type key struct {
	chatID    int64
	messageID int
}

const deleteTimeout = 30 * time.Second

// Scheduler owns the in-process set of pending deletions. It is safe for
// concurrent use; timers fire on their own goroutines independent of the
// handlers that scheduled them.
type Scheduler struct {
	deleter Deleter
	pending *xsync.MapOf[key, *time.Timer]
	logger  *zerolog.Logger
}

func New(deleter Deleter, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		deleter: deleter,
		pending: xsync.NewMapOf[key, *time.Timer](),
		logger:  logger,
	}
}

// Schedule enqueues a delayed deletion for (chatID, messageID). A
// non-positive delay disables the feature and is a no-op. A second schedule
// for the same key while a timer is pending is dropped; the existing timer
// keeps its original deadline.
func (s *Scheduler) Schedule(chatID int64, messageID int, delay time.Duration) {
	if delay <= 0 {
		return
	}

	k := key{chatID: chatID, messageID: messageID}

	_, loaded := s.pending.LoadOrCompute(k, func() *time.Timer {
		return time.AfterFunc(delay, func() {
			s.fire(k)
		})
	})
	if loaded {
		observability.AutoDeleteDeduped.Inc()

		return
	}

	observability.AutoDeleteScheduled.Inc()
	observability.AutoDeletePending.Set(float64(s.pending.Size()))
	s.logger.Debug().Int64("chat_id", chatID).Int("message_id", messageID).Dur("delay", delay).Msg("auto-delete scheduled")
}

// fire attempts the deletion. Failures (message already gone, missing
// permissions) are logged and discarded; the pending key is removed
// regardless of outcome so the set never leaks.
func (s *Scheduler) fire(k key) {
	defer func() {
		s.pending.Delete(k)
		observability.AutoDeletePending.Set(float64(s.pending.Size()))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := s.deleter.DeleteMessage(ctx, k.chatID, k.messageID); err != nil {
		// Expected when another path deleted the message first.
		s.logger.Debug().Err(err).Int64("chat_id", k.chatID).Int("message_id", k.messageID).Msg("auto-delete fire failed")
		observability.AutoDeleteFired.WithLabelValues("error").Inc()

		return
	}

	observability.AutoDeleteFired.WithLabelValues("deleted").Inc()
}

// Pending returns the number of outstanding timers.
func (s *Scheduler) Pending() int {
	return s.pending.Size()
}

// Stop cancels all outstanding timers. Used on shutdown.
func (s *Scheduler) Stop() {
	s.pending.Range(func(k key, timer *time.Timer) bool {
		timer.Stop()
		s.pending.Delete(k)

		return true
	})

	observability.AutoDeletePending.Set(0)
}
