package autodelete

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeleter struct {
	mu      sync.Mutex
	calls   []int
	failure error
}

func (d *recordingDeleter) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, messageID)

	return d.failure
}

func (d *recordingDeleter) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.calls)
}

func newTestScheduler(deleter Deleter) *Scheduler {
	logger := zerolog.Nop()

	return New(deleter, &logger)
}

func TestScheduleZeroDelayIsNoop(t *testing.T) {
	deleter := &recordingDeleter{}
	s := newTestScheduler(deleter)

	s.Schedule(1, 100, 0)
	s.Schedule(1, 101, -time.Second)

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, deleter.callCount())
}

func TestScheduleDeduplicatesSameMessage(t *testing.T) {
	deleter := &recordingDeleter{}
	s := newTestScheduler(deleter)

	s.Schedule(1, 100, 50*time.Millisecond)
	s.Schedule(1, 100, 50*time.Millisecond)

	require.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool {
		return s.Pending() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, deleter.callCount())
}

func TestScheduleFiresAndCleansUp(t *testing.T) {
	deleter := &recordingDeleter{}
	s := newTestScheduler(deleter)

	s.Schedule(1, 100, 10*time.Millisecond)
	s.Schedule(2, 100, 10*time.Millisecond)

	require.Equal(t, 2, s.Pending())

	require.Eventually(t, func() bool {
		return deleter.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestFireFailureStillRemovesKey(t *testing.T) {
	deleter := &recordingDeleter{failure: errors.New("message to delete not found")}
	s := newTestScheduler(deleter)

	s.Schedule(1, 100, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return deleter.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.Pending() == 0
	}, time.Second, 5*time.Millisecond)

	// Key is free again after firing, so a new schedule is accepted.
	s.Schedule(1, 100, time.Minute)
	assert.Equal(t, 1, s.Pending())

	s.Stop()
}

func TestStopCancelsPendingTimers(t *testing.T) {
	deleter := &recordingDeleter{}
	s := newTestScheduler(deleter)

	s.Schedule(1, 100, time.Minute)
	s.Schedule(1, 101, time.Minute)
	require.Equal(t, 2, s.Pending())

	s.Stop()

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, deleter.callCount())
}
