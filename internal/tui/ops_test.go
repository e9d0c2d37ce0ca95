package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

func newTestOps() (*Ops, *Bus) {
	bus := NewBus()
	return NewOps(bus, loggy.NewNoopLogger()), bus
}

// collect drains the bus into a slice
func collect(bus *Bus) []Event {
	var events []Event
	bus.Subscribe(subscriberFunc(func(ev Event, _ *Model) {
		events = append(events, ev)
	}))
	bus.Process(&Model{})
	return events
}

type subscriberFunc func(ev Event, m *Model)

func (f subscriberFunc) OnEvent(ev Event, m *Model) { f(ev, m) }

func TestRequestDropsWhileLive(t *testing.T) {
	ops, _ := newTestOps()
	gate := make(chan struct{})

	ok := ops.Request(CategorySync, "syncing", func(context.Context, func(string)) (Event, error) {
		<-gate
		return SyncCompleteEvent{}, nil
	}, nil)
	require.True(t, ok)

	// Same category while live is a dropped no-op
	assert.False(t, ops.Request(CategorySync, "again", func(context.Context, func(string)) (Event, error) {
		return nil, nil
	}, nil))

	// A different category is unaffected
	assert.True(t, ops.Request(CategoryPush, "pushing", func(context.Context, func(string)) (Event, error) {
		return PushCompleteEvent{}, nil
	}, nil))

	close(gate)
}

func TestPollPublishesSuccess(t *testing.T) {
	ops, bus := newTestOps()

	ops.Request(CategorySync, "syncing", func(context.Context, func(string)) (Event, error) {
		return SyncCompleteEvent{Sprints: 2}, nil
	}, nil)

	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategorySync)
		return status == StatusComplete
	}, time.Second, time.Millisecond)

	assert.False(t, ops.Live(CategorySync))
	events := collect(bus)
	require.Len(t, events, 1)
	assert.Equal(t, SyncCompleteEvent{Sprints: 2}, events[0])
}

func TestPollPublishesFailureReason(t *testing.T) {
	ops, bus := newTestOps()

	ops.Request(CategorySync, "syncing", func(context.Context, func(string)) (Event, error) {
		return nil, errors.New("tracker unreachable")
	}, func(reason string) Event {
		return SyncFailedEvent{Reason: reason}
	})

	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategorySync)
		return status == StatusFailed
	}, time.Second, time.Millisecond)

	_, message := ops.Status(CategorySync)
	assert.Equal(t, "tracker unreachable", message)

	events := collect(bus)
	require.Len(t, events, 1)
	assert.Equal(t, SyncFailedEvent{Reason: "tracker unreachable"}, events[0])
}

func TestPanicBecomesFailure(t *testing.T) {
	ops, bus := newTestOps()

	ops.Request(CategoryPush, "pushing", func(context.Context, func(string)) (Event, error) {
		panic("nil map write")
	}, func(reason string) Event {
		return PushFailedEvent{Reason: reason}
	})

	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategoryPush)
		return status == StatusFailed
	}, time.Second, time.Millisecond)

	_, message := ops.Status(CategoryPush)
	assert.Contains(t, message, "internal error")
	assert.Contains(t, message, "nil map write")

	events := collect(bus)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].(PushFailedEvent).Reason, "nil map write")
}

func TestProgressUpdatesRunningMessage(t *testing.T) {
	ops, _ := newTestOps()
	gate := make(chan struct{})

	ops.Request(CategoryPush, "pushing", func(_ context.Context, progress func(string)) (Event, error) {
		progress("pushing 1/3")
		<-gate
		return PushCompleteEvent{}, nil
	}, nil)

	require.Eventually(t, func() bool {
		ops.Poll()
		_, message := ops.Status(CategoryPush)
		return message == "pushing 1/3"
	}, time.Second, time.Millisecond)

	status, _ := ops.Status(CategoryPush)
	assert.Equal(t, StatusRunning, status)
	close(gate)
}

func TestLingeringStatusExpires(t *testing.T) {
	ops, _ := newTestOps()
	base := time.Now()
	ops.now = func() time.Time { return base }

	ops.Request(CategorySync, "syncing", func(context.Context, func(string)) (Event, error) {
		return SyncCompleteEvent{}, nil
	}, nil)
	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategorySync)
		return status == StatusComplete
	}, time.Second, time.Millisecond)

	// Within the display window the status lingers
	ops.now = func() time.Time { return base.Add(completeDisplay - time.Millisecond) }
	ops.Tick()
	status, _ := ops.Status(CategorySync)
	assert.Equal(t, StatusComplete, status)

	// Past the window it clears to idle
	ops.now = func() time.Time { return base.Add(completeDisplay + time.Millisecond) }
	ops.Tick()
	status, _ = ops.Status(CategorySync)
	assert.Equal(t, StatusIdle, status)
}

func TestSuccessTriggersRefreshHook(t *testing.T) {
	ops, _ := newTestOps()
	refreshes := 0
	ops.SetRefreshHook(func() { refreshes++ })

	ops.Request(CategoryPush, "pushing", func(context.Context, func(string)) (Event, error) {
		return PushCompleteEvent{}, nil
	}, nil)
	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategoryPush)
		return status == StatusComplete
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, refreshes)

	// A refresh completing must not schedule another refresh
	ops.Request(CategoryRefresh, "refreshing", func(context.Context, func(string)) (Event, error) {
		return RefreshedEvent{}, nil
	}, nil)
	require.Eventually(t, func() bool {
		ops.Poll()
		status, _ := ops.Status(CategoryRefresh)
		return status == StatusComplete
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, refreshes)
}
