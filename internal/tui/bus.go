package tui

import (
	"time"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/snapshot"
)

// Event is the closed set of things observable across the dashboard.
// Events are immutable once published and carry only what subscribers
// need, never whole domain records.
type Event interface {
	isEvent()
}

// SyncCompleteEvent reports a finished tracker/session sync
type SyncCompleteEvent struct {
	Sprints  int
	Issues   int
	Sessions int
}

// SyncFailedEvent reports a failed sync with its reason
type SyncFailedEvent struct {
	Reason string
}

// PushCompleteEvent reports a finished push by history entry ID
type PushCompleteEvent struct {
	HistoryID string
	Pushed    int
	Failed    int
}

// PushFailedEvent reports a push that never got off the ground
type PushFailedEvent struct {
	Reason string
}

// RevertCompleteEvent reports a finished revert
type RevertCompleteEvent struct {
	HistoryID string
	Deleted   int
	Missing   int
}

// RevertFailedEvent reports a failed revert with its reason
type RevertFailedEvent struct {
	Reason string
}

// RefreshedEvent carries a freshly collected snapshot; the dashboard
// installs it on delivery
type RefreshedEvent struct {
	Snap *snapshot.Snapshot
}

// RefreshFailedEvent reports a failed snapshot collection
type RefreshFailedEvent struct {
	Reason string
}

// StepCompletedEvent reports a wizard step transition
type StepCompletedEvent struct {
	Step    Step
	Skipped bool
}

// WizardFinishedEvent reports that a wizard run reached its end
type WizardFinishedEvent struct{}

// AboutOpenedEvent reports that the about panel was shown
type AboutOpenedEvent struct{}

// SecretSequenceEvent reports a completed hidden key sequence
type SecretSequenceEvent struct {
	Name string
}

// AchievementUnlockedEvent reports a newly unlocked achievement
type AchievementUnlockedEvent struct {
	Achievement achievement.Achievement
	UnlockedAt  time.Time
}

func (SyncCompleteEvent) isEvent()        {}
func (SyncFailedEvent) isEvent()          {}
func (PushCompleteEvent) isEvent()        {}
func (PushFailedEvent) isEvent()          {}
func (RevertCompleteEvent) isEvent()      {}
func (RevertFailedEvent) isEvent()        {}
func (RefreshedEvent) isEvent()           {}
func (RefreshFailedEvent) isEvent()       {}
func (StepCompletedEvent) isEvent()       {}
func (WizardFinishedEvent) isEvent()      {}
func (AboutOpenedEvent) isEvent()         {}
func (SecretSequenceEvent) isEvent()      {}
func (AchievementUnlockedEvent) isEvent() {}

// Subscriber consumes events with mutable access to the dashboard
// model. Subscribers run on the UI goroutine only.
type Subscriber interface {
	OnEvent(ev Event, m *Model)
}

// Bus is a synchronous publish/subscribe router. Publish enqueues;
// Process drains the queue once, delivering each event to every
// subscriber in registration order. Events published during delivery
// land on the fresh queue and wait for the next Process call, so
// delivery never recurses.
type Bus struct {
	subscribers []Subscriber
	queue       []Event
	processing  bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe appends a subscriber. Registration order is delivery order.
func (b *Bus) Subscribe(s Subscriber) {
	b.subscribers = append(b.subscribers, s)
}

// Publish enqueues an event for the next Process call
func (b *Bus) Publish(ev Event) {
	b.queue = append(b.queue, ev)
}

// Pending returns the number of queued events
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Process drains the current queue once. Each event is delivered to
// every subscriber before the next event is looked at, preserving
// publish order across all subscribers. Reentrant calls are ignored.
func (b *Bus) Process(m *Model) {
	if b.processing {
		return
	}
	b.processing = true
	defer func() { b.processing = false }()

	queue := b.queue
	b.queue = nil

	for _, ev := range queue {
		for _, s := range b.subscribers {
			s.OnEvent(ev, m)
		}
	}
}
