package tui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs every delivery it sees, optionally reacting to events
type recorder struct {
	id  string
	log *[]string
	// react, when set, runs on each delivery with the bus available
	react func(ev Event)
}

func (r *recorder) OnEvent(ev Event, _ *Model) {
	*r.log = append(*r.log, fmt.Sprintf("%s:%T", r.id, ev))
	if r.react != nil {
		r.react(ev)
	}
}

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var log []string
	bus.Subscribe(&recorder{id: "a", log: &log})
	bus.Subscribe(&recorder{id: "b", log: &log})

	bus.Publish(AboutOpenedEvent{})
	bus.Publish(WizardFinishedEvent{})
	bus.Process(&Model{})

	assert.Equal(t, []string{
		"a:tui.AboutOpenedEvent",
		"b:tui.AboutOpenedEvent",
		"a:tui.WizardFinishedEvent",
		"b:tui.WizardFinishedEvent",
	}, log)
	assert.Zero(t, bus.Pending())
}

func TestBusDefersPublishDuringDelivery(t *testing.T) {
	bus := NewBus()
	var log []string
	bus.Subscribe(&recorder{
		id:  "a",
		log: &log,
		react: func(ev Event) {
			if _, ok := ev.(AboutOpenedEvent); ok {
				bus.Publish(WizardFinishedEvent{})
			}
		},
	})

	bus.Publish(AboutOpenedEvent{})
	bus.Process(&Model{})

	// The reaction's event waits for the next pass
	require.Equal(t, []string{"a:tui.AboutOpenedEvent"}, log)
	require.Equal(t, 1, bus.Pending())

	bus.Process(&Model{})
	assert.Equal(t, []string{"a:tui.AboutOpenedEvent", "a:tui.WizardFinishedEvent"}, log)
	assert.Zero(t, bus.Pending())
}

func TestBusIgnoresReentrantProcess(t *testing.T) {
	bus := NewBus()
	var log []string
	m := &Model{}
	bus.Subscribe(&recorder{
		id:  "a",
		log: &log,
		react: func(Event) {
			// A subscriber calling back into Process must not
			// cause recursive delivery
			bus.Process(m)
		},
	})

	bus.Publish(AboutOpenedEvent{})
	bus.Publish(WizardFinishedEvent{})
	bus.Process(m)

	assert.Equal(t, []string{"a:tui.AboutOpenedEvent", "a:tui.WizardFinishedEvent"}, log)
}

func TestBusProcessWithNoQueueIsNoop(t *testing.T) {
	bus := NewBus()
	var log []string
	bus.Subscribe(&recorder{id: "a", log: &log})

	bus.Process(&Model{})

	assert.Empty(t, log)
}
