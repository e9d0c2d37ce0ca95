package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Category classifies background operations. Single-flight is enforced
// per category: a request while that category is live is dropped.
type Category int

const (
	// CategorySync pulls sprints, issues and sessions from outside
	CategorySync Category = iota
	// CategoryPush submits staged worklogs to the tracker
	CategoryPush
	// CategoryRevert undoes a pushed history entry
	CategoryRevert
	// CategoryRefresh rebuilds the dashboard snapshot
	CategoryRefresh
)

func (c Category) String() string {
	switch c {
	case CategorySync:
		return "sync"
	case CategoryPush:
		return "push"
	case CategoryRevert:
		return "revert"
	case CategoryRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// OpStatus is the user-visible state of one operation category
type OpStatus int

const (
	// StatusIdle means nothing is running and nothing is displayed
	StatusIdle OpStatus = iota
	// StatusRunning means a unit of work is in flight
	StatusRunning
	// StatusComplete lingers briefly after a success
	StatusComplete
	// StatusFailed lingers briefly after a failure
	StatusFailed
)

const (
	completeDisplay = 3 * time.Second
	failedDisplay   = 5 * time.Second
)

// UnitOfWork is one background task. It may stream progress strings
// and returns the event to publish on success. A returned error (or a
// panic) becomes a Failed status; it never propagates further.
type UnitOfWork func(ctx context.Context, progress func(string)) (Event, error)

// ErrorEventFunc maps a failure reason to the error event to publish
type ErrorEventFunc func(reason string) Event

// opResult is the single terminal message of a unit of work
type opResult struct {
	event Event
	err   error
}

// operation tracks one live or lingering category
type operation struct {
	status   OpStatus
	message  string
	results  chan opResult
	progress chan string
	onError  ErrorEventFunc
	// clearAt is when a Complete/Failed status returns to Idle
	clearAt time.Time
}

// Ops is the bridge between the single-threaded dashboard loop and
// background units of work. All methods run on the UI goroutine; the
// spawned goroutines touch nothing but their channels.
type Ops struct {
	ops    map[Category]*operation
	bus    *Bus
	logger *loggy.Logger

	// refresh is invoked after any successful non-refresh operation
	// so the read-model catches up with the mutation
	refresh func()

	now func() time.Time
}

// NewOps creates the operation bridge
func NewOps(bus *Bus, logger *loggy.Logger) *Ops {
	return &Ops{
		ops:    make(map[Category]*operation),
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// SetRefreshHook installs the data-refresh trigger
func (o *Ops) SetRefreshHook(fn func()) {
	o.refresh = fn
}

// Live reports whether a category has a unit of work in flight
func (o *Ops) Live(cat Category) bool {
	op := o.ops[cat]
	return op != nil && op.results != nil
}

// Status returns the displayed status and message for a category
func (o *Ops) Status(cat Category) (OpStatus, string) {
	op := o.ops[cat]
	if op == nil {
		return StatusIdle, ""
	}
	return op.status, op.message
}

// Request spawns a unit of work for a category. Returns false without
// doing anything when the category already has a live handle.
func (o *Ops) Request(cat Category, message string, work UnitOfWork, onError ErrorEventFunc) bool {
	if o.Live(cat) {
		o.logger.Debug("Operation already in flight, request dropped", "category", cat.String())
		return false
	}

	op := &operation{
		status:   StatusRunning,
		message:  message,
		results:  make(chan opResult, 1),
		progress: make(chan string, 16),
		onError:  onError,
	}
	o.ops[cat] = op

	go runUnit(op, work, o.logger, cat)
	return true
}

// runUnit executes the work on its own goroutine. A panic inside the
// unit becomes an ordinary failure result; the dashboard loop must
// never die because a background task did.
func runUnit(op *operation, work UnitOfWork, logger *loggy.Logger, cat Category) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Background operation panicked", "category", cat.String(), "panic", r)
			op.results <- opResult{err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	progress := func(msg string) {
		select {
		case op.progress <- msg:
		default:
		}
	}

	ev, err := work(context.Background(), progress)
	if err != nil {
		op.results <- opResult{err: err}
		return
	}
	op.results <- opResult{event: ev}
}

// Poll services every live handle without blocking. Progress messages
// update the running status; a terminal result updates the status,
// clears the handle, publishes the operation's event and, on success,
// schedules a snapshot refresh.
func (o *Ops) Poll() {
	for cat, op := range o.ops {
		if op.results == nil {
			continue
		}

		o.drainProgress(op)

		select {
		case res := <-op.results:
			op.results = nil
			op.progress = nil

			if res.err != nil {
				op.status = StatusFailed
				op.message = res.err.Error()
				op.clearAt = o.now().Add(failedDisplay)
				o.logger.Warn("Operation failed", "category", cat.String(), "error", res.err)
				if op.onError != nil {
					o.bus.Publish(op.onError(res.err.Error()))
				}
			} else {
				op.status = StatusComplete
				op.message = "done"
				op.clearAt = o.now().Add(completeDisplay)
				if res.event != nil {
					o.bus.Publish(res.event)
				}
				if cat != CategoryRefresh && o.refresh != nil {
					o.refresh()
				}
			}
		default:
		}
	}
}

func (o *Ops) drainProgress(op *operation) {
	for {
		select {
		case msg := <-op.progress:
			op.message = msg
		default:
			return
		}
	}
}

// Tick clears lingering Complete/Failed statuses whose display window
// has passed
func (o *Ops) Tick() {
	now := o.now()
	for cat, op := range o.ops {
		if op.results == nil && op.status != StatusIdle && !op.clearAt.After(now) {
			delete(o.ops, cat)
		}
	}
}

// AnyRunning reports whether any category is live
func (o *Ops) AnyRunning() bool {
	for cat := range o.ops {
		if o.Live(cat) {
			return true
		}
	}
	return false
}
