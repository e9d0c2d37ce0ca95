// Package tui implements the worklog dashboard: a bubbletea program
// whose single-threaded loop drives background operations, an event
// bus, a guided wizard and the achievement tracker.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/snapshot"
)

// tickInterval is the dashboard poll cadence
const tickInterval = 100 * time.Millisecond

// Tab identifies one dashboard tab
type Tab int

const (
	TabSprints Tab = iota
	TabMeetings
	TabWorklogs
	TabSessions
	TabHistory
	TabAchievements
)

var tabNames = map[Tab]string{
	TabSprints:      "Sprints",
	TabMeetings:     "Meetings",
	TabWorklogs:     "Worklogs",
	TabSessions:     "Sessions",
	TabHistory:      "History",
	TabAchievements: "Achievements",
}

// Model is the dashboard state. Everything in it is owned by the UI
// goroutine; background work reaches it only through the ops bridge
// and the bus.
type Model struct {
	app *app.App

	bus     *Bus
	ops     *Ops
	wizard  *Wizard
	confirm *Confirm

	snap *snapshot.Snapshot

	tab     Tab
	cursors map[Tab]int

	spin    spinner.Model
	keys    KeyMap
	styles  Styles
	width   int
	height  int

	// statusLine is a transient message under the tab content
	statusLine  string
	statusErr   bool
	statusUntil time.Time

	// keyBuf collects plain rune presses for secret sequences
	keyBuf string

	showAbout bool
	aboutText string

	logs *loggy.Collector

	quitting bool
}

// NewModel builds the dashboard and registers the bus subscribers in
// their fixed delivery order.
func NewModel(a *app.App) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		app:     a,
		bus:     NewBus(),
		cursors: make(map[Tab]int),
		spin:    sp,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		logs:    loggy.NewCollector(80),
	}

	m.ops = NewOps(m.bus, loggy.GetGlobalLogger())
	m.ops.SetRefreshHook(func() { m.requestRefresh() })

	m.wizard = NewWizard()
	m.confirm = NewConfirm()

	// Delivery order: snapshot installer first so later subscribers
	// see fresh data, then the wizard, then the achievement tracker.
	m.bus.Subscribe(&uiSubscriber{})
	m.bus.Subscribe(m.wizard)
	m.bus.Subscribe(NewTracker())

	loggy.AttachCollector(m.logs)
	return m
}

// Init starts the tick loop and the first data refresh
func (m *Model) Init() tea.Cmd {
	m.requestSync()
	m.requestRefresh()
	return tea.Batch(m.spin.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// setStatus shows a transient message under the tab content
func (m *Model) setStatus(msg string, isErr bool) {
	m.statusLine = msg
	m.statusErr = isErr
	if isErr {
		m.statusUntil = time.Now().Add(failedDisplay)
	} else {
		m.statusUntil = time.Now().Add(completeDisplay)
	}
}

// flavor shows branding text for a category when one exists
func (m *Model) flavor(category string) {
	if text := m.app.Branding.Text(category); text != "" {
		m.setStatus(text, false)
	}
}

// WizardActive reports whether a wizard run is in progress
func (m *Model) WizardActive() bool {
	return m.wizard.state != nil
}

// cursor returns the clamped cursor for the current tab's list length
func (m *Model) cursor(length int) int {
	c := m.cursors[m.tab]
	if c >= length {
		c = length - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursors[m.tab] = c
	return c
}

// moveCursor shifts the current tab's cursor by delta within [0, length)
func (m *Model) moveCursor(delta, length int) {
	if length == 0 {
		m.cursors[m.tab] = 0
		return
	}
	c := m.cursors[m.tab] + delta
	if c < 0 {
		c = 0
	}
	if c >= length {
		c = length - 1
	}
	m.cursors[m.tab] = c
}

// visibleTabs returns the tab list; Achievements appears only once
// something is unlocked
func (m *Model) visibleTabs() []Tab {
	tabs := []Tab{TabSprints, TabMeetings, TabWorklogs, TabSessions, TabHistory}
	if m.snap != nil && len(m.snap.Unlocks) > 0 {
		tabs = append(tabs, TabAchievements)
	}
	return tabs
}

// uiSubscriber installs snapshots and surfaces operation outcomes as
// status-line text. It runs before the wizard and the tracker.
type uiSubscriber struct{}

func (uiSubscriber) OnEvent(ev Event, m *Model) {
	switch e := ev.(type) {
	case RefreshedEvent:
		m.snap = e.Snap
	case SyncCompleteEvent:
		m.setStatus("sync complete", false)
	case SyncFailedEvent:
		m.setStatus("sync failed: "+e.Reason, true)
	case PushCompleteEvent:
		if e.Failed > 0 {
			m.setStatus("push finished with failures", true)
		} else {
			m.flavor("push_success")
		}
	case PushFailedEvent:
		line := "push failed: " + e.Reason
		if flair := m.app.Branding.Text("push_failed"); flair != "" {
			line += " · " + flair
		}
		m.setStatus(line, true)
	case RevertCompleteEvent:
		m.flavor("revert_complete")
	case RevertFailedEvent:
		m.setStatus("revert failed: "+e.Reason, true)
	case RefreshFailedEvent:
		m.setStatus("refresh failed: "+e.Reason, true)
	case StepCompletedEvent:
		if e.Skipped {
			loggy.Info("Wizard step skipped", "step", e.Step.String())
		} else {
			loggy.Info("Wizard step complete", "step", e.Step.String())
		}
	case WizardFinishedEvent:
		loggy.Info("Wizard run finished")
	case AchievementUnlockedEvent:
		meta := e.Achievement.Meta()
		line := "Achievement unlocked: " + meta.Icon + " " + meta.Name
		if flair := m.app.Branding.Text("achievement_unlock"); flair != "" {
			line += " · " + flair
		}
		m.setStatus(line, false)
	}
}
