package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/worklog/internal/achievement"
)

// busPasses bounds how many queued-event passes one tick drains, so a
// chain of wizard transitions resolves promptly without letting a
// publish loop starve the render.
const busPasses = 3

// Update is the single entry point for every message. All mutation of
// the model happens here, on the program goroutine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, m.onTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m, m.onKey(msg)
	}
	return m, nil
}

// onTick polls background operations, expires lingering statuses and
// drains the event bus
func (m *Model) onTick() tea.Cmd {
	m.ops.Poll()
	m.ops.Tick()

	if m.statusLine != "" && !m.statusUntil.IsZero() && time.Now().After(m.statusUntil) {
		m.statusLine = ""
		m.statusErr = false
	}

	m.bus.Process(m)
	for i := 0; i < busPasses-1 && m.bus.Pending() > 0; i++ {
		m.bus.Process(m)
	}

	return tick()
}

// onKey routes one key press by priority: modal, wizard, about panel,
// global bindings, then the current tab.
func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return tea.Quit
	}

	m.recordSecretKeys(msg)

	if m.confirm.HandleKey(m, msg) {
		return nil
	}

	if m.WizardActive() {
		if m.wizard.HandleKey(m, msg) {
			return nil
		}
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			m.wizard.RequestCancel(m)
			return nil
		}
		// Remaining keys fall through so the dashboard stays
		// navigable while the wizard waits on background work.
	}

	if m.showAbout {
		m.showAbout = false
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.About):
		m.openAbout()
		return nil
	case key.Matches(msg, m.keys.Sync):
		if !m.requestSync() {
			m.setStatus("a sync is already running", true)
		}
		return nil
	case key.Matches(msg, m.keys.Wizard):
		m.wizard.Launch(m)
		return nil
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1, m.tabLength())
		return nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1, m.tabLength())
		return nil
	}

	if tab, ok := numberTab(msg.String()); ok {
		m.selectTab(tab)
		return nil
	}

	m.onTabKey(msg)
	return nil
}

// recordSecretKeys feeds plain rune presses into the sequence buffer
// and publishes a match
func (m *Model) recordSecretKeys(msg tea.KeyMsg) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return
	}
	m.keyBuf += string(msg.Runes)
	if max := m.app.Branding.MaxSequenceLen(); len(m.keyBuf) > max {
		m.keyBuf = m.keyBuf[len(m.keyBuf)-max:]
	}
	if name, ok := m.app.Branding.MatchSequence(m.keyBuf); ok {
		m.keyBuf = ""
		m.bus.Publish(SecretSequenceEvent{Name: name})
	}
}

func (m *Model) openAbout() {
	m.showAbout = true
	b := m.app.Branding
	var md strings.Builder
	if b.Mascot != "" {
		md.WriteString(b.Mascot + "\n\n")
	}
	for _, line := range b.All("about") {
		md.WriteString("- " + line + "\n")
	}
	m.aboutText = md.String()
	m.bus.Publish(AboutOpenedEvent{})
}

// numberTab maps digit keys to tabs
func numberTab(s string) (Tab, bool) {
	switch s {
	case "1":
		return TabSprints, true
	case "2":
		return TabMeetings, true
	case "3":
		return TabWorklogs, true
	case "4":
		return TabSessions, true
	case "5":
		return TabHistory, true
	case "6":
		return TabAchievements, true
	}
	return 0, false
}

func (m *Model) selectTab(tab Tab) {
	for _, t := range m.visibleTabs() {
		if t == tab {
			m.tab = tab
			return
		}
	}
}

func (m *Model) switchTab(delta int) {
	tabs := m.visibleTabs()
	idx := 0
	for i, t := range tabs {
		if t == m.tab {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(tabs)) % len(tabs)
	m.tab = tabs[idx]
}

// tabLength returns the list length shown by the current tab
func (m *Model) tabLength() int {
	if m.snap == nil {
		return 0
	}
	switch m.tab {
	case TabSprints:
		return len(m.snap.Sprints)
	case TabMeetings:
		return len(m.snap.Meetings)
	case TabWorklogs:
		return len(m.snap.Worklogs)
	case TabSessions:
		return len(m.snap.Sessions)
	case TabHistory:
		return len(m.snap.History)
	case TabAchievements:
		return len(achievement.All())
	}
	return 0
}

// onTabKey handles the bindings specific to the current tab
func (m *Model) onTabKey(msg tea.KeyMsg) {
	if m.snap == nil {
		return
	}

	switch m.tab {
	case TabSprints:
		if key.Matches(msg, m.keys.Follow) && len(m.snap.Sprints) > 0 {
			sp := m.snap.Sprints[m.cursor(len(m.snap.Sprints))]
			if sp.IsFollowed {
				m.unfollowSprint(sp.ID)
			} else {
				m.followSprint(sp.ID)
			}
		}

	case TabMeetings:
		if key.Matches(msg, m.keys.Unlink) && len(m.snap.Meetings) > 0 {
			mt := m.snap.Meetings[m.cursor(len(m.snap.Meetings))]
			if mt.IssueKey == nil {
				m.setStatus("meeting is not linked", true)
				return
			}
			m.confirm.OpenUnlink(mt.ID, mt.Title)
		}

	case TabWorklogs:
		if len(m.snap.Worklogs) == 0 {
			if key.Matches(msg, m.keys.Push) {
				m.setStatus("nothing to push", true)
			}
			return
		}
		wl := m.snap.Worklogs[m.cursor(len(m.snap.Worklogs))]
		switch {
		case key.Matches(msg, m.keys.Stage):
			m.stageWorklog(wl.ID)
		case key.Matches(msg, m.keys.Delete):
			m.deleteWorklog(wl)
		case key.Matches(msg, m.keys.Push):
			if m.snap.StagedCount() == 0 {
				m.setStatus("nothing staged to push", true)
				return
			}
			if !m.requestPush() {
				m.setStatus("a push is already running", true)
			}
		}

	case TabHistory:
		if key.Matches(msg, m.keys.Revert) && len(m.snap.History) > 0 {
			entry := m.snap.History[m.cursor(len(m.snap.History))]
			if entry.Reverted() {
				m.setStatus("that push was already reverted", true)
				return
			}
			m.confirm.OpenRevert(entry.ID, entry.Name, entry.TotalHours)
		}
	}
}
