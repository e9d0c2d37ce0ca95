package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tildaslashalef/worklog/internal/achievement"
)

const (
	defaultWidth = 80
	logTail      = 4
)

// View renders the dashboard
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.confirm.Active() != ConfirmNone:
		b.WriteString(m.renderModal(width))
	case m.showAbout:
		b.WriteString(m.renderAbout(width))
	case m.WizardActive():
		b.WriteString(m.renderWizard(width))
	default:
		b.WriteString(m.renderTab())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderLogTail())
	return b.String()
}

func (m *Model) renderHeader() string {
	var tabs []string
	for i, t := range m.visibleTabs() {
		label := fmt.Sprintf("%d:%s", i+1, tabNames[t])
		if t == m.tab {
			tabs = append(tabs, m.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.TabInactive.Render(label))
		}
	}
	title := m.styles.AppTitle.Render("worklog")
	if m.snap != nil && m.snap.Followed != nil {
		title += m.styles.StatusBar.Render("  sprint: " + m.snap.Followed.Name)
	}
	return title + "\n" + strings.Join(tabs, " ")
}

func (m *Model) renderTab() string {
	if m.snap == nil {
		return m.styles.ListDim.Render("loading...")
	}
	switch m.tab {
	case TabSprints:
		return m.renderSprints()
	case TabMeetings:
		return m.renderMeetings()
	case TabWorklogs:
		return m.renderWorklogs()
	case TabSessions:
		return m.renderSessions()
	case TabHistory:
		return m.renderHistory()
	case TabAchievements:
		return m.renderAchievements()
	}
	return ""
}

// renderList is the shared cursor-list shape used by every tab
func (m *Model) renderList(lines []string, empty string) string {
	if len(lines) == 0 {
		return m.styles.ListDim.Render(empty)
	}
	cur := m.cursor(len(lines))
	var b strings.Builder
	for i, line := range lines {
		if i == cur {
			b.WriteString(m.styles.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.ListNormal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSprints() string {
	var lines []string
	for _, s := range m.snap.Sprints {
		marker := " "
		if s.IsFollowed {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %-30s %-8s %s → %s",
			marker, s.Name, s.State,
			s.StartDate.Format("Jan 02"), s.EndDate.Format("Jan 02")))
	}
	return m.renderList(lines, "no sprints, press S to sync") +
		m.styles.Help.Render("f follow/unfollow · S sync")
}

func (m *Model) renderMeetings() string {
	var lines []string
	for _, mt := range m.snap.Meetings {
		link := "—"
		if mt.IssueKey != nil {
			link = *mt.IssueKey
		}
		flag := ""
		if mt.Declined {
			flag = " (declined)"
		}
		lines = append(lines, fmt.Sprintf("%-35s %s %.1fh  %s%s",
			mt.Title, mt.StartTime.Format("Jan 02 15:04"), mt.Hours(), link, flag))
	}
	return m.renderList(lines, "no meetings in the sprint window") +
		m.styles.Help.Render("u unlink")
}

func (m *Model) renderWorklogs() string {
	var lines []string
	for _, wl := range m.snap.Worklogs {
		lines = append(lines, fmt.Sprintf("%-12s %s %5.2fh %-7s %-8s %s",
			wl.IssueKey, wl.WorkDate.Format("Jan 02"), wl.Hours,
			wl.Status, wl.Source, wl.Comment))
	}
	return m.renderList(lines, "no worklogs yet, run the wizard with w") +
		m.styles.Help.Render("g stage · d delete · P push")
}

func (m *Model) renderSessions() string {
	var lines []string
	for _, s := range m.snap.Sessions {
		keys := strings.Join(s.IssueKeys, ",")
		if keys == "" {
			keys = "—"
		}
		lines = append(lines, fmt.Sprintf("%-25s %-15s %s %.1fh  %s",
			s.Repo, s.Branch, s.StartTime.Format("Jan 02 15:04"), s.Hours(), keys))
	}
	return m.renderList(lines, "no coding sessions found")
}

func (m *Model) renderHistory() string {
	var lines []string
	for _, h := range m.snap.History {
		state := ""
		if h.Reverted() {
			state = "  (reverted)"
		}
		lines = append(lines, fmt.Sprintf("%-25s %2d items %6.2fh  %s%s",
			h.Name, h.ItemCount, h.TotalHours,
			h.PushedAt.Format("Jan 02 15:04"), state))
	}
	return m.renderList(lines, "nothing pushed yet") +
		m.styles.Help.Render("r revert")
}

func (m *Model) renderAchievements() string {
	var lines []string
	for _, a := range achievement.All() {
		meta := a.Meta()
		if m.snap.IsUnlocked(a) {
			lines = append(lines, fmt.Sprintf("%s %-22s %s", meta.Icon, meta.Name, meta.Description))
			continue
		}
		if meta.Secret {
			lines = append(lines, "🔒 ???")
			continue
		}
		lines = append(lines, fmt.Sprintf("🔒 %-22s %s", meta.Name, meta.Description))
	}
	return m.renderList(lines, "nothing unlocked yet")
}

// renderWizard shows the step checklist and the active step's panel
func (m *Model) renderWizard(width int) string {
	st := m.wizard.state
	var b strings.Builder
	b.WriteString(m.styles.ModalTitle.Render("Sprint wizard — " + st.sprintName))
	b.WriteString("\n\n")

	for _, step := range wizardSteps {
		if step == StepComplete {
			continue
		}
		switch {
		case st.completed[step] && st.skipReasons[step] != "":
			b.WriteString(m.styles.WizardStepSkip.Render(
				fmt.Sprintf("  ~ %s (skipped: %s)", step, st.skipReasons[step])))
		case st.completed[step]:
			b.WriteString(m.styles.WizardStepDone.Render("  ✓ " + step.String()))
		case step == st.step:
			b.WriteString(m.styles.WizardStep.Render(
				fmt.Sprintf("%s %s", m.spin.View(), step)))
		default:
			b.WriteString(m.styles.WizardStepSkip.Render("    " + step.String()))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderWizardPanel(width))
	return b.String()
}

func (m *Model) renderWizardPanel(width int) string {
	st := m.wizard.state
	switch st.step {
	case StepManualLinking:
		return m.renderLinkingPanel()
	case StepSessionWorklogs:
		return m.renderSessionPanel()
	case StepReviewing:
		return m.renderReviewPanel()
	case StepComplete:
		summary := fmt.Sprintf(
			"Done. %d auto-linked, %d linked by hand, %d meeting + %d session + %d gap worklogs, %d pushed.",
			st.autoLinked, st.manualLinked, st.meetingLogs, st.sessionLogs, st.gapLogs, st.pushedCount)
		return wordwrap.String(summary, width-4) + "\n\n" +
			m.styles.Help.Render("enter to close")
	default:
		return m.styles.ListDim.Render("working...")
	}
}

func (m *Model) renderLinkingPanel() string {
	st := m.wizard.state
	var b strings.Builder

	if st.pickerOpen {
		mt := st.pendingMeetings[st.meetingCursor]
		b.WriteString(fmt.Sprintf("Link %q to:\n", mt.Title))
		for i, is := range st.pickerIssues {
			line := fmt.Sprintf("%-12s %s", is.Key, is.Summary)
			if i == st.pickerCursor {
				b.WriteString(m.styles.ListSelected.Render("> " + line))
			} else {
				b.WriteString(m.styles.ListNormal.Render("  " + line))
			}
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Help.Render("enter link · esc back"))
		return b.String()
	}

	b.WriteString("Unlinked meetings:\n")
	for i, mt := range st.pendingMeetings {
		line := fmt.Sprintf("%-35s %s", mt.Title, mt.StartTime.Format("Jan 02 15:04"))
		if i == st.meetingCursor {
			b.WriteString(m.styles.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.ListNormal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("enter pick issue · s skip · n next step"))
	return b.String()
}

func (m *Model) renderSessionPanel() string {
	st := m.wizard.state
	s := m.wizard.currentSession()
	if s == nil {
		return ""
	}
	key := "—"
	if len(s.IssueKeys) > 0 {
		key = s.IssueKeys[0]
	}
	return fmt.Sprintf("Session %d/%d\n%s on %s, %.1fh → %s\n%s",
		st.sessionCursor+1, len(st.sessions),
		s.Repo, s.StartTime.Format("Jan 02"), s.Hours(), key,
		m.styles.Help.Render("y log it · s skip"))
}

func (m *Model) renderReviewPanel() string {
	st := m.wizard.state
	var b strings.Builder
	total := 0.0
	for _, wl := range st.pendingList {
		total += wl.Hours
	}
	b.WriteString(fmt.Sprintf("Ready to push: %d worklogs, %.2fh\n", len(st.pendingList), total))
	for i, wl := range st.pendingList {
		line := fmt.Sprintf("%-12s %s %5.2fh %s",
			wl.IssueKey, wl.WorkDate.Format("Jan 02"), wl.Hours, wl.Comment)
		if i == st.reviewCursor {
			b.WriteString(m.styles.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.ListNormal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("p push · d delete · esc cancel"))
	return b.String()
}

func (m *Model) renderModal(width int) string {
	c := m.confirm
	var body string
	switch c.kind {
	case ConfirmRevert:
		body = fmt.Sprintf("Revert %q?\nType its hour total to confirm: %s_", c.historyName, c.input)
		if c.inputErr != "" {
			body += "\n" + m.styles.StatusError.Render(c.inputErr)
		}
		body += "\n" + m.styles.Help.Render("enter confirm · esc abort")
	case ConfirmDaily:
		body = fmt.Sprintf(
			"Logging %.2fh on %s would cross the daily limit on %s.\nLog [f]ull %.2fh, [p]artial %.2fh, or [s]kip?",
			c.dailyRequested, c.dailyIssue, c.dailyDay.Format("Jan 02"),
			c.dailyRequested, c.dailySuggested)
	case ConfirmGapFill:
		body = fmt.Sprintf("%d under-logged days found. Top them up on %s? [y/n]",
			c.gapDays, c.gapIssue)
	case ConfirmUnlink:
		body = fmt.Sprintf("Unlink %q from its issue? [y/n]", c.meetingTitle)
	case ConfirmWizardCancel:
		body = "Cancel the wizard and roll back everything it changed? [y/n]"
	}
	return m.styles.Modal.Render(wordwrap.String(body, width-8))
}

// renderAbout shows the about panel through the markdown renderer,
// falling back to plain text when the terminal profile cannot take it
func (m *Model) renderAbout(width int) string {
	md := "# worklog\n\nSprint worklog bookkeeping for the terminal.\n\n" + m.aboutText +
		"\n\nPress any key to close."
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return wordwrap.String(md, width-4)
	}
	return out
}

// renderStatusBar shows every non-idle operation category plus the
// transient status line
func (m *Model) renderStatusBar() string {
	var parts []string
	for _, cat := range []Category{CategorySync, CategoryPush, CategoryRevert, CategoryRefresh} {
		status, message := m.ops.Status(cat)
		switch status {
		case StatusRunning:
			parts = append(parts, fmt.Sprintf("%s %s: %s", m.spin.View(), cat, message))
		case StatusComplete:
			parts = append(parts, m.styles.StatusInfo.Render(fmt.Sprintf("%s ✓", cat)))
		case StatusFailed:
			parts = append(parts, m.styles.StatusError.Render(fmt.Sprintf("%s ✗ %s", cat, message)))
		}
	}

	line := m.styles.StatusBar.Render(strings.Join(parts, "  "))
	if m.statusLine != "" {
		style := m.styles.StatusInfo
		if m.statusErr {
			style = m.styles.StatusError
		}
		if line != "" {
			line += "\n"
		}
		line += style.Render(m.statusLine)
	}
	return line
}

func (m *Model) renderLogTail() string {
	lines := m.logs.Lines()
	if len(lines) > logTail {
		lines = lines[len(lines)-logTail:]
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(m.styles.LogLine.Render(l))
		b.WriteString("\n")
	}
	return b.String()
}
