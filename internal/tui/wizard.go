package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/worklog/internal/issue"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/session"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// Step is one stage of the end-of-sprint wizard. Steps run strictly
// in declaration order; a completed step never reopens within a run.
type Step int

const (
	StepSyncing Step = iota
	StepAutoLinking
	StepManualLinking
	StepMeetingWorklogs
	StepSessionWorklogs
	StepFillingGaps
	StepReviewing
	StepPushing
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepSyncing:
		return "syncing"
	case StepAutoLinking:
		return "auto-linking"
	case StepManualLinking:
		return "manual linking"
	case StepMeetingWorklogs:
		return "meeting worklogs"
	case StepSessionWorklogs:
		return "session worklogs"
	case StepFillingGaps:
		return "filling gaps"
	case StepReviewing:
		return "reviewing"
	case StepPushing:
		return "pushing"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// wizardSteps lists every step a run walks through, in order
var wizardSteps = []Step{
	StepSyncing, StepAutoLinking, StepManualLinking, StepMeetingWorklogs,
	StepSessionWorklogs, StepFillingGaps, StepReviewing, StepPushing,
	StepComplete,
}

// rollbackLog records everything a wizard run changed so a cancel can
// undo it. It is consumed exactly once; missing targets are logged
// and skipped rather than failing the rollback.
type rollbackLog struct {
	linkedMeetingIDs  []string
	originalLinks     map[string]*string
	createdWorklogIDs []string
}

// wizardState is one run of the wizard. It exists only between Launch
// and close/cancel; a nil state means no run is active.
type wizardState struct {
	sprintID   string
	sprintName string

	step        Step
	completed   map[Step]bool
	skipReasons map[Step]string

	// manual linking queue
	pendingMeetings []*meeting.Meeting
	meetingCursor   int
	pickerOpen      bool
	pickerIssues    []*issue.Issue
	pickerCursor    int
	// linkedThisRun supplements the stale snapshot with links made
	// during this run
	linkedThisRun map[string]string

	// session worklog queue
	sessions      []*session.Session
	sessionCursor int

	gapDays  []time.Time
	gapIssue string

	// review list
	pendingList  []*worklog.LocalWorklog
	reviewCursor int

	// running day totals, seeded from the snapshot as days are touched
	dayTotals map[time.Time]float64

	autoLinked   int
	manualLinked int
	meetingLogs  int
	sessionLogs  int
	gapLogs      int
	pushedCount  int

	rollback rollbackLog
}

// Wizard drives the guided end-of-sprint flow. It is a permanent bus
// subscriber; between runs it simply ignores every event.
type Wizard struct {
	state *wizardState
}

// NewWizard creates an idle wizard
func NewWizard() *Wizard {
	return &Wizard{}
}

// Launch starts a run against the followed sprint. A run already in
// progress, or no followed sprint, refuses the launch.
func (w *Wizard) Launch(m *Model) {
	if w.state != nil {
		return
	}
	if m.snap == nil || m.snap.Followed == nil {
		m.setStatus("follow a sprint before starting the wizard", true)
		return
	}

	w.state = &wizardState{
		sprintID:      m.snap.Followed.ID,
		sprintName:    m.snap.Followed.Name,
		step:          StepSyncing,
		completed:     make(map[Step]bool),
		skipReasons:   make(map[Step]string),
		linkedThisRun: make(map[string]string),
		dayTotals:     make(map[time.Time]float64),
		rollback: rollbackLog{
			originalLinks: make(map[string]*string),
		},
	}
	m.flavor("wizard_greeting")

	// A sync already in flight is fine: its completion reaches us the
	// same way.
	m.requestSync()
}

// OnEvent advances the run on background operation outcomes
func (w *Wizard) OnEvent(ev Event, m *Model) {
	if w.state == nil {
		return
	}

	switch w.state.step {
	case StepSyncing:
		switch e := ev.(type) {
		case RefreshedEvent:
			w.markComplete(m, StepSyncing, "")
			w.runAutoLink(m)
		case SyncFailedEvent:
			w.state = nil
			m.setStatus("wizard aborted: "+e.Reason, true)
		case RefreshFailedEvent:
			w.state = nil
			m.setStatus("wizard aborted: "+e.Reason, true)
		}
	case StepPushing:
		switch e := ev.(type) {
		case PushCompleteEvent:
			w.state.pushedCount = e.Pushed
			w.markComplete(m, StepPushing, "")
			w.finish(m)
		case PushFailedEvent:
			m.setStatus("push failed: "+e.Reason, true)
			w.enterReviewing(m)
		}
	}
}

// markComplete records a step as done and announces it on the bus. A
// non-empty reason marks the step as skipped. A step completes at most
// once per run; re-entering a completed step keeps the first record.
func (w *Wizard) markComplete(m *Model, step Step, reason string) {
	if w.state.completed[step] {
		return
	}
	w.state.completed[step] = true
	if reason != "" {
		w.state.skipReasons[step] = reason
	}
	m.bus.Publish(StepCompletedEvent{Step: step, Skipped: reason != ""})
}

func (w *Wizard) runAutoLink(m *Model) {
	st := w.state
	st.step = StepAutoLinking

	res, err := m.app.Meetings.AutoLink(context.Background(), m.snap.From, m.snap.To)
	if err != nil {
		loggy.Warn("auto-link failed", "error", err)
		w.markComplete(m, StepAutoLinking, "auto-link failed")
		w.enterManualLinking(m)
		return
	}
	st.rollback.linkedMeetingIDs = append(st.rollback.linkedMeetingIDs, res.LinkedIDs...)
	for id, orig := range res.OriginalLinks {
		st.rollback.originalLinks[id] = orig
	}
	st.autoLinked = len(res.LinkedIDs)
	w.markComplete(m, StepAutoLinking, "")
	w.enterManualLinking(m)
}

func (w *Wizard) enterManualLinking(m *Model) {
	st := w.state
	st.step = StepManualLinking

	autoLinked := make(map[string]bool, len(st.rollback.linkedMeetingIDs))
	for _, id := range st.rollback.linkedMeetingIDs {
		autoLinked[id] = true
	}
	for _, mt := range m.snap.UnlinkedMeetings() {
		if !autoLinked[mt.ID] {
			st.pendingMeetings = append(st.pendingMeetings, mt)
		}
	}
	if len(st.pendingMeetings) == 0 {
		w.markComplete(m, StepManualLinking, "no unlinked meetings")
		w.runMeetingWorklogs(m)
	}
}

// runMeetingWorklogs derives one worklog per linked meeting in the
// sprint window, skipping meetings that already produced one
func (w *Wizard) runMeetingWorklogs(m *Model) {
	st := w.state
	st.step = StepMeetingWorklogs

	logged := make(map[string]bool)
	for _, wl := range m.snap.Worklogs {
		if wl.Source == worklog.SourceMeeting && wl.SourceID != nil {
			logged[*wl.SourceID] = true
		}
	}

	candidates := 0
	for _, mt := range m.snap.Meetings {
		if mt.Declined || logged[mt.ID] {
			continue
		}
		key := ""
		if mt.IssueKey != nil {
			key = *mt.IssueKey
		}
		if linked, ok := st.linkedThisRun[mt.ID]; ok {
			key = linked
		}
		if key == "" {
			continue
		}
		candidates++
		id := mt.ID
		if w.createLog(m, key, mt.Day(), mt.Hours(), mt.Title, worklog.SourceMeeting, &id) {
			st.meetingLogs++
		}
	}

	if candidates == 0 {
		w.markComplete(m, StepMeetingWorklogs, "no linked meetings")
	} else {
		w.markComplete(m, StepMeetingWorklogs, "")
	}
	w.enterSessionWorklogs(m)
}

func (w *Wizard) enterSessionWorklogs(m *Model) {
	st := w.state
	st.step = StepSessionWorklogs

	logged := make(map[string]bool)
	for _, wl := range m.snap.Worklogs {
		if wl.Source == worklog.SourceSession && wl.SourceID != nil {
			logged[*wl.SourceID] = true
		}
	}
	for _, s := range m.snap.Sessions {
		if !logged[s.ID] {
			st.sessions = append(st.sessions, s)
		}
	}
	if len(st.sessions) == 0 {
		w.markComplete(m, StepSessionWorklogs, "no items found")
		w.runFillingGaps(m)
	}
}

// currentSession returns the session under the queue cursor
func (w *Wizard) currentSession() *session.Session {
	st := w.state
	if st == nil || st.sessionCursor >= len(st.sessions) {
		return nil
	}
	return st.sessions[st.sessionCursor]
}

// logCurrentSession creates a worklog for the session under the
// cursor, detouring through the daily-ceiling confirmation when the
// day's total would cross the limit
func (w *Wizard) logCurrentSession(m *Model) {
	st := w.state
	s := w.currentSession()
	if s == nil {
		return
	}
	if len(s.IssueKeys) == 0 {
		m.setStatus("no issue key in session commits, skipping", true)
		w.advanceSession(m)
		return
	}

	key := s.IssueKeys[0]
	hours := s.Hours()
	day := s.Day()
	limit := m.app.Config.Worklog.DailyHoursLimit
	total := w.dayTotal(m, day)
	if total+hours > limit {
		m.confirm.OpenDaily(key, day, hours, total, limit)
		return
	}

	if w.createLog(m, key, day, hours, sessionComment(s), worklog.SourceSession, &s.ID) {
		st.sessionLogs++
	}
	w.advanceSession(m)
}

// resolveDailyDetour receives the operator's answer to the ceiling
// confirmation and moves the session queue along
func (w *Wizard) resolveDailyDetour(m *Model, choice DailyChoice, hours float64) {
	st := w.state
	if st == nil || st.step != StepSessionWorklogs {
		return
	}
	s := w.currentSession()
	if s != nil && choice != DailySkip && hours > 0 {
		if w.createLog(m, s.IssueKeys[0], s.Day(), hours, sessionComment(s), worklog.SourceSession, &s.ID) {
			st.sessionLogs++
		}
	}
	w.advanceSession(m)
}

func (w *Wizard) advanceSession(m *Model) {
	st := w.state
	st.sessionCursor++
	if st.sessionCursor >= len(st.sessions) {
		w.markComplete(m, StepSessionWorklogs, "")
		w.runFillingGaps(m)
	}
}

func sessionComment(s *session.Session) string {
	return fmt.Sprintf("Development on %s (%s)", s.Repo, s.Branch)
}

// runFillingGaps looks for sprint work days logged below the minimum
// and offers to top them up
func (w *Wizard) runFillingGaps(m *Model) {
	st := w.state
	st.step = StepFillingGaps

	today := time.Now()
	var days []time.Time
	for _, d := range m.snap.Followed.WorkDays() {
		if !d.After(today) {
			days = append(days, d)
		}
	}

	gaps, err := m.app.Worklogs.FindGapDays(context.Background(), days, m.app.Config.Worklog.GapMinimumHours)
	if err != nil {
		loggy.Warn("gap scan failed", "error", err)
		w.markComplete(m, StepFillingGaps, "gap scan failed")
		w.enterReviewing(m)
		return
	}
	if len(gaps) == 0 {
		w.markComplete(m, StepFillingGaps, "no gap days")
		w.enterReviewing(m)
		return
	}

	issueKey := w.gapIssueKey(m)
	if issueKey == "" {
		w.markComplete(m, StepFillingGaps, "no issue to log against")
		w.enterReviewing(m)
		return
	}

	st.gapDays = gaps
	st.gapIssue = issueKey
	m.confirm.OpenGapFill(issueKey, len(gaps))
}

// gapIssueKey picks the issue gap fills are logged against: the key
// most logged against so far, falling back to the first sprint issue
func (w *Wizard) gapIssueKey(m *Model) string {
	counts := make(map[string]int)
	best := ""
	for _, wl := range m.snap.Worklogs {
		counts[wl.IssueKey]++
		if best == "" || counts[wl.IssueKey] > counts[best] {
			best = wl.IssueKey
		}
	}
	if best != "" {
		return best
	}
	if len(m.snap.Issues) > 0 {
		return m.snap.Issues[0].Key
	}
	return ""
}

// acceptGapFill tops each gap day up to the minimum
func (w *Wizard) acceptGapFill(m *Model) {
	st := w.state
	if st == nil || st.step != StepFillingGaps {
		return
	}
	min := m.app.Config.Worklog.GapMinimumHours
	for _, day := range st.gapDays {
		fill := min - w.dayTotal(m, day)
		if fill <= 0 {
			continue
		}
		if w.createLog(m, st.gapIssue, day, fill, "Sprint work", worklog.SourceGap, nil) {
			st.gapLogs++
		}
	}
	w.markComplete(m, StepFillingGaps, "")
	w.enterReviewing(m)
}

func (w *Wizard) declineGapFill(m *Model) {
	if w.state == nil || w.state.step != StepFillingGaps {
		return
	}
	w.markComplete(m, StepFillingGaps, "declined")
	w.enterReviewing(m)
}

// enterReviewing stages everything pending and presents it. With
// nothing to push, both the review and the push are complete by skip
// and the run jumps straight to its end.
func (w *Wizard) enterReviewing(m *Model) {
	st := w.state
	st.step = StepReviewing
	st.pendingList = nil
	st.reviewCursor = 0

	ctx := context.Background()
	if _, err := m.app.Worklogs.StageAll(ctx); err != nil {
		loggy.Warn("staging worklogs failed", "error", err)
	}
	staged, err := m.app.Worklogs.ListByStatus(ctx, worklog.StatusStaged)
	if err != nil {
		loggy.Warn("listing staged worklogs failed", "error", err)
	}
	st.pendingList = staged

	if len(st.pendingList) == 0 {
		w.markComplete(m, StepReviewing, "nothing to push")
		w.markComplete(m, StepPushing, "nothing to push")
		w.finish(m)
	}
}

// finish ends the run. The rollback log dies with the run: a finished
// run is never rolled back.
func (w *Wizard) finish(m *Model) {
	w.state.step = StepComplete
	w.state.rollback = rollbackLog{}
	m.flavor("wizard_complete")
	m.bus.Publish(WizardFinishedEvent{})
	m.requestRefresh()
}

// HandleKey routes key presses to the interactive steps. Returns true
// when the key was consumed.
func (w *Wizard) HandleKey(m *Model, msg tea.KeyMsg) bool {
	if w.state == nil {
		return false
	}

	switch w.state.step {
	case StepManualLinking:
		return w.handleLinkingKey(m, msg)
	case StepSessionWorklogs:
		return w.handleSessionKey(m, msg)
	case StepReviewing:
		return w.handleReviewKey(m, msg)
	case StepComplete:
		switch msg.String() {
		case "enter", "esc", "q":
			w.close(m)
			return true
		}
	}
	return false
}

func (w *Wizard) handleLinkingKey(m *Model, msg tea.KeyMsg) bool {
	st := w.state

	if st.pickerOpen {
		switch msg.String() {
		case "j", "down":
			if st.pickerCursor < len(st.pickerIssues)-1 {
				st.pickerCursor++
			}
		case "k", "up":
			if st.pickerCursor > 0 {
				st.pickerCursor--
			}
		case "enter":
			w.linkCurrentMeeting(m)
		case "esc":
			st.pickerOpen = false
		default:
			return false
		}
		return true
	}

	switch msg.String() {
	case "j", "down":
		if st.meetingCursor < len(st.pendingMeetings)-1 {
			st.meetingCursor++
		}
	case "k", "up":
		if st.meetingCursor > 0 {
			st.meetingCursor--
		}
	case "enter", "l":
		if len(m.snap.Issues) == 0 {
			m.setStatus("no sprint issues to link against", true)
			return true
		}
		st.pickerOpen = true
		st.pickerIssues = m.snap.Issues
		st.pickerCursor = 0
	case "s":
		w.skipCurrentMeeting(m)
	case "n":
		w.markComplete(m, StepManualLinking,
			fmt.Sprintf("skipped %d remaining meetings", len(st.pendingMeetings)))
		w.runMeetingWorklogs(m)
	default:
		return false
	}
	return true
}

func (w *Wizard) linkCurrentMeeting(m *Model) {
	st := w.state
	if st.meetingCursor >= len(st.pendingMeetings) || st.pickerCursor >= len(st.pickerIssues) {
		return
	}
	mt := st.pendingMeetings[st.meetingCursor]
	key := st.pickerIssues[st.pickerCursor].Key

	if err := m.app.Meetings.Link(context.Background(), mt.ID, key); err != nil {
		m.setStatus("linking failed: "+err.Error(), true)
		st.pickerOpen = false
		return
	}
	if _, seen := st.rollback.originalLinks[mt.ID]; !seen {
		st.rollback.originalLinks[mt.ID] = mt.IssueKey
		st.rollback.linkedMeetingIDs = append(st.rollback.linkedMeetingIDs, mt.ID)
	}
	st.linkedThisRun[mt.ID] = key
	st.manualLinked++
	st.pickerOpen = false
	w.skipCurrentMeeting(m)
}

// skipCurrentMeeting drops the meeting under the cursor from the
// queue and finishes the step when the queue empties
func (w *Wizard) skipCurrentMeeting(m *Model) {
	st := w.state
	if st.meetingCursor < len(st.pendingMeetings) {
		st.pendingMeetings = append(
			st.pendingMeetings[:st.meetingCursor],
			st.pendingMeetings[st.meetingCursor+1:]...,
		)
	}
	if st.meetingCursor >= len(st.pendingMeetings) && len(st.pendingMeetings) > 0 {
		st.meetingCursor = len(st.pendingMeetings) - 1
	}
	if len(st.pendingMeetings) == 0 {
		w.markComplete(m, StepManualLinking, "")
		w.runMeetingWorklogs(m)
	}
}

func (w *Wizard) handleSessionKey(m *Model, msg tea.KeyMsg) bool {
	switch msg.String() {
	case "y", "enter":
		w.logCurrentSession(m)
	case "s":
		w.advanceSession(m)
	default:
		return false
	}
	return true
}

func (w *Wizard) handleReviewKey(m *Model, msg tea.KeyMsg) bool {
	st := w.state
	switch msg.String() {
	case "j", "down":
		if st.reviewCursor < len(st.pendingList)-1 {
			st.reviewCursor++
		}
	case "k", "up":
		if st.reviewCursor > 0 {
			st.reviewCursor--
		}
	case "d":
		w.deleteReviewed(m)
	case "p":
		if !m.requestPush() {
			m.setStatus("a push is already running", true)
			return true
		}
		w.markComplete(m, StepReviewing, "")
		st.step = StepPushing
	default:
		return false
	}
	return true
}

func (w *Wizard) deleteReviewed(m *Model) {
	st := w.state
	if st.reviewCursor >= len(st.pendingList) {
		return
	}
	wl := st.pendingList[st.reviewCursor]
	if err := m.app.Worklogs.Delete(context.Background(), wl.ID); err != nil {
		m.setStatus("delete failed: "+err.Error(), true)
		return
	}
	st.pendingList = append(st.pendingList[:st.reviewCursor], st.pendingList[st.reviewCursor+1:]...)
	if st.reviewCursor >= len(st.pendingList) && len(st.pendingList) > 0 {
		st.reviewCursor = len(st.pendingList) - 1
	}
	if len(st.pendingList) == 0 {
		w.markComplete(m, StepReviewing, "nothing to push")
		w.markComplete(m, StepPushing, "nothing to push")
		w.finish(m)
	}
}

// RequestCancel asks to abandon the run. A push in flight cannot be
// cancelled; a finished run just closes.
func (w *Wizard) RequestCancel(m *Model) {
	if w.state == nil {
		return
	}
	switch w.state.step {
	case StepPushing:
		m.setStatus("push in progress, cannot cancel now", true)
	case StepComplete:
		w.close(m)
	default:
		m.confirm.OpenWizardCancel()
	}
}

// confirmCancel rolls the run back and closes it
func (w *Wizard) confirmCancel(m *Model) {
	if w.state == nil {
		return
	}
	w.rollbackRun(m)
	w.state = nil
	m.setStatus("wizard cancelled, changes rolled back", false)
	m.requestRefresh()
}

// rollbackRun undoes everything the run recorded, tolerating targets
// that have since disappeared
func (w *Wizard) rollbackRun(m *Model) {
	ctx := context.Background()
	log := w.state.rollback
	w.state.rollback = rollbackLog{}

	for _, id := range log.createdWorklogIDs {
		if err := m.app.Worklogs.Delete(ctx, id); err != nil {
			loggy.Warn("rollback: removing worklog failed", "id", id, "error", err)
		}
	}
	for _, id := range log.linkedMeetingIDs {
		if err := m.app.Meetings.RestoreLink(ctx, id, log.originalLinks[id]); err != nil {
			loggy.Warn("rollback: restoring meeting link failed", "id", id, "error", err)
		}
	}
}

func (w *Wizard) close(m *Model) {
	w.state = nil
	m.requestRefresh()
}

// createLog creates a worklog, records it for rollback and keeps the
// running day totals current
func (w *Wizard) createLog(m *Model, issueKey string, day time.Time, hours float64, comment string, source worklog.Source, sourceID *string) bool {
	wl, err := m.app.Worklogs.Create(context.Background(), issueKey, day, hours, comment, source, sourceID)
	if err != nil {
		loggy.Warn("creating worklog failed", "issue", issueKey, "error", err)
		m.setStatus("creating worklog failed: "+err.Error(), true)
		return false
	}
	w.state.rollback.createdWorklogIDs = append(w.state.rollback.createdWorklogIDs, wl.ID)
	w.state.dayTotals[day] = w.dayTotal(m, day) + hours
	return true
}

// dayTotal returns the hours logged on a day, including worklogs
// created during this run
func (w *Wizard) dayTotal(m *Model, day time.Time) float64 {
	if total, ok := w.state.dayTotals[day]; ok {
		return total
	}
	total := m.snap.DailyTotal(day)
	w.state.dayTotals[day] = total
	return total
}
